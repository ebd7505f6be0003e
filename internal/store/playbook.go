package store

import (
	"context"
	"time"
)

// PlaybookEntry records that a user saved a play.
type PlaybookEntry struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	PlayID  int64     `json:"play_id"`
	SavedAt time.Time `json:"saved_at"`
}

// SavedPlay is a playbook entry joined with its play and owner.
type SavedPlay struct {
	PlaybookEntry
	VideoURL      string    `json:"video_url"`
	Formation     string    `json:"formation"`
	PlayType      string    `json:"play_type"`
	Tags          Tags      `json:"tags"`
	Source        string    `json:"source"`
	SourceType    string    `json:"source_type"`
	DateAdded     time.Time `json:"date_added"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	UserCreatedAt time.Time `json:"user_created_at"`
	UserUpdatedAt time.Time `json:"user_updated_at"`
}

// SavePlay adds playID to userID's playbook. An unknown play yields
// *NotFoundError and a repeat save *ConflictError.
func (s *Store) SavePlay(ctx context.Context, userID, playID int64) (*PlaybookEntry, error) {
	if _, err := s.getPlay(ctx, playID); err != nil {
		return nil, err
	}
	e := PlaybookEntry{UserID: userID, PlayID: playID, SavedAt: s.stamp()}
	err := s.queryRow(ctx,
		"INSERT INTO user_playbook (user_id, play_id, saved_at) VALUES (?, ?, ?) RETURNING id",
		e.UserID, e.PlayID, e.SavedAt).Scan(&e.ID)
	if err != nil {
		return nil, mapDBError(err, "playbook entry")
	}
	return &e, nil
}

// ListPlaybook returns userID's saved plays, most recently saved first.
func (s *Store) ListPlaybook(ctx context.Context, userID int64, f Filter) ([]SavedPlay, error) {
	q, args := f.where(`SELECT up.id, up.user_id, up.play_id, up.saved_at,
		p.video_url, p.formation, p.play_type, p.tags, p.source, p.source_type, p.date_added,
		u.username, u.email, u.created_at, u.updated_at
		FROM user_playbook up
		JOIN plays p ON up.play_id = p.id
		JOIN users u ON up.user_id = u.id
		WHERE up.user_id = ?`, []any{userID})

	rows, err := s.query(ctx, q+" ORDER BY up.saved_at DESC, up.id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SavedPlay{}
	for rows.Next() {
		var sp SavedPlay
		err := rows.Scan(&sp.ID, &sp.UserID, &sp.PlayID, &sp.SavedAt,
			&sp.VideoURL, &sp.Formation, &sp.PlayType, &sp.Tags, &sp.Source, &sp.SourceType, &sp.DateAdded,
			&sp.Username, &sp.Email, &sp.UserCreatedAt, &sp.UserUpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}
