package store

import (
	"context"
	"time"
)

// Play is a saved football play backed by an ingested video.
type Play struct {
	ID          int64     `json:"id"`
	VideoURL    string    `json:"video_url"`
	StorageKey  string    `json:"storage_key,omitempty"`
	Source      string    `json:"source"`
	SourceType  string    `json:"source_type"`
	Formation   string    `json:"formation"`
	PlayType    string    `json:"play_type"`
	Tags        Tags      `json:"tags"`
	SubmittedBy int64     `json:"submitted_by"`
	DateAdded   time.Time `json:"date_added"`
}

const playColumns = "p.id, p.video_url, p.storage_key, p.source, p.source_type, p.formation, p.play_type, p.tags, p.submitted_by, p.date_added"

func scanPlay(row interface{ Scan(...any) error }) (*Play, error) {
	var p Play
	err := row.Scan(&p.ID, &p.VideoURL, &p.StorageKey, &p.Source, &p.SourceType,
		&p.Formation, &p.PlayType, &p.Tags, &p.SubmittedBy, &p.DateAdded)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlay inserts p and returns the stored row. ID and DateAdded are
// assigned here; an empty SourceType becomes "link".
func (s *Store) CreatePlay(ctx context.Context, p Play) (*Play, error) {
	if p.SourceType == "" {
		p.SourceType = "link"
	}
	if p.Tags == nil {
		p.Tags = Tags{}
	}
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO plays (video_url, storage_key, source, source_type, formation, play_type, tags, submitted_by, date_added)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.VideoURL, p.StorageKey, p.Source, p.SourceType, p.Formation, p.PlayType, p.Tags, p.SubmittedBy, s.stamp(),
	).Scan(&id)
	if err != nil {
		return nil, mapDBError(err, "play")
	}
	return s.getPlay(ctx, id)
}

// ListPlays returns the plays userID submitted, newest first.
func (s *Store) ListPlays(ctx context.Context, userID int64, f Filter) ([]Play, error) {
	q, args := f.where("SELECT "+playColumns+" FROM plays p WHERE p.submitted_by = ?", []any{userID})
	rows, err := s.query(ctx, q+" ORDER BY p.date_added DESC, p.id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plays := []Play{}
	for rows.Next() {
		p, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, *p)
	}
	return plays, rows.Err()
}

// GetPlay returns play id if userID submitted it.
func (s *Store) GetPlay(ctx context.Context, userID, id int64) (*Play, error) {
	p, err := scanPlay(s.queryRow(ctx,
		"SELECT "+playColumns+" FROM plays p WHERE p.id = ? AND p.submitted_by = ?", id, userID))
	if err != nil {
		return nil, mapDBError(err, "play")
	}
	return p, nil
}

func (s *Store) getPlay(ctx context.Context, id int64) (*Play, error) {
	p, err := scanPlay(s.queryRow(ctx, "SELECT "+playColumns+" FROM plays p WHERE p.id = ?", id))
	if err != nil {
		return nil, mapDBError(err, "play")
	}
	return p, nil
}
