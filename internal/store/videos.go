package store

import (
	"context"
	"time"
)

// Video is a directly uploaded clip served from local storage.
type Video struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	FilePath         string    `json:"file_path"`
	ThumbnailPath    string    `json:"thumbnail_path"`
	Duration         int64     `json:"duration"`
	UserID           int64     `json:"user_id"`
	UploaderUsername string    `json:"uploader_username,omitempty"`
	PlayCount        int64     `json:"play_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

const videoSelect = `SELECT v.id, v.title, v.description, v.file_path, v.thumbnail_path, v.duration,
	v.user_id, COALESCE(u.username, ''), COUNT(vp.id), v.created_at, v.updated_at
	FROM videos v
	LEFT JOIN users u ON v.user_id = u.id
	LEFT JOIN video_plays vp ON v.id = vp.video_id`

const videoGroup = " GROUP BY v.id, v.title, v.description, v.file_path, v.thumbnail_path, v.duration, v.user_id, u.username, v.created_at, v.updated_at"

func scanVideo(row interface{ Scan(...any) error }) (*Video, error) {
	var v Video
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.FilePath, &v.ThumbnailPath, &v.Duration,
		&v.UserID, &v.UploaderUsername, &v.PlayCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVideo inserts v and returns the stored row.
func (s *Store) CreateVideo(ctx context.Context, v Video) (*Video, error) {
	now := s.stamp()
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO videos (title, description, file_path, thumbnail_path, duration, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		v.Title, v.Description, v.FilePath, v.ThumbnailPath, v.Duration, v.UserID, now, now,
	).Scan(&id)
	if err != nil {
		return nil, mapDBError(err, "video")
	}
	return s.GetVideo(ctx, id)
}

// GetVideo returns video id with its uploader and play count.
func (s *Store) GetVideo(ctx context.Context, id int64) (*Video, error) {
	v, err := scanVideo(s.queryRow(ctx, videoSelect+" WHERE v.id = ?"+videoGroup, id))
	if err != nil {
		return nil, mapDBError(err, "video")
	}
	return v, nil
}

// ListVideos pages through all videos, newest first.
func (s *Store) ListVideos(ctx context.Context, limit, offset int) ([]Video, error) {
	return s.listVideos(ctx, videoSelect+videoGroup+" ORDER BY v.created_at DESC, v.id DESC LIMIT ? OFFSET ?", limit, offset)
}

// ListUserVideos pages through userID's videos, newest first.
func (s *Store) ListUserVideos(ctx context.Context, userID int64, limit, offset int) ([]Video, error) {
	return s.listVideos(ctx,
		videoSelect+" WHERE v.user_id = ?"+videoGroup+" ORDER BY v.created_at DESC, v.id DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
}

func (s *Store) listVideos(ctx context.Context, q string, args ...any) ([]Video, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// UpdateVideo replaces title, description and thumbnail path.
func (s *Store) UpdateVideo(ctx context.Context, id int64, title, description, thumbnailPath string) (*Video, error) {
	res, err := s.exec(ctx,
		"UPDATE videos SET title = ?, description = ?, thumbnail_path = ?, updated_at = ? WHERE id = ?",
		title, description, thumbnailPath, s.stamp(), id)
	if err != nil {
		return nil, mapDBError(err, "video")
	}
	if err := requireRow(res, "video"); err != nil {
		return nil, err
	}
	return s.GetVideo(ctx, id)
}

// DeleteVideo removes video id.
func (s *Store) DeleteVideo(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return mapDBError(err, "video")
	}
	return requireRow(res, "video")
}

// LinkVideoPlay records that play playID appears in video videoID.
func (s *Store) LinkVideoPlay(ctx context.Context, videoID, playID int64) error {
	_, err := s.exec(ctx, "INSERT INTO video_plays (video_id, play_id) VALUES (?, ?)", videoID, playID)
	return mapDBError(err, "video play")
}
