package store

import (
	"context"
	"time"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const userColumns = "id, username, email, password_hash, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. A taken email yields *ConflictError.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	now := s.stamp()
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO users (username, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		username, email, passwordHash, now, now).Scan(&id)
	if err != nil {
		return nil, mapDBError(err, "user")
	}
	return s.GetUser(ctx, id)
}

// GetUser returns the user with id.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, mapDBError(err, "user")
	}
	return u, nil
}

// GetUserByEmail returns the user registered under email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		return nil, mapDBError(err, "user")
	}
	return u, nil
}

// UpdateUser replaces username and email.
func (s *Store) UpdateUser(ctx context.Context, id int64, username, email string) (*User, error) {
	res, err := s.exec(ctx,
		"UPDATE users SET username = ?, email = ?, updated_at = ? WHERE id = ?",
		username, email, s.stamp(), id)
	if err != nil {
		return nil, mapDBError(err, "user")
	}
	if err := requireRow(res, "user"); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.exec(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, s.stamp(), id)
	if err != nil {
		return mapDBError(err, "user")
	}
	return requireRow(res, "user")
}
