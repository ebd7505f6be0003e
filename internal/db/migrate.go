package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// embedMigrations holds one migration directory per dialect.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// Migrate applies all pending goose migrations for the pool's dialect.
// A nil logger silences goose.
func Migrate(ctx context.Context, d *DB, logger goose.Logger) error {
	if logger == nil {
		logger = goose.NopLogger()
	}
	goose.SetLogger(logger)
	goose.SetBaseFS(embedMigrations)

	dialect, dir := "sqlite3", "migrations/sqlite"
	if d.Driver == Postgres {
		dialect, dir = "postgres", "migrations/postgres"
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, d.DB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
