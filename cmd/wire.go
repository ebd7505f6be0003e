package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"playbook/internal/config"
	"playbook/internal/db"
	"playbook/internal/download"
	"playbook/internal/extract"
	"playbook/internal/httputil"
	"playbook/internal/ingest"
	"playbook/internal/staging"
	"playbook/internal/storage"
)

// newIngestService wires extractors, downloader, staging and S3 from c.
func newIngestService(c *config.Config) (*ingest.Service, error) {
	if err := c.ValidateStorage(); err != nil {
		return nil, err
	}
	uploader, err := storage.NewS3(storage.S3Config{
		Bucket:          c.Storage.Bucket,
		Region:          c.Storage.Region,
		Endpoint:        c.Storage.Endpoint,
		PublicHost:      c.Storage.PublicHost,
		AccessKeyID:     c.Storage.AccessKeyID,
		SecretAccessKey: c.Storage.SecretAccessKey,
		UsePathStyle:    c.Storage.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	registry := extract.New(extract.Options{
		Client:          httputil.NewClient(c.HTTP.FetchTimeout),
		UserAgent:       c.HTTP.UserAgent,
		RapidAPIKey:     c.Extract.RapidAPIKey,
		RapidAPIHost:    c.Extract.RapidAPIHost,
		XAPIBase:        c.Extract.XAPIBase,
		UnmatchedPolicy: c.Ingest.UnmatchedURLPolicy,
	})
	downloader := download.New(httputil.NewClient(c.HTTP.DownloadTimeout), c.HTTP.UserAgent, c.Ingest.MaxBytes)
	area := staging.New(afero.NewOsFs(), c.StagingDir(), log.WithField("component", "staging"))

	return ingest.New(registry, downloader, area, uploader,
		ingest.WithKeyPrefix(c.Ingest.KeyPrefix),
		ingest.WithTimeout(c.Ingest.Timeout),
		ingest.WithLogger(log.WithField("component", "ingest")),
	), nil
}

// openDB opens the configured database and applies pending migrations.
func openDB(ctx context.Context, c *config.Config) (*db.DB, error) {
	d, err := db.Open(ctx, c.Database.Driver, c.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, d, log.WithField("component", "migrate")); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}
