// Package ingest drives a source URL through extraction, staging and upload.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"playbook/internal/extract"
	"playbook/internal/logging"
	"playbook/internal/media"
	"playbook/internal/staging"
	"playbook/internal/storage"
)

// Resolver maps a source URL to its platform extractor without I/O.
type Resolver interface {
	Resolve(rawURL string) (media.Platform, extract.Extractor, error)
}

// Downloader streams a media URL into a staging scope.
type Downloader interface {
	Download(ctx context.Context, mediaURL string, scope *staging.Scope, fileName string) (*media.StagedFile, error)
}

// Service runs ingestions. It holds no per-ingestion state, so one Service
// serves concurrent callers.
type Service struct {
	resolver   Resolver
	downloader Downloader
	staging    *staging.Area
	uploader   storage.Uploader
	keyPrefix  string
	timeout    time.Duration
	log        logrus.FieldLogger
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithKeyPrefix sets the default storage key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Service) { s.keyPrefix = prefix }
}

// WithTimeout bounds each ingestion as a whole.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithIDGenerator replaces the UUID generator used for file names.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates a Service.
func New(r Resolver, d Downloader, area *staging.Area, up storage.Uploader, opts ...Option) *Service {
	s := &Service{
		resolver:   r,
		downloader: d,
		staging:    area,
		uploader:   up,
		keyPrefix:  "test_videos",
		log:        logging.Discard(),
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest fetches the video behind sourceURL and uploads it under
// {keyPrefix}/{uuid}.mp4. An empty keyPrefix uses the service default.
//
// Classification failures are returned as *media.UnsupportedPlatformError
// before any network call. Everything after that is wrapped in
// *media.IngestionFailedError. Staged files never outlive the call.
func (s *Service) Ingest(ctx context.Context, sourceURL, keyPrefix string) (*media.UploadResult, error) {
	platform, ex, err := s.resolver.Resolve(sourceURL)
	if err != nil {
		return nil, err
	}

	if keyPrefix == "" {
		keyPrefix = s.keyPrefix
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.WithFields(logrus.Fields{"platform": platform.String(), "url": sourceURL})
	started := time.Now()

	res, err := s.run(ctx, log, ex, sourceURL, keyPrefix)
	if err != nil {
		log.WithError(err).Warn("ingestion failed")
		return nil, &media.IngestionFailedError{SourceURL: sourceURL, Err: err}
	}

	log.WithFields(logrus.Fields{"key": res.Key, "took": time.Since(started).Round(time.Millisecond)}).Info("ingested")
	return res, nil
}

// Discard deletes an object written by Ingest. Callers use it when the
// ingested video ends up referenced by nothing.
func (s *Service) Discard(ctx context.Context, key string) error {
	d, ok := s.uploader.(storage.Deleter)
	if !ok {
		return fmt.Errorf("storage backend cannot delete %s", key)
	}
	if err := d.Delete(ctx, key); err != nil {
		return err
	}
	s.log.WithField("key", key).Info("discarded")
	return nil
}

func (s *Service) run(ctx context.Context, log logrus.FieldLogger, ex extract.Extractor, sourceURL, keyPrefix string) (*media.UploadResult, error) {
	extraction, err := ex.Extract(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if extraction == nil || (!extraction.Remote() && len(extraction.Data) == 0) {
		return nil, errors.New("extractor returned no media")
	}

	log.WithField("source_file", extraction.FileName).Debug("extracted")

	fileName := s.newID() + ".mp4"
	key := path.Join(keyPrefix, fileName)
	contentType := extraction.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	if !extraction.Remote() {
		log.WithField("bytes", len(extraction.Data)).Debug("uploading in-memory media")
		return s.upload(ctx, bytes.NewReader(extraction.Data), key, contentType)
	}

	scope, err := s.staging.NewScope()
	if err != nil {
		return nil, err
	}
	defer scope.Cleanup()

	staged, err := s.downloader.Download(ctx, extraction.MediaURL, scope, fileName)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"path": staged.Path, "bytes": staged.Size}).Debug("staged")

	f, err := scope.Open(staged)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return s.upload(ctx, f, key, contentType)
}

func (s *Service) upload(ctx context.Context, body io.Reader, key, contentType string) (*media.UploadResult, error) {
	res, err := s.uploader.Upload(ctx, body, key, contentType)
	if err != nil {
		var uerr *media.StorageUploadError
		if errors.As(err, &uerr) {
			return nil, err
		}
		return nil, &media.StorageUploadError{Key: key, Err: fmt.Errorf("upload: %w", err)}
	}
	return res, nil
}
