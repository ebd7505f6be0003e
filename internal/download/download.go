// Package download streams remote media into a staging scope.
// Only HTTPS sources are fetched and the written path is confined to the
// scope directory.
package download

import (
	"context"
	"fmt"
	"net/http"

	"playbook/internal/httputil"
	"playbook/internal/media"
	"playbook/internal/staging"
)

// Downloader fetches media URLs over a dedicated HTTP client.
type Downloader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// New creates a Downloader. maxBytes bounds a single download.
func New(client *http.Client, userAgent string, maxBytes int64) *Downloader {
	return &Downloader{client: client, userAgent: userAgent, maxBytes: maxBytes}
}

// Download streams mediaURL into fileName inside scope. The partial file is
// removed on failure.
func (d *Downloader) Download(ctx context.Context, mediaURL string, scope *staging.Scope, fileName string) (*media.StagedFile, error) {
	req, err := httputil.NewRequest(ctx, mediaURL, d.userAgent, "*/*", nil)
	if err != nil {
		return nil, fmt.Errorf("invalid media URL: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading media: unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	if resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("downloading media: %w (%d bytes advertised)", staging.ErrTooLarge, resp.ContentLength)
	}

	sf, err := scope.Stage(resp.Body, fileName, d.maxBytes)
	if err != nil {
		return nil, err
	}
	return sf, nil
}
