// Package storage writes media objects to S3-compatible buckets and to the
// local uploads directory.
package storage

import (
	"context"
	"io"

	"playbook/internal/media"
)

// Uploader stores a byte stream under a key and reports where it landed.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, key, contentType string) (*media.UploadResult, error)
}

// Deleter removes a stored object. Deleting a missing key is not an error.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}
