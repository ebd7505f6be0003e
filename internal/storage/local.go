package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"playbook/internal/media"
)

// Local stores objects under a directory that is served statically at
// urlPrefix.
type Local struct {
	fs        afero.Afero
	root      string
	urlPrefix string
}

// NewLocal creates a Local store rooted at root.
func NewLocal(fs afero.Fs, root, urlPrefix string) *Local {
	return &Local{
		fs:        afero.Afero{Fs: fs},
		root:      filepath.Clean(root),
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// Upload writes body to key below the root. A failed write leaves no file.
func (l *Local) Upload(ctx context.Context, body io.Reader, key, contentType string) (*media.UploadResult, error) {
	full, err := l.resolve(key)
	if err != nil {
		return nil, &media.StorageUploadError{Key: key, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &media.StorageUploadError{Key: key, Err: err}
	}

	if err := l.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, &media.StorageUploadError{Key: key, Err: err}
	}
	if err := l.fs.WriteReader(full, body); err != nil {
		_ = l.fs.Remove(full)
		return nil, &media.StorageUploadError{Key: key, Err: err}
	}

	return &media.UploadResult{URL: l.PublicURL(key), Key: key}, nil
}

// Delete removes key. A missing object is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the URL path key is served at.
func (l *Local) PublicURL(key string) string {
	return l.urlPrefix + "/" + strings.TrimLeft(path.Clean("/"+key), "/")
}

// KeyFor reverses PublicURL. It reports false for URLs outside the prefix.
func (l *Local) KeyFor(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, l.urlPrefix+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// resolve maps key to a path inside the root.
func (l *Local) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("empty key")
	}
	full := filepath.Join(l.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return full, nil
}
