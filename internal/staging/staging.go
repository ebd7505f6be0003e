// Package staging holds downloaded media on local disk between download and
// upload. Each ingestion gets its own scope, removed when the ingestion ends.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"playbook/internal/httputil"
	"playbook/internal/logging"
	"playbook/internal/media"
)

// ErrTooLarge is returned when a stream exceeds the staging size limit.
var ErrTooLarge = errors.New("media exceeds size limit")

// Area is the root under which per-ingestion scopes are created.
type Area struct {
	fs   afero.Afero
	root string
	log  logrus.FieldLogger
}

// New creates an Area on fs rooted at root. An empty root uses the
// filesystem's temp directory.
func New(fs afero.Fs, root string, log logrus.FieldLogger) *Area {
	if root == "" {
		root = os.TempDir()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Area{fs: afero.Afero{Fs: fs}, root: root, log: log}
}

// Scope is a temporary directory owned by a single ingestion.
type Scope struct {
	area *Area
	dir  string
}

// NewScope creates a fresh, uniquely named directory under the area root.
func (a *Area) NewScope() (*Scope, error) {
	if err := a.fs.MkdirAll(a.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging root: %w", err)
	}
	dir, err := a.fs.TempDir(a.root, "playbook-ingest-")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	return &Scope{area: a, dir: dir}, nil
}

// Dir returns the scope directory.
func (s *Scope) Dir() string {
	return s.dir
}

// Stage copies r into name inside the scope. At most maxBytes are accepted;
// a larger stream fails with ErrTooLarge. Partial files are removed on any
// failure.
func (s *Scope) Stage(r io.Reader, name string, maxBytes int64) (*media.StagedFile, error) {
	path, err := httputil.SafePath(s.dir, name)
	if err != nil {
		return nil, err
	}

	f, err := s.area.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating staged file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxBytes {
		err = fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	if err != nil {
		if rerr := s.area.fs.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			s.area.log.WithError(rerr).WithField("path", path).Warn("removing partial staged file")
		}
		return nil, fmt.Errorf("staging %s: %w", name, err)
	}

	return &media.StagedFile{Path: path, Size: n}, nil
}

// Open opens a staged file for reading.
func (s *Scope) Open(sf *media.StagedFile) (afero.File, error) {
	f, err := s.area.fs.Open(sf.Path)
	if err != nil {
		return nil, fmt.Errorf("opening staged file: %w", err)
	}
	return f, nil
}

// Cleanup removes the scope and everything in it. Failures are logged,
// never returned, so callers can defer it unconditionally.
func (s *Scope) Cleanup() {
	if s == nil || s.dir == "" {
		return
	}
	if err := s.area.fs.RemoveAll(s.dir); err != nil {
		s.area.log.WithError(err).WithField("path", s.dir).Warn("removing staging dir")
		return
	}
	s.area.log.WithField("path", s.dir).Debug("staging dir removed")
}

// Exists reports whether path is present in the area's filesystem.
func (a *Area) Exists(path string) bool {
	ok, err := a.fs.Exists(path)
	return err == nil && ok
}
