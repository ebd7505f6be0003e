package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playbook/internal/media"
)

func newTestS3(t *testing.T, h http.HandlerFunc) *S3 {
	t.Helper()
	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)

	up, err := NewS3(S3Config{
		Bucket:          "plays",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
		HTTPClient:      srv.Client(),
	})
	require.NoError(t, err)
	return up
}

func TestS3Upload(t *testing.T) {
	var gotPath, gotType, gotBody string
	up := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	})

	res, err := up.Upload(context.Background(), strings.NewReader("video-bytes"), "test_videos/a.mp4", "")
	require.NoError(t, err)

	assert.Equal(t, "/plays/test_videos/a.mp4", gotPath)
	assert.Equal(t, "video/mp4", gotType)
	assert.Contains(t, gotBody, "video-bytes")
	assert.Equal(t, "test_videos/a.mp4", res.Key)
	assert.True(t, strings.HasPrefix(res.URL, "https://127.0.0.1:"), res.URL)
	assert.True(t, strings.HasSuffix(res.URL, "/plays/test_videos/a.mp4"), res.URL)
}

func TestS3UploadRejected(t *testing.T) {
	var calls atomic.Int32
	up := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
	})

	_, err := up.Upload(context.Background(), strings.NewReader("x"), "test_videos/b.mp4", "video/mp4")

	var uerr *media.StorageUploadError
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, http.StatusForbidden, uerr.StatusCode)
	assert.Equal(t, "test_videos/b.mp4", uerr.Key)
	assert.Equal(t, int32(1), calls.Load())
}

func TestS3Delete(t *testing.T) {
	var gotMethod, gotPath string
	up := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, up.Delete(context.Background(), "test_videos/a.mp4"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/plays/test_videos/a.mp4", gotPath)
}

func TestS3ServerErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	up := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `<Error><Code>SlowDown</Code><Message>Reduce your request rate</Message></Error>`)
	})

	_, err := up.Upload(context.Background(), strings.NewReader("x"), "k.mp4", "video/mp4")

	var uerr *media.StorageUploadError
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, uerr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewS3Validation(t *testing.T) {
	_, err := NewS3(S3Config{Region: "us-east-1"})
	assert.Error(t, err)
	_, err = NewS3(S3Config{Bucket: "plays"})
	assert.Error(t, err)
}

func TestS3PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		key  string
		want string
	}{
		{"aws default", S3Config{Bucket: "b", Region: "eu-west-1"}, "test_videos/x.mp4", "https://b.s3.eu-west-1.amazonaws.com/test_videos/x.mp4"},
		{"custom host", S3Config{Bucket: "b", Region: "fsn1", PublicHost: "fsn1.your-objectstorage.com"}, "/k.mp4", "https://b.fsn1.your-objectstorage.com/k.mp4"},
		{"endpoint host", S3Config{Bucket: "b", Region: "fsn1", Endpoint: "https://fsn1.your-objectstorage.com"}, "k.mp4", "https://b.fsn1.your-objectstorage.com/k.mp4"},
		{"endpoint without scheme", S3Config{Bucket: "b", Region: "fsn1", Endpoint: "fsn1.your-objectstorage.com"}, "k.mp4", "https://b.fsn1.your-objectstorage.com/k.mp4"},
		{"path style endpoint", S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000", UsePathStyle: true}, "k.mp4", "http://localhost:9000/b/k.mp4"},
		{"public host wins", S3Config{Bucket: "b", Region: "fsn1", Endpoint: "https://fsn1.your-objectstorage.com", PublicHost: "cdn.example.com"}, "k.mp4", "https://b.cdn.example.com/k.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewS3(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.PublicURL(tt.key))
		})
	}
}

func TestLocalUpload(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := NewLocal(fs, "/srv/uploads", "/uploads")

	res, err := l.Upload(context.Background(), strings.NewReader("clip"), "videos/video-1.mp4", "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/videos/video-1.mp4", res.URL)

	data, err := afero.ReadFile(fs, "/srv/uploads/videos/video-1.mp4")
	require.NoError(t, err)
	assert.Equal(t, "clip", string(data))

	require.NoError(t, l.Delete(context.Background(), "videos/video-1.mp4"))
	exists, _ := afero.Exists(fs, "/srv/uploads/videos/video-1.mp4")
	assert.False(t, exists)
	assert.NoError(t, l.Delete(context.Background(), "videos/video-1.mp4"), "deleting a missing object is not an error")
}

func TestLocalKeysStayInsideRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := NewLocal(fs, "/srv/uploads", "/uploads")

	res, err := l.Upload(context.Background(), strings.NewReader("x"), "../../etc/passwd", "")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/etc/passwd", res.URL)

	exists, _ := afero.Exists(fs, "/srv/uploads/etc/passwd")
	assert.True(t, exists)

	_, err = l.Upload(context.Background(), strings.NewReader("x"), "", "")
	var uerr *media.StorageUploadError
	assert.True(t, errors.As(err, &uerr))
}

func TestLocalKeyFor(t *testing.T) {
	l := NewLocal(afero.NewMemMapFs(), "/srv/uploads", "/uploads/")

	key, ok := l.KeyFor("/uploads/thumbnails/t.jpg")
	assert.True(t, ok)
	assert.Equal(t, "thumbnails/t.jpg", key)

	_, ok = l.KeyFor("https://cdn.example.com/t.jpg")
	assert.False(t, ok)
	_, ok = l.KeyFor("/uploads/")
	assert.False(t, ok)
}
