package media

import "fmt"

// InvalidURLError indicates a source URL is malformed or does not have the
// shape its platform requires.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.URL, e.Reason)
}

// UnsupportedPlatformError indicates no extractor handles the source URL.
type UnsupportedPlatformError struct {
	URL string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform for URL %q", e.URL)
}

// UpstreamFetchError indicates the platform's API or page could not be
// fetched, or returned no playable media.
type UpstreamFetchError struct {
	Platform Platform
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Platform, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// StorageUploadError indicates the object store rejected a write.
// StatusCode is zero when no HTTP response was received.
type StorageUploadError struct {
	Key        string
	StatusCode int
	Err        error
}

func (e *StorageUploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("uploading %q: status %d: %v", e.Key, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("uploading %q: %v", e.Key, e.Err)
}

func (e *StorageUploadError) Unwrap() error { return e.Err }

// IngestionFailedError wraps any failure raised after an ingestion has
// started. The underlying error is available through errors.As/Unwrap.
type IngestionFailedError struct {
	SourceURL string
	Err       error
}

func (e *IngestionFailedError) Error() string {
	return fmt.Sprintf("ingesting %q: %v", e.SourceURL, e.Err)
}

func (e *IngestionFailedError) Unwrap() error { return e.Err }

// ErrInvalidURL builds an InvalidURLError with a formatted reason.
func ErrInvalidURL(rawURL, format string, args ...interface{}) *InvalidURLError {
	return &InvalidURLError{URL: rawURL, Reason: fmt.Sprintf(format, args...)}
}

// ErrUpstream builds an UpstreamFetchError with a formatted cause.
func ErrUpstream(p Platform, format string, args ...interface{}) *UpstreamFetchError {
	return &UpstreamFetchError{Platform: p, Err: fmt.Errorf(format, args...)}
}
