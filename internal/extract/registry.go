package extract

import (
	"context"
	"fmt"

	"playbook/internal/media"
)

// Registry dispatches a source URL to the extractor for its platform.
type Registry struct {
	extractors      map[media.Platform]Extractor
	fallbackYouTube bool
}

// NewRegistry builds a Registry. With policy "youtube", URLs on no known
// platform are handed to the YouTube extractor instead of being rejected.
func NewRegistry(policy string, extractors map[media.Platform]Extractor) *Registry {
	return &Registry{
		extractors:      extractors,
		fallbackYouTube: policy == "youtube",
	}
}

// Resolve classifies rawURL and returns the platform and extractor that
// handle it. It never performs network I/O.
func (r *Registry) Resolve(rawURL string) (media.Platform, Extractor, error) {
	p := Classify(rawURL)

	switch p {
	case media.YouTube, media.Instagram, media.Facebook, media.X:
	case media.Unsupported:
		if !r.fallbackYouTube {
			return p, nil, &media.UnsupportedPlatformError{URL: rawURL}
		}
		p = media.YouTube
	default:
		panic(fmt.Sprintf("extract: unhandled platform %d", p))
	}

	ex, ok := r.extractors[p]
	if !ok {
		return p, nil, &media.UnsupportedPlatformError{URL: rawURL}
	}
	return p, ex, nil
}

// Extract resolves rawURL and runs its extractor.
func (r *Registry) Extract(ctx context.Context, rawURL string) (*media.Extraction, error) {
	_, ex, err := r.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	return ex.Extract(ctx, rawURL)
}
