// Package extract resolves social media post URLs into downloadable video
// by talking to each platform's public pages or APIs.
package extract

import (
	"context"
	"net/http"
	"strings"

	"playbook/internal/httputil"
	"playbook/internal/media"
)

// Extractor resolves a post URL into the location of its video.
type Extractor interface {
	Extract(ctx context.Context, sourceURL string) (*media.Extraction, error)
}

// Options configures the default set of platform extractors.
type Options struct {
	Client    *http.Client
	UserAgent string

	RapidAPIKey  string
	RapidAPIHost string
	// YouTubeAPIBase overrides https://{RapidAPIHost}.
	YouTubeAPIBase string

	XAPIBase string

	// UnmatchedPolicy is "reject" or "youtube".
	UnmatchedPolicy string
}

// New returns a Registry with one extractor per supported platform.
func New(opts Options) *Registry {
	client := opts.Client
	if client == nil {
		client = httputil.NewClient(0)
	}
	f := &fetcher{client: client, userAgent: opts.UserAgent}

	ytBase := opts.YouTubeAPIBase
	if ytBase == "" && opts.RapidAPIHost != "" {
		ytBase = "https://" + opts.RapidAPIHost
	}

	return NewRegistry(opts.UnmatchedPolicy, map[media.Platform]Extractor{
		media.YouTube:   NewYouTube(f, ytBase, opts.RapidAPIKey, opts.RapidAPIHost),
		media.Instagram: NewInstagram(f),
		media.Facebook:  NewFacebook(f),
		media.X:         NewX(f, strings.TrimRight(opts.XAPIBase, "/")),
	})
}
