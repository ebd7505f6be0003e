package extract

import (
	"context"
	"fmt"
	"strings"

	"playbook/internal/httputil"
	"playbook/internal/media"
)

// XExtractor resolves X/Twitter status URLs through a vxtwitter-compatible
// JSON API.
type XExtractor struct {
	f       *fetcher
	apiBase string
}

// NewX creates an XExtractor.
func NewX(f *fetcher, apiBase string) *XExtractor {
	return &XExtractor{f: f, apiBase: apiBase}
}

type xMedia struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type xStatus struct {
	TweetID       string   `json:"tweetID"`
	MediaExtended []xMedia `json:"media_extended"`
}

// Extract resolves a status URL into the URL of its attached video. The
// first attachment must be a video.
func (x *XExtractor) Extract(ctx context.Context, sourceURL string) (*media.Extraction, error) {
	user, id, err := xStatusPath(sourceURL)
	if err != nil {
		return nil, err
	}
	if x.apiBase == "" {
		return nil, media.ErrUpstream(media.X, "status API not configured")
	}

	apiURL := fmt.Sprintf("%s/%s/status/%s", x.apiBase, user, id)

	var status xStatus
	if err := x.f.fetchJSON(ctx, apiURL, nil, &status); err != nil {
		return nil, &media.UpstreamFetchError{Platform: media.X, Err: err}
	}

	if len(status.MediaExtended) == 0 || status.MediaExtended[0].Type != "video" || status.MediaExtended[0].URL == "" {
		return nil, media.ErrUpstream(media.X, "status %s has no video", id)
	}

	return &media.Extraction{
		MediaURL:    status.MediaExtended[0].URL,
		FileName:    "x_" + id + ".mp4",
		ContentType: "video/mp4",
	}, nil
}

// xStatusPath extracts the user handle and status ID from /{user}/status/{id}.
func xStatusPath(rawURL string) (string, string, error) {
	u, err := httputil.ParseSourceURL(rawURL)
	if err != nil {
		return "", "", media.ErrInvalidURL(rawURL, "%v", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[1] != "status" {
		return "", "", media.ErrInvalidURL(rawURL, "not an X status URL")
	}
	if err := httputil.ValidateID(parts[0]); err != nil {
		return "", "", media.ErrInvalidURL(rawURL, "bad handle: %v", err)
	}
	id := parts[2]
	if err := httputil.ValidateID(id); err != nil || strings.Trim(id, "0123456789") != "" {
		return "", "", media.ErrInvalidURL(rawURL, "status id must be numeric")
	}
	return parts[0], id, nil
}
