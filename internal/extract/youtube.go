package extract

import (
	"context"
	"net/url"
	"path"
	"strings"

	"playbook/internal/httputil"
	"playbook/internal/media"
)

// YouTubeExtractor resolves YouTube watch and short links through the
// RapidAPI ytstream service.
type YouTubeExtractor struct {
	f       *fetcher
	apiBase string
	apiKey  string
	apiHost string
}

// NewYouTube creates a YouTubeExtractor. apiBase is the scheme and host the
// /dl endpoint is requested from.
func NewYouTube(f *fetcher, apiBase, apiKey, apiHost string) *YouTubeExtractor {
	return &YouTubeExtractor{
		f:       f,
		apiBase: strings.TrimRight(apiBase, "/"),
		apiKey:  apiKey,
		apiHost: apiHost,
	}
}

type ytFormat struct {
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
	QualityLabel string `json:"qualityLabel"`
}

type ytResponse struct {
	Status  string     `json:"status"`
	Title   string     `json:"title"`
	Formats []ytFormat `json:"formats"`
}

// Extract resolves a YouTube URL into a progressive MP4 stream URL. Links on
// any other host reach this extractor only through the unmatched-URL
// fallback and are downloaded as direct media links.
func (y *YouTubeExtractor) Extract(ctx context.Context, sourceURL string) (*media.Extraction, error) {
	u, err := httputil.ParseSourceURL(sourceURL)
	if err != nil {
		return nil, media.ErrInvalidURL(sourceURL, "%v", err)
	}
	if !isYouTubeHost(u.Hostname()) {
		return directLink(u)
	}

	id, err := youTubeID(sourceURL)
	if err != nil {
		return nil, err
	}

	if y.apiKey == "" || y.apiBase == "" {
		return nil, media.ErrUpstream(media.YouTube, "RapidAPI key or host not configured")
	}

	apiURL := y.apiBase + "/dl?" + url.Values{"id": {id}}.Encode()
	headers := map[string]string{
		"X-RapidAPI-Key":  y.apiKey,
		"X-RapidAPI-Host": y.apiHost,
	}

	var resp ytResponse
	if err := y.f.fetchJSON(ctx, apiURL, headers, &resp); err != nil {
		return nil, &media.UpstreamFetchError{Platform: media.YouTube, Err: err}
	}
	if resp.Status != "" && !strings.EqualFold(resp.Status, "ok") {
		return nil, media.ErrUpstream(media.YouTube, "API returned status %q", resp.Status)
	}

	f := pickFormat(resp.Formats)
	if f == nil {
		return nil, media.ErrUpstream(media.YouTube, "no playable format for video %s", id)
	}

	return &media.Extraction{
		MediaURL:    f.URL,
		FileName:    id + ".mp4",
		ContentType: "video/mp4",
	}, nil
}

// pickFormat prefers the first MP4 format and falls back to any format
// with a URL.
func pickFormat(formats []ytFormat) *ytFormat {
	var fallback *ytFormat
	for i := range formats {
		f := &formats[i]
		if f.URL == "" {
			continue
		}
		if strings.HasPrefix(f.MimeType, "video/mp4") {
			return f
		}
		if fallback == nil {
			fallback = f
		}
	}
	return fallback
}

func isYouTubeHost(host string) bool {
	return httputil.HostMatches(host, "youtu.be") || httputil.HostMatches(host, "youtube.com")
}

// directLink treats u as the media file itself.
func directLink(u *url.URL) (*media.Extraction, error) {
	mediaURL := u.String()
	if err := httputil.ValidateURL(mediaURL); err != nil {
		return nil, media.ErrInvalidURL(mediaURL, "%v", err)
	}
	name := httputil.SanitizeFilename(path.Base(u.Path))
	if name == "_" || name == "untitled" {
		name = "video.mp4"
	}
	return &media.Extraction{MediaURL: mediaURL, FileName: name}, nil
}

// youTubeID extracts the video ID from a watch?v= URL or a youtu.be link.
func youTubeID(rawURL string) (string, error) {
	u, err := httputil.ParseSourceURL(rawURL)
	if err != nil {
		return "", media.ErrInvalidURL(rawURL, "%v", err)
	}

	var id string
	switch host := u.Hostname(); {
	case httputil.HostMatches(host, "youtu.be"):
		id = strings.Trim(u.Path, "/")
	case httputil.HostMatches(host, "youtube.com") && u.Path == "/watch":
		id = u.Query().Get("v")
	}

	if id == "" || strings.Contains(id, "/") {
		return "", media.ErrInvalidURL(rawURL, "YouTube links must be watch?v= or youtu.be URLs")
	}
	if err := httputil.ValidateID(id); err != nil {
		return "", media.ErrInvalidURL(rawURL, "bad video id: %v", err)
	}
	return id, nil
}
