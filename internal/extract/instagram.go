package extract

import (
	"context"
	"regexp"
	"strings"

	"playbook/internal/httputil"
	"playbook/internal/media"
)

var (
	igVideoURLRe   = regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`)
	igContentURLRe = regexp.MustCompile(`"contentUrl"\s*:\s*"([^"]+)"`)
	instagramKinds = map[string]bool{"p": true, "reel": true, "reels": true, "tv": true}
)

// InstagramExtractor resolves post and reel URLs from the page's Open Graph
// tags, falling back to the inline JSON the page embeds.
type InstagramExtractor struct {
	f *fetcher
}

// NewInstagram creates an InstagramExtractor.
func NewInstagram(f *fetcher) *InstagramExtractor {
	return &InstagramExtractor{f: f}
}

// Extract resolves an Instagram post URL into its first video.
func (i *InstagramExtractor) Extract(ctx context.Context, sourceURL string) (*media.Extraction, error) {
	pageURL, shortcode, err := instagramPost(sourceURL)
	if err != nil {
		return nil, err
	}

	p, err := i.f.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, &media.UpstreamFetchError{Platform: media.Instagram, Err: err}
	}

	videoURL := p.meta("og:video:secure_url", "og:video", "og:video:url")
	if videoURL == "" {
		videoURL = p.inline(igVideoURLRe, igContentURLRe)
	}
	if videoURL == "" {
		return nil, media.ErrUpstream(media.Instagram, "no video found for post %s", shortcode)
	}

	return &media.Extraction{
		MediaURL:    videoURL,
		FileName:    shortcode + ".mp4",
		ContentType: p.meta("og:video:type"),
	}, nil
}

// instagramPost normalizes an Instagram post URL and returns it with the
// post shortcode. Only /p/, /reel/, /reels/ and /tv/ paths carry video.
func instagramPost(rawURL string) (string, string, error) {
	u, err := httputil.ParseSourceURL(rawURL)
	if err != nil {
		return "", "", media.ErrInvalidURL(rawURL, "%v", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || !instagramKinds[parts[0]] {
		return "", "", media.ErrInvalidURL(rawURL, "not an Instagram post or reel")
	}
	if err := httputil.ValidateID(parts[1]); err != nil {
		return "", "", media.ErrInvalidURL(rawURL, "bad shortcode: %v", err)
	}

	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), parts[1], nil
}
