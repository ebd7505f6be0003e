package extract

import (
	"context"
	"regexp"
	"strings"

	"playbook/internal/httputil"
	"playbook/internal/media"
)

var (
	fbHDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"browser_native_hd_url"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`"playable_url_quality_hd"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`hd_src"?\s*:\s*"([^"]+)"`),
	}
	fbSDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"browser_native_sd_url"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`"playable_url"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`sd_src"?\s*:\s*"([^"]+)"`),
	}
)

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FacebookExtractor resolves video and reel pages, preferring the HD source.
type FacebookExtractor struct {
	f *fetcher
}

// NewFacebook creates a FacebookExtractor.
func NewFacebook(f *fetcher) *FacebookExtractor {
	return &FacebookExtractor{f: f}
}

// Extract resolves a Facebook video URL. HD beats the Open Graph video,
// which beats SD.
func (fb *FacebookExtractor) Extract(ctx context.Context, sourceURL string) (*media.Extraction, error) {
	u, err := httputil.ParseSourceURL(sourceURL)
	if err != nil {
		return nil, media.ErrInvalidURL(sourceURL, "%v", err)
	}
	if strings.Trim(u.Path, "/") == "" {
		return nil, media.ErrInvalidURL(sourceURL, "not a Facebook video link")
	}

	p, err := fb.f.fetchPage(ctx, u.String())
	if err != nil {
		return nil, &media.UpstreamFetchError{Platform: media.Facebook, Err: err}
	}

	videoURL := p.inline(fbHDPatterns...)
	if videoURL == "" {
		videoURL = p.meta("og:video:secure_url", "og:video", "og:video:url")
	}
	if videoURL == "" {
		videoURL = p.inline(fbSDPatterns...)
	}
	if videoURL == "" {
		return nil, media.ErrUpstream(media.Facebook, "no video found on page")
	}

	return &media.Extraction{
		MediaURL: videoURL,
		FileName: titleFileName(p.meta("og:title")),
	}, nil
}

// titleFileName turns a post title into a file name hint.
func titleFileName(title string) string {
	if title == "" {
		return "facebook_video.mp4"
	}
	name := nonAlnumRe.ReplaceAllString(title, "_")
	if len(name) > 100 {
		name = name[:100]
	}
	return name + ".mp4"
}
