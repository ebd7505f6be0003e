package extract

import (
	"playbook/internal/httputil"
	"playbook/internal/media"
)

var platformDomains = []struct {
	platform media.Platform
	domains  []string
}{
	{media.YouTube, []string{"youtube.com", "youtu.be"}},
	{media.Instagram, []string{"instagram.com"}},
	{media.Facebook, []string{"facebook.com", "fb.watch"}},
	{media.X, []string{"twitter.com", "x.com"}},
}

// Classify maps a URL to the platform that hosts it. Anything that does not
// parse, or whose host belongs to no known platform, is Unsupported.
func Classify(rawURL string) media.Platform {
	u, err := httputil.ParseSourceURL(rawURL)
	if err != nil {
		return media.Unsupported
	}
	host := u.Hostname()
	for _, pd := range platformDomains {
		for _, d := range pd.domains {
			if httputil.HostMatches(host, d) {
				return pd.platform
			}
		}
	}
	return media.Unsupported
}
