package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"playbook/internal/httputil"
)

// maxPageBytes caps how much of a post page is read.
const maxPageBytes = 5 * 1024 * 1024

// fetcher performs the outbound requests shared by the extractors.
type fetcher struct {
	client    *http.Client
	userAgent string
}

// page is a fetched HTML document together with its raw markup, which the
// inline-JSON fallbacks search.
type page struct {
	doc *goquery.Document
	raw string
}

// fetchPage fetches an HTML page with browser-like headers.
func (f *fetcher) fetchPage(ctx context.Context, pageURL string) (*page, error) {
	req, err := httputil.NewRequest(ctx, pageURL, f.userAgent,
		"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, req.URL.Host)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return &page{doc: doc, raw: string(body)}, nil
}

// fetchJSON fetches a JSON endpoint and decodes it into v.
func (f *fetcher) fetchJSON(ctx context.Context, apiURL string, headers map[string]string, v interface{}) error {
	body, err := httputil.GetJSON(ctx, f.client, apiURL, f.userAgent, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// meta returns the content of the first matching <meta property=...> tag.
func (p *page) meta(properties ...string) string {
	for _, prop := range properties {
		sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, prop, prop)
		if v, ok := p.doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// inline returns the first capture of the first pattern that matches the raw
// markup, decoded as a JSON string literal.
func (p *page) inline(patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(p.raw)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		if s := unescapeJSONString(m[1]); s != "" {
			return s
		}
	}
	return ""
}

// unescapeJSONString decodes the body of a JSON string literal such as
// `https:\/\/cdn/v.mp4`. Malformed input yields "".
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return ""
	}
	return out
}
