package extract

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playbook/internal/media"
)

// platformServer stands in for every platform host. Requests for any host
// are routed to it and dispatched on Host + path.
type platformServer struct {
	srv    *httptest.Server
	routes map[string]http.HandlerFunc
	hits   atomic.Int32
}

func newPlatformServer(t *testing.T) *platformServer {
	t.Helper()
	ps := &platformServer{routes: map[string]http.HandlerFunc{}}
	ps.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		h, ok := ps.routes[r.Host+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *platformServer) handle(hostPath string, h http.HandlerFunc) {
	ps.routes[hostPath] = h
}

// client dials the test server whatever host the request names.
func (ps *platformServer) client() *http.Client {
	addr := ps.srv.Listener.Addr().String()
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // test server
			DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

func (ps *platformServer) registry() *Registry {
	return New(Options{
		Client:          ps.client(),
		RapidAPIKey:     "rapid-key",
		RapidAPIHost:    "yt.rapidapi.test",
		XAPIBase:        "https://api.vxtwitter.test",
		UnmatchedPolicy: "reject",
	})
}

func html(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func TestYouTubeExtract(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("yt.rapidapi.test/dl", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		assert.Equal(t, "rapid-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "yt.rapidapi.test", r.Header.Get("X-RapidAPI-Host"))
		jsonBody(`{"status":"OK","title":"Inside zone","formats":[
			{"url":"https://cdn.test/v.webm","mimeType":"video/webm"},
			{"url":"https://cdn.test/v.mp4","mimeType":"video/mp4; codecs=\"avc1\"","qualityLabel":"360p"}
		]}`)(w, r)
	})

	for _, src := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10",
		"https://youtu.be/dQw4w9WgXcQ",
	} {
		ex, err := ps.registry().Extract(context.Background(), src)
		require.NoError(t, err, src)
		assert.Equal(t, "https://cdn.test/v.mp4", ex.MediaURL)
		assert.True(t, ex.Remote())
	}
}

func TestYouTubeRequiresWatchOrShortLink(t *testing.T) {
	ps := newPlatformServer(t)

	_, err := ps.registry().Extract(context.Background(), "https://www.youtube.com/channel/UC123")

	var invalid *media.InvalidURLError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Zero(t, ps.hits.Load())
}

func TestUnmatchedFallbackDownloadsLinkDirectly(t *testing.T) {
	ps := newPlatformServer(t)
	reg := New(Options{
		Client:          ps.client(),
		RapidAPIKey:     "rapid-key",
		RapidAPIHost:    "yt.rapidapi.test",
		UnmatchedPolicy: "youtube",
	})

	tests := []struct {
		src      string
		mediaURL string
		fileName string
	}{
		{"https://vimeo.com/123", "https://vimeo.com/123", "123"},
		{"https://media.example.net/", "https://media.example.net/", "video.mp4"},
		{"https://cdn.example.com/clips/drill.webm", "https://cdn.example.com/clips/drill.webm", "drill.webm"},
		{"http://media.example.org/a/b.mov?sig=1", "https://media.example.org/a/b.mov?sig=1", "b.mov"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ex, err := reg.Extract(context.Background(), tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.mediaURL, ex.MediaURL)
			assert.Equal(t, tt.fileName, ex.FileName)
			assert.True(t, ex.Remote())
		})
	}
	assert.Zero(t, ps.hits.Load(), "direct links are not fetched during extraction")

	// Real YouTube links still go through the API.
	ps.handle("yt.rapidapi.test/dl", jsonBody(`{"status":"OK","formats":[{"url":"https://cdn.test/v.mp4","mimeType":"video/mp4"}]}`))
	ex, err := reg.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/v.mp4", ex.MediaURL)
	assert.Equal(t, int32(1), ps.hits.Load())
}

func TestYouTubeNoPlayableFormat(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("yt.rapidapi.test/dl", jsonBody(`{"status":"OK","formats":[]}`))

	_, err := ps.registry().Extract(context.Background(), "https://youtu.be/abc123")

	var upstream *media.UpstreamFetchError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Equal(t, media.YouTube, upstream.Platform)
}

func TestYouTubeMissingKey(t *testing.T) {
	reg := New(Options{RapidAPIHost: "yt.rapidapi.test"})

	_, err := reg.Extract(context.Background(), "https://youtu.be/abc123")

	var upstream *media.UpstreamFetchError
	assert.True(t, errors.As(err, &upstream), "got %v", err)
}

func TestInstagramOpenGraph(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("www.instagram.com/reel/Cxyz123/", html(`<html><head>
		<meta property="og:video" content="https://cdn.test/ig.mp4">
		<meta property="og:video:type" content="video/mp4">
	</head></html>`))

	ex, err := ps.registry().Extract(context.Background(), "https://www.instagram.com/reel/Cxyz123/?igsh=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/ig.mp4", ex.MediaURL)
	assert.Equal(t, "video/mp4", ex.ContentType)
}

func TestInstagramInlineFallback(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("www.instagram.com/p/Babc/", html(`<html><script>
		{"shortcode":"Babc","is_video":true,"video_url":"https:\/\/cdn.test\/inline.mp4?a=1&b=2"}
	</script></html>`))

	ex, err := ps.registry().Extract(context.Background(), "https://www.instagram.com/p/Babc/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/inline.mp4?a=1&b=2", ex.MediaURL)
}

func TestInstagramNoVideo(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("www.instagram.com/p/Bphoto/", html(`<html><head><meta property="og:image" content="x.jpg"></head></html>`))

	_, err := ps.registry().Extract(context.Background(), "https://www.instagram.com/p/Bphoto/")

	var upstream *media.UpstreamFetchError
	assert.True(t, errors.As(err, &upstream), "got %v", err)
}

func TestInstagramProfileRejected(t *testing.T) {
	ps := newPlatformServer(t)

	_, err := ps.registry().Extract(context.Background(), "https://www.instagram.com/coach_smith/")

	var invalid *media.InvalidURLError
	assert.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Zero(t, ps.hits.Load())
}

func TestFacebookPrefersHD(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("www.facebook.com/watch/", html(`<html><head>
		<meta property="og:title" content="Trips Right: Power!">
		<meta property="og:video" content="https://cdn.test/og.mp4">
	</head><body><script>
		{"browser_native_sd_url":"https:\/\/cdn.test\/sd.mp4","browser_native_hd_url":"https:\/\/cdn.test\/hd.mp4"}
	</script></body></html>`))

	ex, err := ps.registry().Extract(context.Background(), "https://www.facebook.com/watch/?v=123")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/hd.mp4", ex.MediaURL)
	assert.Equal(t, "Trips_Right__Power_.mp4", ex.FileName)
}

func TestFacebookSDFallback(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("fb.watch/abc/", html(`<script>{sd_src:"https:\/\/cdn.test\/sd.mp4"}</script>`))

	ex, err := ps.registry().Extract(context.Background(), "https://fb.watch/abc/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/sd.mp4", ex.MediaURL)
	assert.Equal(t, "facebook_video.mp4", ex.FileName)
}

func TestFacebookUpstreamStatus(t *testing.T) {
	ps := newPlatformServer(t)

	_, err := ps.registry().Extract(context.Background(), "https://www.facebook.com/missing/videos/1")

	var upstream *media.UpstreamFetchError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Equal(t, media.Facebook, upstream.Platform)
}

func TestXExtract(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("api.vxtwitter.test/coach/status/1790000000000000000", jsonBody(`{
		"tweetID":"1790000000000000000",
		"media_extended":[{"type":"video","url":"https://video.test/x.mp4"}]
	}`))

	ex, err := ps.registry().Extract(context.Background(), "https://x.com/coach/status/1790000000000000000?s=20")
	require.NoError(t, err)
	assert.Equal(t, "https://video.test/x.mp4", ex.MediaURL)
	assert.Equal(t, "x_1790000000000000000.mp4", ex.FileName)
}

func TestXFirstMediaMustBeVideo(t *testing.T) {
	ps := newPlatformServer(t)
	ps.handle("api.vxtwitter.test/coach/status/42", jsonBody(`{
		"media_extended":[{"type":"image","url":"https://img.test/a.jpg"},{"type":"video","url":"https://video.test/x.mp4"}]
	}`))

	_, err := ps.registry().Extract(context.Background(), "https://twitter.com/coach/status/42")

	var upstream *media.UpstreamFetchError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Equal(t, media.X, upstream.Platform)
}

func TestXInvalidStatusURL(t *testing.T) {
	ps := newPlatformServer(t)

	for _, src := range []string{
		"https://x.com/coach",
		"https://x.com/coach/status/abc",
		"https://x.com/coach/likes/1",
	} {
		_, err := ps.registry().Extract(context.Background(), src)
		var invalid *media.InvalidURLError
		assert.True(t, errors.As(err, &invalid), "%s: got %v", src, err)
	}
	assert.Zero(t, ps.hits.Load())
}
