package extract

import (
	"testing"

	"playbook/internal/media"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want media.Platform
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", media.YouTube},
		{"https://youtu.be/dQw4w9WgXcQ", media.YouTube},
		{"https://m.youtube.com/watch?v=abc", media.YouTube},
		{"youtube.com/watch?v=abc", media.YouTube},
		{"https://www.instagram.com/reel/Cxyz123/", media.Instagram},
		{"http://instagram.com/p/abc", media.Instagram},
		{"https://www.facebook.com/watch/?v=123", media.Facebook},
		{"https://fb.watch/abcDEF/", media.Facebook},
		{"https://twitter.com/coach/status/123", media.X},
		{"https://x.com/coach/status/123", media.X},
		{"https://mobile.x.com/coach/status/123", media.X},
		{"https://netflix.com/title/1", media.Unsupported},
		{"https://vimeo.com/123", media.Unsupported},
		{"https://notyoutube.com/watch?v=abc", media.Unsupported},
		{"https://example.com/?next=youtube.com", media.Unsupported},
		{"", media.Unsupported},
		{"ftp://youtube.com/watch?v=abc", media.Unsupported},
		{"::not a url::", media.Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	urls := []string{"https://x.com/a/status/1", "https://vimeo.com/1", "youtu.be/abc"}
	for _, u := range urls {
		first := Classify(u)
		for i := 0; i < 10; i++ {
			if got := Classify(u); got != first {
				t.Fatalf("Classify(%q) changed from %v to %v", u, first, got)
			}
		}
	}
}
