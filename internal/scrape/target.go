package scrape

import (
	"fmt"
	"strings"
)

// ContentType identifies which extraction strategy applies to a target URL.
type ContentType string

const (
	TypePost  ContentType = "POST"
	TypeReel  ContentType = "REEL"
	TypeWatch ContentType = "WATCH"
)

// Target is one URL queued for extraction, with its derived content type.
// Immutable once classified.
type Target struct {
	URL  string
	Type ContentType
}

var watchPatterns = []string{"/watch/", "watch?v=", "/video/", "/videos/", "/live/", "/media/"}
var reelPatterns = []string{"/reel/", "/reels/"}
var postPatterns = []string{"/posts/", "/permalink", "story.php", "/photo", "/photos/", "/groups/"}

// ClassifyURL maps a URL shape to a Target. Unrecognized shapes fail with
// ErrUnsupportedContentType and are skipped per target, never guessed.
func ClassifyURL(rawURL string) (Target, error) {
	lower := strings.ToLower(rawURL)

	match := func(patterns []string) bool {
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}

	switch {
	case match(watchPatterns):
		return Target{URL: rawURL, Type: TypeWatch}, nil
	case match(reelPatterns):
		return Target{URL: rawURL, Type: TypeReel}, nil
	case match(postPatterns):
		return Target{URL: rawURL, Type: TypePost}, nil
	}

	return Target{}, fmt.Errorf("%w: %s", ErrUnsupportedContentType, rawURL)
}
