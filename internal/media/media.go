// Package media classifies lesson video URLs and decides which playback
// backend should handle them.  Everything in here is pure: same input, same
// output, no side effects.
package media

import (
	"regexp"
	"strings"
)

// Kind identifies which playback backend a URL should be handled by
type Kind string

const (
	// KindEmbedded is a video hosted on the embedded platform (YouTube)
	KindEmbedded Kind = "embedded"
	// KindDirectFile is a directly fetchable media file
	KindDirectFile Kind = "directfile"
	// KindUnknown is anything the player cannot handle
	KindUnknown Kind = "unknown"
)

// The recognised embedded platform URL shapes.  First matching pattern wins.
// Covers canonical watch links, short links and already-embedded links, all
// carrying an 11 character video identifier.
var embedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([A-Za-z0-9_-]{11})`),
}

// Extensions recognised as directly playable media files
var directFileExtensions = []string{".mp4", ".m4v", ".webm", ".mov", ".mkv"}

// ExtractVideoID extracts the embedded platform video identifier from a URL.
// Returns the empty string when no pattern matches.
func ExtractVideoID(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	for _, pattern := range embedPatterns {
		if match := pattern.FindStringSubmatch(url); match != nil {
			return match[1]
		}
	}

	return ""
}

// IsEmbeddedURL reports whether the URL points at the embedded platform
func IsEmbeddedURL(url string) bool {
	return ExtractVideoID(url) != ""
}

// IsDirectFileURL reports whether the URL ends in a recognised media file
// extension.  Matching is case-insensitive and ignores any query string or
// fragment.
func IsDirectFileURL(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}

	// Strip query and fragment before suffix matching
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}

	lowered := strings.ToLower(url)
	for _, ext := range directFileExtensions {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}

	return false
}

// Classify determines which playback backend should handle the URL.
// The embedded platform check runs first: a URL matching an embedded host
// pattern is embedded even if it also carries a media file extension.
func Classify(url string) Kind {
	if strings.TrimSpace(url) == "" {
		return KindUnknown
	}

	if IsEmbeddedURL(url) {
		return KindEmbedded
	}
	if IsDirectFileURL(url) {
		return KindDirectFile
	}

	return KindUnknown
}

// WatchURL returns the canonical embedded platform watch URL for a video
// identifier.  The embedded playback host resolves streams from it.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ResolveURL normalizes a direct file URL against the configured media origin:
// scheme-prefixed URLs are used as-is, paths under the media root get the
// origin prefixed, and bare names are treated as files under the media root.
func ResolveURL(origin, url string) string {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}

	if strings.HasPrefix(trimmed, "/media/") {
		return origin + trimmed
	}

	if !strings.HasPrefix(trimmed, "/") {
		return origin + "/media/" + trimmed
	}

	return trimmed
}
