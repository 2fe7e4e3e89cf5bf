package player

import (
	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/media"
)

// newBackend creates the playback backend matching the session's media kind.
// The kind decides the backend once, at construction; nothing re-dispatches
// mid-session.
func newBackend(cfg *config.Config, s *Session) (backend, error) {
	switch s.kind {
	case media.KindDirectFile:
		return newDirectFileBackend(cfg, s), nil

	case media.KindEmbedded:
		videoID := media.ExtractVideoID(s.media.URL)
		if videoID == "" {
			log.Warn("Embedded URL without extractable video id", "url", s.media.URL)
			return nil, ErrUnsupportedMedia
		}
		return newEmbeddedBackend(cfg, s, videoID), nil

	default:
		return nil, ErrUnsupportedMedia
	}
}
