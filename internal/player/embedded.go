package player

import (
	"context"
	"time"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/media"
)

const (
	// minEmbedDuration rejects trivially short durations reported by the
	// embedded platform while a video is still resolving
	minEmbedDuration = 5.0
	// durationRetryDelay is how long to wait before the single duration re-check
	durationRetryDelay = time.Second
	// pollTimeout bounds each control API round trip
	pollTimeout = 2 * time.Second
)

// embeddedBackend plays an embedded platform video through the shared host.
// Unlike the direct-file backend it is poll-driven: the host's asynchronous
// control API is queried for play-state, position and duration on each
// sampling tick, and only lifecycle transitions (loaded, ended) arrive as
// events.
type embeddedBackend struct {
	cfg     *config.Config
	session *Session
	videoID string

	ctx       context.Context
	host      *EmbedHost
	sinkToken int

	// Overridable in tests
	retryDelay time.Duration
}

func newEmbeddedBackend(cfg *config.Config, s *Session, videoID string) *embeddedBackend {
	return &embeddedBackend{
		cfg:        cfg,
		session:    s,
		videoID:    videoID,
		retryDelay: durationRetryDelay,
	}
}

func (b *embeddedBackend) start(ctx context.Context) error {
	b.ctx = ctx
	go b.run(ctx)
	return nil
}

// run acquires the shared host and loads the video on it
func (b *embeddedBackend) run(ctx context.Context) {
	host, err := acquireEmbedHost(ctx, b.cfg)
	if err != nil {
		log.Error("Failed to acquire embedded playback host", "error", err)
		b.session.fail("embedded player failed to load")
		return
	}

	// The host may become ready after this session was already torn down
	if !b.session.alive.Load() {
		return
	}

	b.host = host
	b.sinkToken = host.SetEventSink(b.onHostEvent)

	url := media.WatchURL(b.videoID)
	log.Info("Loading embedded video", "video_id", b.videoID)

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := host.LoadVideo(loadCtx, url); err != nil {
		log.Error("Failed to load embedded video", "error", err)
		b.session.fail("embedded player failed to load")
		return
	}
}

// onHostEvent receives events from the shared host while this session owns it
func (b *embeddedBackend) onHostEvent(event MPVEvent) {
	// Guard against callbacks arriving after teardown
	if !b.session.alive.Load() {
		return
	}

	switch event.Event {
	case "file-loaded":
		// Resolve duration off the pump goroutine, it may need a retry delay
		go b.onLoaded(b.ctx)

	case "end-file":
		switch event.Reason {
		case "", "eof":
			log.Info("Embedded video playback ended")
			b.session.endOfMedia()
		case "error":
			// Stream resolution or playback failed after the host accepted
			// the load (age-restricted, region-locked, removed video)
			log.Error("Embedded video playback failed", "video_id", b.videoID)
			b.session.fail("embedded player failed to load")
		case "stop":
			// Our own teardown unloading the video
		default:
			log.Info("Embedded video playback stopped early", "reason", event.Reason)
			b.session.dismissed()
		}
	}
}

// onLoaded marks the session ready and resolves the duration, retrying once
// when the control API does not know it yet
func (b *embeddedBackend) onLoaded(ctx context.Context) {
	b.session.markReady()

	d := b.fetchDuration(ctx)
	if d < minEmbedDuration {
		// Duration may be unavailable right after load.  One bounded retry.
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryDelay):
		}
		d = b.fetchDuration(ctx)
	}

	if d < minEmbedDuration {
		// Fall back to the backend-supplied hint when the control API cannot
		// produce a meaningful duration
		if b.session.media.DurationHint >= minEmbedDuration {
			d = b.session.media.DurationHint
			log.Debug("Using duration hint for embedded video", "duration", d)
		} else {
			// Unknown duration: percentage reporting stays suppressed
			log.Warn("Embedded video duration unavailable or too short", "duration", d)
			return
		}
	}

	if resume, ok := b.session.confirmDuration(d); ok {
		log.Info("Resuming embedded playback from saved position", "position", resume)
		seekCtx, cancel := context.WithTimeout(ctx, pollTimeout)
		defer cancel()
		if err := b.host.Seek(seekCtx, resume); err != nil {
			log.Warn("Failed to apply resume position", "error", err)
		}
	}
}

func (b *embeddedBackend) fetchDuration(ctx context.Context) float64 {
	getCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	d, err := b.host.GetFloat(getCtx, "duration")
	if err != nil {
		log.Debug("Could not get embedded video duration", "error", err)
		return 0
	}
	return d
}

// sample polls the control API for the current play-state and position,
// refreshing the session's sample cell.  Runs synchronously on the session's
// reporting tick, so cell writes always precede the read that follows.
func (b *embeddedBackend) sample(ctx context.Context) {
	if b.host == nil || !b.session.alive.Load() {
		return
	}

	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	paused, err := b.host.GetBool(pollCtx, "pause")
	if err != nil {
		return
	}
	buffering, err := b.host.GetBool(pollCtx, "paused-for-cache")
	if err != nil {
		// Property not always available; absence means not buffering
		buffering = false
	}

	playing := !paused && !buffering
	b.session.setPlaying(playing)
	if !playing {
		return
	}

	if t, err := b.host.GetFloat(pollCtx, "playback-time"); err == nil {
		b.session.observeTime(t)
	}

	// Keep trying for a usable duration if load-time resolution failed
	b.session.mu.Lock()
	haveDuration := b.session.duration > 0
	b.session.mu.Unlock()

	if !haveDuration {
		if d := b.fetchDuration(pollCtx); d >= minEmbedDuration {
			if resume, ok := b.session.confirmDuration(d); ok {
				if err := b.host.Seek(pollCtx, resume); err != nil {
					log.Warn("Failed to apply resume position", "error", err)
				}
			}
		}
	}
}

// stop detaches from the shared host and unloads the video.  The host itself
// stays alive for the next session.
func (b *embeddedBackend) stop() {
	if b.host == nil {
		return
	}

	b.host.ClearEventSink(b.sinkToken)

	stopCtx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()
	if err := b.host.StopPlayback(stopCtx); err != nil {
		log.Debug("Failed to stop embedded playback", "error", err)
	}
}
