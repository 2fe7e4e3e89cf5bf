//go:build !windows

package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowlatte/manabi/internal/config"
)

// newEmbedTestBackend wires an embedded backend to a session and a fake
// player acting as the shared host
func newEmbedTestBackend(t *testing.T) (*embeddedBackend, *fakePlayer, *Session) {
	t.Helper()

	p, socketPath := newFakePlayer(t)
	client := connectClient(t, socketPath)

	s, _ := newTestSession(t)
	b := &embeddedBackend{
		cfg:        &config.Config{},
		session:    s,
		videoID:    "dQw4w9WgXcQ",
		host:       &EmbedHost{ipc: client},
		retryDelay: 10 * time.Millisecond,
	}
	return b, p, s
}

func TestEmbeddedDurationRetryResolvesOnSecondAttempt(t *testing.T) {
	b, p, s := newEmbedTestBackend(t)

	// First duration query answers below the floor, the retry gets the real
	// value once the stream has resolved
	p.queueDurations(3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.onLoaded(ctx)

	assert.Equal(t, StateReady, s.State())

	s.mu.Lock()
	d := s.duration
	s.mu.Unlock()
	assert.Equal(t, 321.5, d)
}

func TestEmbeddedDurationFallsBackToHint(t *testing.T) {
	b, p, s := newEmbedTestBackend(t)

	// Both attempts answer below the floor
	p.queueDurations(3, 3)
	s.media.DurationHint = 240

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.onLoaded(ctx)

	s.mu.Lock()
	d := s.duration
	s.mu.Unlock()
	assert.Equal(t, float64(240), d)
}

func TestEmbeddedResumeSeekAfterHintFallback(t *testing.T) {
	b, p, s := newEmbedTestBackend(t)

	p.queueDurations(2, 2)
	s.media.DurationHint = 240
	s.media.ResumePosition = 120

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.onLoaded(ctx)

	// The resume seek goes out over the host's control API
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-p.received:
			cmd, ok := msg["command"].([]interface{})
			if !ok || len(cmd) != 3 || cmd[0] != "set_property" {
				continue
			}
			assert.Equal(t, "playback-time", cmd[1])
			assert.Equal(t, float64(120), cmd[2])
			return
		case <-deadline:
			t.Fatal("host never received the resume seek")
		}
	}
}

func TestEmbeddedUnknownDurationSuppressesProgress(t *testing.T) {
	b, p, s := newEmbedTestBackend(t)

	// Below the floor on both attempts and no usable hint
	p.queueDurations(2, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.onLoaded(ctx)

	s.mu.Lock()
	d := s.duration
	s.mu.Unlock()
	assert.Equal(t, float64(0), d)

	// Without a duration the session observes time but never emits progress
	s.setPlaying(true)
	s.observeTime(42)
	s.maybeEmitProgress()

	events := drainEvents(s)
	require.Len(t, events, 1)
	assert.Equal(t, PlaybackReady, events[0].Type)
}

func TestEmbeddedEndFileRouting(t *testing.T) {
	t.Run("error fails the session", func(t *testing.T) {
		s, _ := newTestSession(t)
		b := &embeddedBackend{session: s, videoID: "dQw4w9WgXcQ"}

		b.onHostEvent(MPVEvent{Event: "end-file", Reason: "error"})

		events := drainEvents(s)
		require.Len(t, events, 1)
		assert.Equal(t, PlaybackError, events[0].Type)
		assert.EqualError(t, events[0].Err, "embedded player failed to load")
		assert.Equal(t, StateError, s.State())
	})

	t.Run("stop is ignored as own teardown", func(t *testing.T) {
		s, _ := newTestSession(t)
		b := &embeddedBackend{session: s, videoID: "dQw4w9WgXcQ"}

		b.onHostEvent(MPVEvent{Event: "end-file", Reason: "stop"})

		assert.Empty(t, drainEvents(s))
	})

	t.Run("quit dismisses without completion", func(t *testing.T) {
		s, _ := newTestSession(t)
		b := &embeddedBackend{session: s, videoID: "dQw4w9WgXcQ"}

		b.onHostEvent(MPVEvent{Event: "end-file", Reason: "quit"})

		events := drainEvents(s)
		require.Len(t, events, 1)
		assert.Equal(t, PlaybackClosed, events[0].Type)
	})
}
