//go:build !windows

package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/snowlatte/manabi/internal/config"
)

// startDirectFileMonitor runs a direct-file backend's monitor loop against a
// fake player and waits for the initial property observations, so tests know
// the monitor is connected before scripting events
func startDirectFileMonitor(t *testing.T) (*fakePlayer, *Session) {
	t.Helper()

	p, socketPath := newFakePlayer(t)
	s, _ := newTestSession(t)
	b := &directFileBackend{
		cfg:        &config.Config{},
		session:    s,
		url:        "http://127.0.0.1:8000/media/lesson-01.mp4",
		socketPath: socketPath,
		ipc:        NewIPCClient(socketPath),
	}
	t.Cleanup(func() { _ = b.ipc.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	go b.monitor(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-p.received:
		case <-time.After(5 * time.Second):
			t.Fatal("monitor never observed player properties")
		}
	}
	return p, s
}

func waitForEvent(t *testing.T, s *Session) PlaybackEvent {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected a playback event")
		return PlaybackEvent{}
	}
}

func TestDirectFilePlaybackErrorFailsSession(t *testing.T) {
	p, s := startDirectFileMonitor(t)

	// The player started fine but the file itself failed to play
	p.emit(t, map[string]interface{}{"event": "end-file", "reason": "error"})

	ev := waitForEvent(t, s)
	assert.Equal(t, PlaybackError, ev.Type)
	assert.EqualError(t, ev.Err, "direct file failed to load")
	assert.Equal(t, StateError, s.State())
}

func TestDirectFileQuitDismissesSession(t *testing.T) {
	p, s := startDirectFileMonitor(t)

	p.emit(t, map[string]interface{}{"event": "end-file", "reason": "quit"})

	ev := waitForEvent(t, s)
	assert.Equal(t, PlaybackClosed, ev.Type)
}
