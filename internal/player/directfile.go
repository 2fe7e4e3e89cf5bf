package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/goccy/go-json"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/media"
)

// Property observation ids for the direct-file backend
const (
	propIDPause = iota + 1
	propIDDuration
	propIDPlaybackTime
)

// directFileBackend plays a directly fetchable media file in a dedicated
// player process, one per session.  It is event-driven: the player pushes
// property changes (position many times per second, duration once known,
// pause transitions) which are stored in the session's sample cell.  The
// session's reporting loop decides when anything leaves the process.
type directFileBackend struct {
	cfg        *config.Config
	session    *Session
	url        string
	ipc        *IPCClient
	cmd        *exec.Cmd
	socketPath string
}

func newDirectFileBackend(cfg *config.Config, s *Session) *directFileBackend {
	socketPath := SessionSocketPath()
	return &directFileBackend{
		cfg:        cfg,
		session:    s,
		url:        media.ResolveURL(cfg.API.MediaOrigin, s.media.URL),
		socketPath: socketPath,
		ipc:        NewIPCClient(socketPath),
	}
}

func (b *directFileBackend) start(ctx context.Context) error {
	log.Info("Starting direct file playback", "url", b.url)

	playerPath := b.cfg.Player.Path
	if playerPath == "" {
		playerPath = "mpv"
	}

	args := []string{
		"--no-terminal",                      // Disable terminal control
		"--keep-open=no",                     // Exit when playback is complete
		"--input-ipc-server=" + b.socketPath, // Set IPC socket path
	}

	// Add any additional configured arguments
	if b.cfg.Player.Args != "" {
		args = append(args, ParseArgs(b.cfg.Player.Args)...)
	}

	// The media URL is the final argument
	args = append(args, b.url)

	cmd := exec.Command(playerPath, args...)
	setupPlayerProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	b.cmd = cmd

	if err := releasePlayerProcess(cmd); err != nil {
		log.Warn("Failed to release player process", "error", err)
	}

	go b.monitor(ctx)

	return nil
}

// sample is a no-op: this backend is push-driven, the player delivers
// position updates as property-change events
func (b *directFileBackend) sample(ctx context.Context) {}

// monitor connects to the player and translates its event stream into sample
// cell writes and session lifecycle hooks
func (b *directFileBackend) monitor(ctx context.Context) {
	// Allow time for the player to create the socket
	time.Sleep(300 * time.Millisecond)

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := b.ipc.WaitForConnection(connCtx, 20, 500*time.Millisecond); err != nil {
		log.Error("Failed to connect to player", "error", err)
		b.session.fail("direct file failed to load")
		return
	}

	// Observe the properties making up the sample cell.  The player sends the
	// current value immediately, then every change.
	_ = b.ipc.ObserveProperty(propIDPause, "pause")
	_ = b.ipc.ObserveProperty(propIDDuration, "duration")
	_ = b.ipc.ObserveProperty(propIDPlaybackTime, "playback-time")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Context cancelled, stopping direct file monitoring")
			return
		case event, ok := <-b.ipc.Events():
			if !ok {
				log.Debug("Player event channel closed")
				b.session.dismissed()
				return
			}
			if !b.session.alive.Load() {
				return
			}

			switch event.Event {
			case "file-loaded":
				b.session.markReady()

			case "property-change":
				b.handlePropertyChange(event)

			case "end-file":
				switch event.Reason {
				case "", "eof":
					log.Info("Direct file playback ended")
					b.session.endOfMedia()
				case "error":
					// The player started fine but the file itself would not
					// load or play (bad URL, unsupported codec, 404)
					log.Error("Direct file playback failed", "url", b.url)
					b.session.fail("direct file failed to load")
				default:
					log.Info("Direct file playback stopped early", "reason", event.Reason)
					b.session.dismissed()
				}
				return
			}
		}
	}
}

func (b *directFileBackend) handlePropertyChange(event MPVEvent) {
	switch event.Name {
	case "duration":
		if d, err := parseFloat(event.Data); err == nil {
			if resume, ok := b.session.confirmDuration(d); ok {
				b.seekTo(resume)
			}
		}
	case "playback-time":
		if t, err := parseFloat(event.Data); err == nil {
			b.session.observeTime(t)
		}
	case "pause":
		if paused, err := parseBool(event.Data); err == nil {
			b.session.setPlaying(!paused)
		}
	}
}

// seekTo applies the one-time resume position.  The exactly-once guard lives
// in the session; this just issues the command.
func (b *directFileBackend) seekTo(position float64) {
	log.Info("Resuming playback from saved position", "position", position)
	if err := b.ipc.SendCommand([]interface{}{"set_property", "playback-time", position}); err != nil {
		log.Warn("Failed to apply resume position", "error", err)
	}
}

func (b *directFileBackend) stop() {
	_ = b.ipc.Close()

	if b.cmd != nil && b.cmd.Process != nil {
		log.Debug("Stopping direct file player process")
		_ = b.cmd.Process.Kill()
	}

	// Remove socket file if it exists (Unix only)
	if runtime.GOOS != "windows" {
		if _, err := os.Stat(b.socketPath); err == nil {
			if err := os.Remove(b.socketPath); err != nil {
				log.Warn("Failed to remove player socket file", "path", b.socketPath, "error", err)
			}
		}
	}
}

func parseFloat(data json.RawMessage) (float64, error) {
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return 0, err
	}
	return value, nil
}

func parseBool(data json.RawMessage) (bool, error) {
	var value bool
	if err := json.Unmarshal(data, &value); err != nil {
		return false, err
	}
	return value, nil
}
