package player

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/log"
)

// EmbedHost is the process-wide embedded playback host: a single idle player
// process with stream resolution enabled, shared by every embedded session.
// It outlives individual sessions; sessions load and stop videos on it but
// never own it.
type EmbedHost struct {
	ipc        *IPCClient
	cmd        *exec.Cmd
	socketPath string

	mu        sync.Mutex
	sink      func(MPVEvent)
	sinkOwner int
	nextOwner int
}

// SetEventSink registers the current session as the receiver of host events
// and returns a token for ClearEventSink.  Only one session receives events
// at a time; registering replaces the previous sink.
func (h *EmbedHost) SetEventSink(sink func(MPVEvent)) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextOwner++
	h.sink = sink
	h.sinkOwner = h.nextOwner
	return h.sinkOwner
}

// ClearEventSink removes the sink, but only if it still belongs to the caller.
// A session tearing down must not detach a successor that already registered.
func (h *EmbedHost) ClearEventSink(token int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sinkOwner == token {
		h.sink = nil
	}
}

// pump fans host events out to whichever session is registered
func (h *EmbedHost) pump() {
	for event := range h.ipc.Events() {
		h.mu.Lock()
		sink := h.sink
		h.mu.Unlock()

		if sink != nil {
			sink(event)
		}
	}
	log.Debug("Embedded host event pump stopped")
}

// LoadVideo replaces whatever the host is playing with the given URL
func (h *EmbedHost) LoadVideo(ctx context.Context, url string) error {
	_, err := h.ipc.Request(ctx, "loadfile", url, "replace")
	return err
}

// StopPlayback unloads the current video, returning the host to idle
func (h *EmbedHost) StopPlayback(ctx context.Context) error {
	_, err := h.ipc.Request(ctx, "stop")
	return err
}

// Seek moves the playback position
func (h *EmbedHost) Seek(ctx context.Context, position float64) error {
	_, err := h.ipc.Request(ctx, "set_property", "playback-time", position)
	return err
}

// GetFloat queries a numeric player property
func (h *EmbedHost) GetFloat(ctx context.Context, name string) (float64, error) {
	return h.ipc.GetFloat(ctx, name)
}

// GetBool queries a boolean player property
func (h *EmbedHost) GetBool(ctx context.Context, name string) (bool, error) {
	return h.ipc.GetBool(ctx, name)
}

func (h *EmbedHost) shutdown() {
	_ = h.ipc.Close()
	if h.cmd != nil && h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
}

type hostResult struct {
	host *EmbedHost
	err  error
}

// hostLoader starts the shared embedded playback host at most once and
// notifies every waiting session exactly once when it is ready.  Multiple
// sessions arriving while the host is still starting all queue on the same
// load; none trigger a second process.
type hostLoader struct {
	mu      sync.Mutex
	loading bool
	host    *EmbedHost
	err     error
	waiters []chan hostResult
}

var embedLoader hostLoader

// acquireEmbedHost returns the shared embedded host, starting it on first use
func acquireEmbedHost(ctx context.Context, cfg *config.Config) (*EmbedHost, error) {
	embedLoader.mu.Lock()

	if embedLoader.host != nil {
		defer embedLoader.mu.Unlock()
		return embedLoader.host, nil
	}
	if embedLoader.err != nil {
		defer embedLoader.mu.Unlock()
		return nil, embedLoader.err
	}

	ch := make(chan hostResult, 1)
	embedLoader.waiters = append(embedLoader.waiters, ch)

	if !embedLoader.loading {
		embedLoader.loading = true
		go embedLoader.load(cfg)
	}
	embedLoader.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.host, res.err
	}
}

// load starts the host process and resolves all queued waiters once
func (l *hostLoader) load(cfg *config.Config) {
	host, err := startEmbedHost(cfg)

	l.mu.Lock()
	l.loading = false
	l.host = host
	l.err = err
	waiters := l.waiters
	l.waiters = nil
	l.mu.Unlock()

	for _, ch := range waiters {
		ch <- hostResult{host: host, err: err}
	}
}

func startEmbedHost(cfg *config.Config) (*EmbedHost, error) {
	socketPath := EmbedSocketPath(cfg.Player.EmbedSocket)

	playerPath := cfg.Player.Path
	if playerPath == "" {
		playerPath = "mpv"
	}

	log.Info("Starting shared embedded playback host", "socket", socketPath)

	args := []string{
		"--idle=yes", // Stay alive between videos
		"--no-terminal",
		"--keep-open=no",
		"--input-ipc-server=" + socketPath,
	}
	if cfg.Player.Args != "" {
		args = append(args, ParseArgs(cfg.Player.Args)...)
	}

	cmd := exec.Command(playerPath, args...)
	setupPlayerProcess(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded host: %w", err)
	}
	if err := releasePlayerProcess(cmd); err != nil {
		log.Warn("Failed to release embedded host process", "error", err)
	}

	ipc := NewIPCClient(socketPath)

	connCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ipc.WaitForConnection(connCtx, 20, 500*time.Millisecond); err != nil {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("failed to connect to embedded host: %w", err)
	}

	host := &EmbedHost{
		ipc:        ipc,
		cmd:        cmd,
		socketPath: socketPath,
	}
	go host.pump()

	return host, nil
}

// ShutdownEmbedHost stops the shared host process if it was ever started.
// Called once at application exit.
func ShutdownEmbedHost() {
	embedLoader.mu.Lock()
	host := embedLoader.host
	embedLoader.host = nil
	embedLoader.err = nil
	embedLoader.mu.Unlock()

	if host != nil {
		log.Info("Shutting down embedded playback host")
		host.shutdown()
	}
}
