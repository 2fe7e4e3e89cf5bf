package player

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/snowlatte/manabi/internal/log"
)

// IPCClient provides communication with a running mpv instance over its
// line-delimited JSON IPC protocol.  Unsolicited events flow out of Events();
// commands sent with Request are correlated to their responses by request id.
type IPCClient struct {
	socketPath string
	conn       net.Conn
	events     chan MPVEvent

	writeMu sync.Mutex

	reqMu         sync.Mutex
	nextRequestID int
	pending       map[int]chan MPVEvent
}

// MPVEvent represents a single message from mpv: either an unsolicited event
// or a response to a request
type MPVEvent struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewIPCClient creates a new mpv IPC client
func NewIPCClient(socketPath string) *IPCClient {
	return &IPCClient{
		socketPath:    socketPath,
		events:        make(chan MPVEvent, 100),
		nextRequestID: 1,
		pending:       make(map[int]chan MPVEvent),
	}
}

var socketSeq atomic.Int64

// SessionSocketPath returns a fresh per-session IPC path, so that every
// direct-file session talks to its own player process.
func SessionSocketPath() string {
	seq := socketSeq.Add(1)
	name := fmt.Sprintf("manabi-mpv-%d-%d", os.Getpid(), seq)

	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + name
	}

	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, name+".sock")
	}
	return filepath.Join(os.TempDir(), name+".sock")
}

// EmbedSocketPath returns the IPC path of the shared embedded playback host.
// There is exactly one per process unless overridden by configuration.
func EmbedSocketPath(configured string) string {
	if configured != "" {
		return configured
	}

	name := fmt.Sprintf("manabi-embed-%d", os.Getpid())
	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + name
	}
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, name+".sock")
	}
	return filepath.Join(os.TempDir(), name+".sock")
}

// WaitForConnection attempts to connect to mpv with retries
func (c *IPCClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for player to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check if socket file exists for unix sockets
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
				log.Debug("Player socket does not exist yet", "attempt", attempt, "path", c.socketPath)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					continue
				}
			}
		}

		// Try to connect
		err := c.Connect(ctx)
		if err == nil {
			log.Debug("Connected to player", "attempt", attempt)
			return nil
		}

		log.Debug("Failed to connect to player", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
			// Continue and retry
		}
	}

	return fmt.Errorf("failed to connect to player after %d attempts", maxAttempts)
}

// Close closes the connection to mpv
func (c *IPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// readEvents continuously reads messages from mpv, routing responses to their
// waiting request and everything else to the event channel
func (c *IPCClient) readEvents() {
	scanner := bufio.NewScanner(c.conn)
	// Some property payloads (track lists etc) exceed the default token size
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		log.Trace("Raw player message", "data", string(line))

		var event MPVEvent
		if err := json.Unmarshal(line, &event); err != nil {
			log.Error("Failed to unmarshal player message", "error", err)
			continue
		}

		// Responses carry the request id they answer
		if event.RequestID != 0 {
			c.reqMu.Lock()
			ch, ok := c.pending[event.RequestID]
			if ok {
				delete(c.pending, event.RequestID)
			}
			c.reqMu.Unlock()

			if ok {
				ch <- event
			} else {
				log.Debug("Response for unknown request id", "request_id", event.RequestID)
			}
			continue
		}

		c.events <- event
	}

	if err := scanner.Err(); err != nil {
		log.Error("Error reading from player socket", "error", err)
	}

	// Unblock any request still waiting for a response
	c.reqMu.Lock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- MPVEvent{Error: "connection closed"}
	}
	c.reqMu.Unlock()

	log.Debug("Player event reader stopped")
	close(c.events)
}

// Events returns the channel for unsolicited mpv events
func (c *IPCClient) Events() <-chan MPVEvent {
	return c.events
}

func (c *IPCClient) write(payload map[string]interface{}) error {
	if c.conn == nil {
		return fmt.Errorf("not connected to player")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// SendCommand sends a fire-and-forget command to mpv
func (c *IPCClient) SendCommand(cmd []interface{}) error {
	return c.write(map[string]interface{}{
		"command": cmd,
	})
}

// ObserveProperty starts observing an mpv property.  Changes arrive as
// property-change events on the event channel.
func (c *IPCClient) ObserveProperty(id int, name string) error {
	return c.SendCommand([]interface{}{"observe_property", id, name})
}

// Request sends a command and waits for the correlated response
func (c *IPCClient) Request(ctx context.Context, cmd ...interface{}) (json.RawMessage, error) {
	c.reqMu.Lock()
	id := c.nextRequestID
	c.nextRequestID++
	ch := make(chan MPVEvent, 1)
	c.pending[id] = ch
	c.reqMu.Unlock()

	err := c.write(map[string]interface{}{
		"command":    cmd,
		"request_id": id,
	})
	if err != nil {
		c.reqMu.Lock()
		delete(c.pending, id)
		c.reqMu.Unlock()
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.reqMu.Lock()
		delete(c.pending, id)
		c.reqMu.Unlock()
		return nil, ctx.Err()
	case resp := <-ch:
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("player command failed: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

// GetFloat queries a numeric mpv property
func (c *IPCClient) GetFloat(ctx context.Context, name string) (float64, error) {
	data, err := c.Request(ctx, "get_property", name)
	if err != nil {
		return 0, err
	}

	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return 0, fmt.Errorf("failed to parse property %s: %w", name, err)
	}
	return value, nil
}

// GetBool queries a boolean mpv property
func (c *IPCClient) GetBool(ctx context.Context, name string) (bool, error) {
	data, err := c.Request(ctx, "get_property", name)
	if err != nil {
		return false, err
	}

	var value bool
	if err := json.Unmarshal(data, &value); err != nil {
		return false, fmt.Errorf("failed to parse property %s: %w", name, err)
	}
	return value, nil
}
