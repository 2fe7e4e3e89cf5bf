//go:build !windows

package player

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer is a minimal IPC server speaking the player's line-delimited
// JSON protocol, answering requests and emitting scripted events
type fakePlayer struct {
	listener net.Listener
	received chan map[string]interface{}
	conns    chan net.Conn

	mu        sync.Mutex
	durations []float64
}

func newFakePlayer(t *testing.T) (*fakePlayer, string) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "player.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	p := &fakePlayer{
		listener: listener,
		received: make(chan map[string]interface{}, 16),
		conns:    make(chan net.Conn, 1),
	}
	t.Cleanup(func() { _ = listener.Close() })

	go p.serve()
	return p, socketPath
}

func (p *fakePlayer) serve() {
	conn, err := p.listener.Accept()
	if err != nil {
		return
	}
	p.conns <- conn

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		p.received <- msg

		// Answer correlated requests
		if reqID, ok := msg["request_id"].(float64); ok {
			cmd, _ := msg["command"].([]interface{})
			resp := map[string]interface{}{
				"request_id": int(reqID),
				"error":      "success",
			}
			if len(cmd) == 2 && cmd[0] == "get_property" {
				switch cmd[1] {
				case "duration":
					resp["data"] = p.nextDuration()
				case "pause":
					resp["data"] = false
				default:
					resp["error"] = "property unavailable"
				}
			}
			p.send(conn, resp)
		}
	}
}

// queueDurations scripts the next answers to duration queries.  Once the
// queue is drained the fake falls back to a fixed value.
func (p *fakePlayer) queueDurations(values ...float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.durations = append(p.durations, values...)
}

func (p *fakePlayer) nextDuration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.durations) == 0 {
		return 321.5
	}
	d := p.durations[0]
	p.durations = p.durations[1:]
	return d
}

func (p *fakePlayer) send(conn net.Conn, msg map[string]interface{}) {
	data, _ := json.Marshal(msg)
	data = append(data, '\n')
	_, _ = conn.Write(data)
}

// emit pushes an unsolicited event to the connected client
func (p *fakePlayer) emit(t *testing.T, msg map[string]interface{}) {
	t.Helper()
	select {
	case conn := <-p.conns:
		p.send(conn, msg)
		p.conns <- conn
	case <-time.After(2 * time.Second):
		t.Fatal("no client connected to fake player")
	}
}

func connectClient(t *testing.T, socketPath string) *IPCClient {
	t.Helper()

	client := NewIPCClient(socketPath)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.WaitForConnection(ctx, 10, 50*time.Millisecond))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRequestCorrelation(t *testing.T) {
	_, socketPath := newFakePlayer(t)
	client := connectClient(t, socketPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d, err := client.GetFloat(ctx, "duration")
	require.NoError(t, err)
	assert.Equal(t, 321.5, d)

	paused, err := client.GetBool(ctx, "pause")
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestRequestErrorResponse(t *testing.T) {
	_, socketPath := newFakePlayer(t)
	client := connectClient(t, socketPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.GetFloat(ctx, "no-such-property")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property unavailable")
}

func TestUnsolicitedEventsRouteToEventChannel(t *testing.T) {
	p, socketPath := newFakePlayer(t)
	client := connectClient(t, socketPath)

	p.emit(t, map[string]interface{}{"event": "file-loaded"})
	p.emit(t, map[string]interface{}{
		"event": "property-change",
		"id":    3,
		"name":  "playback-time",
		"data":  12.25,
	})

	select {
	case ev := <-client.Events():
		assert.Equal(t, "file-loaded", ev.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("expected file-loaded event")
	}

	select {
	case ev := <-client.Events():
		assert.Equal(t, "property-change", ev.Event)
		assert.Equal(t, "playback-time", ev.Name)
		v, err := parseFloat(ev.Data)
		require.NoError(t, err)
		assert.Equal(t, 12.25, v)
	case <-time.After(2 * time.Second):
		t.Fatal("expected property-change event")
	}
}

func TestObservePropertyWireShape(t *testing.T) {
	p, socketPath := newFakePlayer(t)
	client := connectClient(t, socketPath)

	require.NoError(t, client.ObserveProperty(7, "pause"))

	select {
	case msg := <-p.received:
		cmd, ok := msg["command"].([]interface{})
		require.True(t, ok)
		require.Len(t, cmd, 3)
		assert.Equal(t, "observe_property", cmd[0])
		assert.Equal(t, float64(7), cmd[1])
		assert.Equal(t, "pause", cmd[2])
	case <-time.After(2 * time.Second):
		t.Fatal("fake player did not receive command")
	}
}

func TestEventChannelClosesOnDisconnect(t *testing.T) {
	p, socketPath := newFakePlayer(t)
	client := connectClient(t, socketPath)

	_ = p.listener.Close()
	conn := <-p.conns
	_ = conn.Close()

	select {
	case _, ok := <-client.Events():
		assert.False(t, ok, "event channel should close when the player goes away")
	case <-time.After(2 * time.Second):
		t.Fatal("event channel did not close")
	}
}

func TestSessionSocketPathsAreUnique(t *testing.T) {
	a := SessionSocketPath()
	b := SessionSocketPath()
	assert.NotEqual(t, a, b)
}

func TestEmbedSocketPathHonorsOverride(t *testing.T) {
	assert.Equal(t, "/tmp/custom.sock", EmbedSocketPath("/tmp/custom.sock"))
	assert.NotEmpty(t, EmbedSocketPath(""))
}
