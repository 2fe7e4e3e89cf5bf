//go:build !windows

package player

import (
	"context"
	"fmt"
	"net"

	"github.com/snowlatte/manabi/internal/log"
)

// Connect establishes a connection with mpv over a Unix domain socket
func (c *IPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to Unix socket", "path", c.socketPath)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to player socket: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
