//go:build windows

package player

import (
	"context"
	"fmt"

	"gopkg.in/natefinch/npipe.v2"

	"github.com/snowlatte/manabi/internal/log"
)

// Connect establishes a connection with mpv over a Windows named pipe
func (c *IPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to Windows named pipe", "path", c.socketPath)

	conn, err := npipe.Dial(c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to player pipe: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
