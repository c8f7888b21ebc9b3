//go:build !windows

package ipc

import (
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
)

// listen opens the server transport: a Unix domain socket off Windows.
// Any stale socket file from a prior crashed run is removed first, the
// same "unlink before bind" idiom net.Listen itself doesn't do for you.
func listen(cfg transportConfig) (net.Listener, error) {
	if _, err := os.Stat(cfg.socketPath); err == nil {
		if err := os.Remove(cfg.socketPath); err != nil {
			return nil, errors.Wrapf(err, "ipc: removing stale socket %s", cfg.socketPath)
		}
	}
	return net.Listen("unix", cfg.socketPath)
}

// dial opens the client transport.
func dial(cfg transportConfig, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", cfg.socketPath, timeout)
}
