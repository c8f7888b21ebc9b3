//go:build windows

package ipc

import (
	"context"
	"net"
	"time"

	winio "github.com/Microsoft/go-winio"
)

// listen opens the server transport: a named pipe on Windows.
func listen(cfg transportConfig) (net.Listener, error) {
	return winio.ListenPipe(cfg.pipeName, &winio.PipeConfig{
		SecurityDescriptor: "",
		MessageMode:        false,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	})
}

// dial opens the client transport.
func dial(cfg transportConfig, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, cfg.pipeName)
}
