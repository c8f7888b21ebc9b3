package ipc

import (
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/joyshmitz/ultrasearch/internal/config"
)

// Client is a synchronous, single-connection IPC client for the debug CLI
// (spec §6's "CLI debug client").
type Client struct {
	cfg  config.IPCConfig
	conn net.Conn
}

// Dial opens a connection to the service's transport.
func Dial(cfg config.IPCConfig, timeout time.Duration) (*Client, error) {
	conn, err := dial(transportConfig{pipeName: cfg.PipeName, socketPath: cfg.SocketPath}, timeout)
	if err != nil {
		return nil, errors.Wrap(err, "ipc: dial")
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Search sends req and waits for the matching SearchResponse.
func (c *Client) Search(req SearchRequest) (SearchResponse, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if err := WriteFrame(c.conn, EncodeSearchRequest(req)); err != nil {
		return SearchResponse{}, err
	}
	frame, err := ReadFrame(c.conn, c.cfg.MaxFrameBytes)
	if err != nil {
		return SearchResponse{}, errors.Wrap(err, "ipc: reading search response")
	}
	msg, err := DecodeMessage(frame)
	if err != nil {
		return SearchResponse{}, err
	}
	if msg.Kind != MsgSearchResponse {
		return SearchResponse{}, errors.Errorf("ipc: expected SearchResponse, got kind %d", msg.Kind)
	}
	return *msg.SearchResponse, nil
}

// Status sends a StatusRequest and waits for the matching StatusResponse.
func (c *Client) Status() (StatusResponse, error) {
	req := StatusRequest{ID: uuid.New()}
	if err := WriteFrame(c.conn, EncodeStatusRequest(req)); err != nil {
		return StatusResponse{}, err
	}
	frame, err := ReadFrame(c.conn, c.cfg.MaxFrameBytes)
	if err != nil {
		return StatusResponse{}, errors.Wrap(err, "ipc: reading status response")
	}
	msg, err := DecodeMessage(frame)
	if err != nil {
		return StatusResponse{}, err
	}
	if msg.Kind != MsgStatusResponse {
		return StatusResponse{}, errors.Errorf("ipc: expected StatusResponse, got kind %d", msg.Kind)
	}
	return *msg.StatusResponse, nil
}
