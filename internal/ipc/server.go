package ipc

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/joyshmitz/ultrasearch/internal/config"
	"github.com/joyshmitz/ultrasearch/internal/logging"
)

var log = logging.For("ipc-server")

// SearchHandler answers a SearchRequest. It should respect ctx and return
// whatever hits it has (with Truncated set) if ctx is cancelled first.
type SearchHandler func(ctx context.Context, req SearchRequest) (SearchResponse, error)

// StatusHandler answers a StatusRequest.
type StatusHandler func(ctx context.Context, req StatusRequest) (StatusResponse, error)

type transportConfig struct {
	pipeName   string
	socketPath string
}

// Server dispatches SearchRequest/StatusRequest frames to handlers over the
// platform transport, enforcing a bounded in-flight request count and
// per-request timeouts (spec §4.12).
type Server struct {
	cfg    config.IPCConfig
	search SearchHandler
	status StatusHandler

	inFlight chan struct{}

	mu       sync.Mutex
	listener net.Listener
}

// NewServer builds a Server. Either handler may be nil if that request type
// is never expected to arrive (tests commonly only wire one).
func NewServer(cfg config.IPCConfig, search SearchHandler, status StatusHandler) *Server {
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 64
	}
	return &Server{
		cfg:      cfg,
		search:   search,
		status:   status,
		inFlight: make(chan struct{}, depth),
	}
}

// Serve accepts connections until ctx is cancelled, closing the listener on
// cancellation so the Accept loop unblocks and returns.
func (s *Server) Serve(ctx context.Context) error {
	l, err := listen(transportConfig{pipeName: s.cfg.PipeName, socketPath: s.cfg.SocketPath})
	if err != nil {
		return errors.Wrap(err, "ipc: opening listener")
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := l.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "ipc: accept")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// Close closes the listener directly, for callers not driving Serve via a
// cancellable context (tests mostly).
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	var writeMu sync.Mutex

	for {
		frame, err := ReadFrame(conn, s.cfg.MaxFrameBytes)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).Debug("ipc: connection reset on malformed frame")
			}
			return
		}

		msg, err := DecodeMessage(frame)
		if err != nil {
			log.WithError(err).Debug("ipc: connection reset on undecodable frame")
			return
		}

		select {
		case s.inFlight <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-s.inFlight }()
			resp := s.dispatch(ctx, msg)
			if resp == nil {
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := WriteFrame(conn, resp); err != nil {
				log.WithError(err).Debug("ipc: failed writing response frame")
			}
		}()
	}
}

func (s *Server) dispatch(ctx context.Context, msg Message) []byte {
	switch msg.Kind {
	case MsgSearchRequest:
		return s.dispatchSearch(ctx, *msg.SearchRequest)
	case MsgStatusRequest:
		return s.dispatchStatus(ctx, *msg.StatusRequest)
	default:
		log.WithField("kind", msg.Kind).Warn("ipc: unexpected message kind from client")
		return nil
	}
}

func (s *Server) dispatchSearch(ctx context.Context, req SearchRequest) []byte {
	start := time.Now()
	if s.search == nil {
		return EncodeSearchResponse(SearchResponse{ID: req.ID, Truncated: true})
	}

	type result struct {
		resp SearchResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.search(ctx, req)
		done <- result{resp, err}
	}()

	var timeoutCh <-chan time.Time
	if req.HasTimeout {
		timer := time.NewTimer(time.Duration(req.TimeoutMS) * time.Millisecond)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case r := <-done:
		if r.err != nil {
			log.WithError(r.err).WithField("id", req.ID).Warn("ipc: search handler failed")
			return EncodeSearchResponse(SearchResponse{ID: req.ID, Truncated: true, TookMS: elapsedMS(start)})
		}
		r.resp.ID = req.ID
		r.resp.TookMS = elapsedMS(start)
		return EncodeSearchResponse(r.resp)
	case <-timeoutCh:
		// The handler goroutine keeps running and will deliver into done's
		// one-slot buffer without blocking; nothing ever reads it again.
		return EncodeSearchResponse(SearchResponse{ID: req.ID, Truncated: true, TookMS: elapsedMS(start)})
	case <-ctx.Done():
		return nil
	}
}

func (s *Server) dispatchStatus(ctx context.Context, req StatusRequest) []byte {
	if s.status == nil {
		return EncodeStatusResponse(StatusResponse{ID: req.ID, SchedulerState: "unknown"})
	}
	resp, err := s.status(ctx, req)
	if err != nil {
		log.WithError(err).WithField("id", req.ID).Warn("ipc: status handler failed")
		return EncodeStatusResponse(StatusResponse{ID: req.ID, SchedulerState: "error"})
	}
	resp.ID = req.ID
	return EncodeStatusResponse(resp)
}

func elapsedMS(start time.Time) uint64 {
	return uint64(time.Since(start) / time.Millisecond)
}
