package control

import (
	"context"
	"errors"
	"fmt"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const requestTimeout = 5 * time.Second

type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

// Server accepts control connections on a unix socket.
type Server struct {
	listener net.Listener
	handler  Handler
	log      *zap.SugaredLogger
}

// Listen creates the socket, replacing a stale one left by a previous run.
func Listen(path string, handler Handler, log *zap.SugaredLogger) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}

	if conn, err := net.Dial("unix", path); err == nil {
		conn.Close()
		return nil, fmt.Errorf("%s: another daemon is listening", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	return &Server{listener: listener, handler: handler, log: log}, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))

	var req Request
	if err := msgpack.NewDecoder(conn).Decode(&req); err != nil {
		s.log.Warnw("decode request", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	s.log.Debugw("control request", "command", req.Command, "args", req.Args)
	resp := s.handler.Handle(ctx, req)

	if err := msgpack.NewEncoder(conn).Encode(resp); err != nil {
		s.log.Warnw("encode response", "command", req.Command, "error", err)
	}
}

func (s *Server) Close() error {
	return s.listener.Close()
}
