// Package server exposes a running widgetsched daemon over JSON-RPC 2.0,
// on plain HTTP POST and on WebSocket. Every method is read-only.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mzeryck/widgetsched/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Server owns the HTTP listener the RPC endpoints are served on.
type Server struct {
	log       logger.Logger
	rpc       *RPCServer
	port      int
	listenAll bool
	listen    func(network, address string) (net.Listener, error)

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewServer serves rpc on port, loopback only unless listenAll is set.
// Port 0 picks a free port; see Addr.
func NewServer(l logger.Logger, rpc *RPCServer, port int, listenAll bool) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Server{
		log:       l,
		rpc:       rpc,
		port:      port,
		listenAll: listenAll,
		listen:    net.Listen,
	}
}

func (s *Server) address() string {
	host := "127.0.0.1"
	if s.listenAll {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, s.port)
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	l, err := s.listen("tcp", s.address())
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.rpc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = l
	s.srv = srv
	s.mu.Unlock()
	s.log.Info("rpc: listening on %s", l.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	return s.Shutdown()
}

// Shutdown stops the listener and waits briefly for in-flight requests.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	s.rpc.Close()
	return err
}
