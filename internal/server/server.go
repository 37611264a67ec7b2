// Package server owns HTTP listener lifecycle: a TCP listener, an optional
// unix socket serving the same handler, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

type Config struct {
	Addr       string
	SocketPath string
	Handler    http.Handler
}

type Server struct {
	cfg    Config
	http   *http.Server
	unix   *http.Server
	unixLn net.Listener
}

func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("addr required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("handler required")
	}
	s := &Server{
		cfg:  cfg,
		http: &http.Server{Addr: cfg.Addr, Handler: cfg.Handler},
	}

	if cfg.SocketPath != "" {
		// Remove stale socket file from previous run
		if err := os.Remove(cfg.SocketPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
		ln, err := net.Listen("unix", cfg.SocketPath)
		if err != nil {
			return nil, fmt.Errorf("unix listen: %w", err)
		}
		if err := os.Chmod(cfg.SocketPath, 0660); err != nil {
			ln.Close()
			return nil, fmt.Errorf("chmod socket: %w", err)
		}
		s.unixLn = ln
		s.unix = &http.Server{Handler: cfg.Handler}
	}

	return s, nil
}

// Start blocks until the TCP listener stops. ErrServerClosed from a graceful
// shutdown is not an error.
func (s *Server) Start() error {
	if s.unixLn != nil {
		go s.unix.Serve(s.unixLn)
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error

	if s.unix != nil {
		if err := s.unix.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.cfg.SocketPath != "" {
		os.Remove(s.cfg.SocketPath)
	}

	if err := s.http.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
