// Package embedded provides an embeddable liveboard server for in-process
// use: tests, demos, and hosts that want the realtime board without running
// a separate binary.
package embedded

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mistakeknot/liveboard/internal/core"
	"github.com/mistakeknot/liveboard/internal/events"
	"github.com/mistakeknot/liveboard/internal/httpapi"
	"github.com/mistakeknot/liveboard/internal/state"
	"github.com/mistakeknot/liveboard/internal/storage"
	"github.com/mistakeknot/liveboard/internal/storage/sqlite"
	"github.com/mistakeknot/liveboard/internal/ws"
)

// Config configures the embedded server.
type Config struct {
	// DBPath backs the state with a SQLite file. Empty means in-memory:
	// state lives only as long as the process.
	DBPath string

	// Host to bind to. Defaults to 127.0.0.1.
	Host string

	// Port to listen on. 0 picks a free port.
	Port int

	// VoteOptions overrides the built-in poll. Nil keeps the default
	// three options.
	VoteOptions []core.VoteOption
}

// Server is an embedded liveboard server.
type Server struct {
	store   *state.Store
	kv      storage.KV
	hub     *events.Hub
	http    *http.Server
	ln      net.Listener
	mu      sync.Mutex
	started bool
}

func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}

	var kv storage.KV
	if cfg.DBPath != "" {
		slot, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite slot: %w", err)
		}
		kv = slot
	} else {
		kv = storage.NewInMemory()
	}

	hub := events.NewHub()
	store := state.New(kv, hub).WithVoteOptions(cfg.VoteOptions)
	svc := httpapi.NewService(store, hub)
	gateway := ws.NewGateway(store, hub)
	router := httpapi.NewRouter(svc, gateway.Handler())

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}

	return &Server{
		store: store,
		kv:    kv,
		hub:   hub,
		http:  &http.Server{Handler: router},
		ln:    ln,
	}, nil
}

// Start serves in a background goroutine. Safe to call once; later calls
// are no-ops.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.http.Serve(s.ln)
}

// Stop shuts the server down gracefully and closes the backing slot.
func (s *Server) Stop() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		s.ln.Close()
		return s.kv.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.http.Shutdown(ctx)
	if cerr := s.kv.Close(); err == nil {
		err = cerr
	}
	return err
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// URL returns the base URL for the server.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", s.Addr())
}

// Store exposes the state store for direct access if needed.
func (s *Server) Store() *state.Store {
	return s.store
}
