// Package httpapi exposes the realtime state over HTTP: a typed action
// endpoint, an SSE snapshot stream, and a plain snapshot read.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mistakeknot/liveboard/internal/events"
	"github.com/mistakeknot/liveboard/internal/state"
)

const defaultKeepalive = 30 * time.Second

type Service struct {
	store     *state.Store
	hub       *events.Hub
	log       *slog.Logger
	keepalive time.Duration
}

func NewService(store *state.Store, hub *events.Hub) *Service {
	return &Service{
		store:     store,
		hub:       hub,
		log:       slog.Default(),
		keepalive: defaultKeepalive,
	}
}

func (s *Service) WithLogger(log *slog.Logger) *Service {
	if log != nil {
		s.log = log
	}
	return s
}

// WithKeepalive overrides the SSE ping interval, for tests.
func (s *Service) WithKeepalive(d time.Duration) *Service {
	if d > 0 {
		s.keepalive = d
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
