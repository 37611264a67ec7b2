package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleStream pushes full-state snapshots down a long-lived SSE response:
// one frame on open, one per change signal, plus a comment ping every
// keepalive interval so idle intermediaries don't cut the connection.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	signals, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	if !s.pushSnapshot(w, r, flusher) {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				s.log.Debug("sse keepalive write failed", "error", err)
				return
			}
			flusher.Flush()
		case _, ok := <-signals:
			if !ok {
				return
			}
			if !s.pushSnapshot(w, r, flusher) {
				return
			}
		}
	}
}

// pushSnapshot re-reads the state and writes one data frame. It reports
// whether the stream is still usable; failures are logged, never fatal to
// the process.
func (s *Service) pushSnapshot(w http.ResponseWriter, r *http.Request, flusher http.Flusher) bool {
	snapshot, err := s.store.Read(r.Context())
	if err != nil {
		s.log.Error("sse snapshot read failed", "error", err)
		return false
	}
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Error("sse snapshot marshal failed", "error", err)
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", buf); err != nil {
		s.log.Debug("sse write failed", "error", err)
		return false
	}
	flusher.Flush()
	return true
}
