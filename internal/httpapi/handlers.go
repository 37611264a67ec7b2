package httpapi

import (
	"encoding/json"
	"net/http"
)

type actionRequest struct {
	Action   string `json:"action"`
	OptionID string `json:"optionId,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (s *Service) handleRealtime(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleStream(w, r)
	case http.MethodPost:
		s.handleAction(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAction dispatches one typed action against the store and responds
// with the resulting full snapshot. An action whose companion fields are
// missing, or an unknown action, mutates nothing but still returns the
// current snapshot.
func (s *Service) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	ctx := r.Context()
	var err error
	switch {
	case req.Action == "increment":
		_, err = s.store.IncrementCounter(ctx)
	case req.Action == "decrement":
		_, err = s.store.DecrementCounter(ctx)
	case req.Action == "reset":
		_, err = s.store.ResetCounter(ctx)
	case req.Action == "vote" && req.OptionID != "":
		_, err = s.store.AddVote(ctx, req.OptionID)
	case req.Action == "chat" && req.Username != "" && req.Message != "":
		_, err = s.store.AddChatMessage(ctx, req.Username, req.Message)
	default:
		// Silent no-op; snapshot is still returned.
	}
	if err != nil {
		s.log.Error("action failed", "action", req.Action, "error", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	snapshot, err := s.store.Read(ctx)
	if err != nil {
		s.log.Error("snapshot read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snapshot, err := s.store.Read(r.Context())
	if err != nil {
		s.log.Error("snapshot read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
