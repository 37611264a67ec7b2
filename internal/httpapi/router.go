package httpapi

import "net/http"

// NewRouter wires the realtime endpoints. wsHandler is the optional
// websocket mirror of the snapshot stream.
func NewRouter(svc *Service, wsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/realtime", svc.handleRealtime)
	mux.HandleFunc("/api/state", svc.handleState)
	mux.HandleFunc("/healthz", handleHealthz)
	if wsHandler != nil {
		mux.Handle("/ws", wsHandler)
	}
	return mux
}
