// Package ws mirrors the SSE snapshot stream over a websocket, for clients
// that cannot hold an event-stream response open.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mistakeknot/liveboard/internal/events"
	"github.com/mistakeknot/liveboard/internal/state"
)

const writeTimeout = 5 * time.Second

type Gateway struct {
	store *state.Store
	hub   *events.Hub
	log   *slog.Logger
}

func NewGateway(store *state.Store, hub *events.Hub) *Gateway {
	return &Gateway{store: store, hub: hub, log: slog.Default()}
}

func (g *Gateway) WithLogger(log *slog.Logger) *Gateway {
	if log != nil {
		g.log = log
	}
	return g
}

// Handler accepts a connection, sends the current snapshot, then one full
// snapshot per change signal until the peer goes away.
func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		signals, unsubscribe := g.hub.Subscribe()
		defer unsubscribe()

		// Drain client frames; the read error is how we learn the peer
		// disconnected.
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					return
				}
			}
		}()

		if err := g.writeSnapshot(ctx, conn); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-readDone:
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				if err := g.writeSnapshot(ctx, conn); err != nil {
					g.log.Debug("ws snapshot write failed", "error", err)
					return
				}
			}
		}
	}
}

func (g *Gateway) writeSnapshot(ctx context.Context, conn *websocket.Conn) error {
	snapshot, err := g.store.Read(ctx)
	if err != nil {
		g.log.Error("ws snapshot read failed", "error", err)
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, snapshot)
}
