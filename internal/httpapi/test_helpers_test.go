package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mistakeknot/liveboard/internal/core"
	"github.com/mistakeknot/liveboard/internal/events"
	"github.com/mistakeknot/liveboard/internal/state"
	"github.com/mistakeknot/liveboard/internal/storage"
)

// testEnv bundles a store + hub + httptest.Server for handler tests.
type testEnv struct {
	srv   *httptest.Server
	store *state.Store
	hub   *events.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := storage.NewInMemory()
	hub := events.NewHub()
	store := state.New(kv, hub)
	svc := NewService(store, hub)
	srv := httptest.NewServer(NewRouter(svc, nil))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store, hub: hub}
}

// postRaw sends a raw body to the action endpoint.
func (e *testEnv) postRaw(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.srv.URL+"/api/realtime", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func (e *testEnv) postAction(t *testing.T, action map[string]any) (core.State, int) {
	t.Helper()
	buf, err := json.Marshal(action)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(e.srv.URL+"/api/realtime", "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var snapshot core.State
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
	}
	return snapshot, resp.StatusCode
}

// sseClient consumes data frames from an open snapshot stream.
type sseClient struct {
	cancel context.CancelFunc
	frames chan core.State
}

func openStream(t *testing.T, baseURL string) *sseClient {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/realtime", nil)
	if err != nil {
		cancel()
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("open stream: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("unexpected cache control %q", cc)
	}

	c := &sseClient{cancel: cancel, frames: make(chan core.State, 16)}
	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
	})
	go func() {
		defer close(c.frames)
		br := bufio.NewReader(resp.Body)
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			if !strings.HasPrefix(line, "data: ") {
				continue // comment pings and blank separators
			}
			var snapshot core.State
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot); err != nil {
				return
			}
			c.frames <- snapshot
		}
	}()
	return c
}

func (c *sseClient) next(t *testing.T) core.State {
	t.Helper()
	select {
	case snapshot, ok := <-c.frames:
		if !ok {
			t.Fatal("stream closed unexpectedly")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return core.State{}
}
