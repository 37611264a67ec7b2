package client

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mistakeknot/liveboard/internal/events"
	"github.com/mistakeknot/liveboard/internal/httpapi"
	"github.com/mistakeknot/liveboard/internal/state"
	"github.com/mistakeknot/liveboard/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hub := events.NewHub()
	store := state.New(storage.NewInMemory(), hub)
	svc := httpapi.NewService(store, hub)
	srv := httptest.NewServer(httpapi.NewRouter(svc, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestActions(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	st, err := c.Increment(ctx)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if st.Counter.Count != 1 {
		t.Fatalf("expected 1, got %d", st.Counter.Count)
	}

	st, err = c.Decrement(ctx)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if st.Counter.Count != 0 {
		t.Fatalf("expected 0, got %d", st.Counter.Count)
	}

	st, err = c.Vote(ctx, "1")
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if st.Votes[0].Votes != 1 {
		t.Fatalf("expected vote on option 1, got %+v", st.Votes)
	}

	st, err = c.Chat(ctx, "Bob", "hello")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(st.ChatMessages) != 1 || st.ChatMessages[0].Message != "hello" {
		t.Fatalf("unexpected chat log %+v", st.ChatMessages)
	}

	st, err = c.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if st.Counter.Count != 0 {
		t.Fatalf("reset: %d", st.Counter.Count)
	}
}

func TestStateRead(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	if _, err := c.Increment(ctx); err != nil {
		t.Fatalf("increment: %v", err)
	}
	st, err := c.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Counter.Count != 1 {
		t.Fatalf("expected 1, got %d", st.Counter.Count)
	}
}

func TestStreamReceivesSnapshots(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []State
	streamDone := make(chan error, 1)
	firstFrame := make(chan struct{}, 1)
	go func() {
		streamDone <- c.Stream(ctx, func(s State) {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
			select {
			case firstFrame <- struct{}{}:
			default:
			}
		})
	}()

	select {
	case <-firstFrame:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial frame")
	}

	if _, err := c.Increment(ctx); err != nil {
		t.Fatalf("increment: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		last := State{}
		if n > 0 {
			last = got[n-1]
		}
		mu.Unlock()
		if n >= 2 && last.Counter.Count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("never saw increment frame, frames=%d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-streamDone:
		if err != nil {
			t.Fatalf("stream returned error on cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not exit on cancel")
	}
}
