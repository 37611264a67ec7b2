// Package state owns read-modify-write access to the persisted realtime
// state. No other package touches the backing slot directly.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mistakeknot/liveboard/internal/core"
	"github.com/mistakeknot/liveboard/internal/events"
	"github.com/mistakeknot/liveboard/internal/storage"
)

// Store serializes every mutation behind one mutex so concurrent actions
// can't lose updates, then persists the full blob and signals the hub once
// per successful mutation.
type Store struct {
	kv       storage.KV
	hub      *events.Hub
	log      *slog.Logger
	defaults core.State

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func New(kv storage.KV, hub *events.Hub) *Store {
	return &Store{
		kv:       kv,
		hub:      hub,
		log:      slog.Default(),
		defaults: core.DefaultState(nil),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithVoteOptions overrides the default poll used when the slot needs
// repair. Options only take effect on initialization; a persisted state
// keeps its own vote set.
func (s *Store) WithVoteOptions(options []core.VoteOption) *Store {
	s.defaults = core.DefaultState(options)
	return s
}

func (s *Store) WithLogger(log *slog.Logger) *Store {
	if log != nil {
		s.log = log
	}
	return s
}

// WithClock replaces the wall clock, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Read returns the current state, repairing and persisting defaults if the
// slot is empty, unparsable, or structurally incomplete. Parse failures are
// never surfaced to callers.
func (s *Store) Read(ctx context.Context) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (core.State, error) {
	raw, found, err := s.kv.Load(ctx)
	if err != nil {
		return core.State{}, fmt.Errorf("load state: %w", err)
	}

	var st core.State
	if found {
		if err := json.Unmarshal(raw, &st); err != nil {
			s.log.Warn("discarding corrupt state blob", "error", err)
			st = core.State{}
			found = false
		}
	}
	if !found {
		st = copyState(s.defaults)
		if err := s.persistLocked(ctx, st); err != nil {
			return core.State{}, err
		}
		return st, nil
	}
	if st.Normalize(s.defaults) {
		if err := s.persistLocked(ctx, st); err != nil {
			return core.State{}, err
		}
	}
	return st, nil
}

func (s *Store) persistLocked(ctx context.Context, st core.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.kv.Store(ctx, raw); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// mutate runs fn against the current state and persists the result. The hub
// is signalled exactly once, after the write succeeds.
func (s *Store) mutate(ctx context.Context, fn func(*core.State)) (core.State, error) {
	s.mu.Lock()
	st, err := s.loadLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		return core.State{}, err
	}
	fn(&st)
	if err := s.persistLocked(ctx, st); err != nil {
		s.mu.Unlock()
		return core.State{}, err
	}
	s.mu.Unlock()

	s.hub.Notify()
	return st, nil
}

func (s *Store) IncrementCounter(ctx context.Context) (core.State, error) {
	return s.mutate(ctx, func(st *core.State) {
		st.Counter = core.CounterState{Count: st.Counter.Count + 1, LastUpdated: s.now().UnixMilli()}
	})
}

func (s *Store) DecrementCounter(ctx context.Context) (core.State, error) {
	return s.mutate(ctx, func(st *core.State) {
		st.Counter = core.CounterState{Count: st.Counter.Count - 1, LastUpdated: s.now().UnixMilli()}
	})
}

func (s *Store) ResetCounter(ctx context.Context) (core.State, error) {
	return s.mutate(ctx, func(st *core.State) {
		st.Counter = core.CounterState{Count: 0, LastUpdated: s.now().UnixMilli()}
	})
}

func (s *Store) AddChatMessage(ctx context.Context, username, message string) (core.ChatMessage, error) {
	msg := core.ChatMessage{
		ID:        s.newID(),
		Username:  username,
		Message:   message,
		Timestamp: s.now().UnixMilli(),
	}
	_, err := s.mutate(ctx, func(st *core.State) {
		st.AppendChat(msg)
	})
	if err != nil {
		return core.ChatMessage{}, err
	}
	return msg, nil
}

// AddVote increments the counter of the matching option. An unknown
// optionID is a no-op: nothing is written, the hub is not signalled, and
// the current vote list is returned unchanged.
func (s *Store) AddVote(ctx context.Context, optionID string) ([]core.VoteOption, error) {
	s.mu.Lock()
	st, err := s.loadLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	idx := st.FindVote(optionID)
	if idx < 0 {
		s.mu.Unlock()
		return st.Votes, nil
	}
	st.Votes[idx].Votes++
	if err := s.persistLocked(ctx, st); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.hub.Notify()
	return st.Votes, nil
}

func copyState(st core.State) core.State {
	out := st
	out.ChatMessages = append([]core.ChatMessage{}, st.ChatMessages...)
	out.Votes = append([]core.VoteOption{}, st.Votes...)
	return out
}
