// Package storage defines the backing slot that holds the serialized
// realtime state. The whole state lives under one well-known key; drivers
// live in subpackages.
package storage

import (
	"context"
	"sync"
)

// StateKey is the well-known key the serialized state blob lives under.
const StateKey = "liveboard:state"

// KV is a single-slot blob store. Load reports found=false when the slot is
// empty, which callers treat the same as a corrupt value: repair with
// defaults and write back.
type KV interface {
	Load(ctx context.Context) (value []byte, found bool, err error)
	Store(ctx context.Context, value []byte) error
	Close() error
}

// InMemory is a minimal in-memory slot for tests and the "memory" backend.
type InMemory struct {
	mu    sync.Mutex
	value []byte
	set   bool
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Load(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, false, nil
	}
	out := make([]byte, len(m.value))
	copy(out, m.value)
	return out, true, nil
}

func (m *InMemory) Store(ctx context.Context, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = append([]byte(nil), value...)
	m.set = true
	return nil
}

func (m *InMemory) Close() error { return nil }
