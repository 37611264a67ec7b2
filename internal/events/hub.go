// Package events provides the in-process change notifier that fans out
// "state changed" signals to stream publishers.
package events

import "sync"

// signalBuffer is per subscriber. Signals carry no payload: publishers
// re-read the full state on wakeup, so a dropped signal is healed by the
// next one.
const signalBuffer = 8

// Hub fans out change signals to subscribers. A slow subscriber drops
// signals rather than blocking the mutation that triggered Notify.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan struct{}
	nextID      uint64
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint64]chan struct{})}
}

// Subscribe registers a listener and returns its signal channel plus an
// idempotent unsubscribe function. The channel is closed on unsubscribe.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan struct{}, signalBuffer)
	h.subscribers[id] = ch
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

// Notify signals every currently-registered subscriber once. Never blocks.
func (h *Hub) Notify() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber is behind; it will re-read latest state anyway.
		}
	}
}

// Len reports the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
