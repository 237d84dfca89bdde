package notifier

import (
	"context"
	"sync"
)

// Hub fans messages out to in-process subscribers (the SSE stream endpoint).
// Delivery is best-effort: a subscriber whose channel is full misses the
// message rather than blocking the dispatcher.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan *Message
	nextID int
	closed bool
}

// NewHub creates a subscriber hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan *Message)}
}

// Name returns "hub".
func (h *Hub) Name() string {
	return "hub"
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function.
func (h *Hub) Subscribe() (<-chan *Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan *Message, 8)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Send delivers the message to every subscriber without blocking.
func (h *Hub) Send(_ context.Context, msg *Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			// Slow subscriber, drop.
		}
	}
	return nil
}

// Close closes all subscriber channels.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	return nil
}
