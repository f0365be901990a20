// Package wsfanout is the in-process event bus backing the websocket push
// channel of spec.md §6. It defines the events the channel carries and a
// subscribe/publish hub, grounded on the teacher's plugin event hub
// (server/plugin/api.go), plus a minimal websocket upgrade and
// per-connection write loop (Hub.ServeHTTP in transport.go).
package wsfanout

import (
	"log/slog"
	"sync"
)

// Event is one message pushed to websocket clients. Type discriminates the
// payload the way spec.md §6 describes: clients MUST ignore unknown types.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Payload   any    `json:"-"`
}

// Hub fans out Events to subscribers. Subscribe/Unsubscribe are safe to call
// concurrently with Publish.
type Hub struct {
	log *slog.Logger

	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewHub constructs an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{log: log, subs: make(map[int]chan Event)}
}

// Subscribe registers a new listener and returns its event channel plus an
// unsubscribe closure. The channel is buffered (64 events); once it is full,
// Publish drops each new event for that subscriber rather than blocking.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan Event, 64)
	h.subs[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
		h.mu.Unlock()
	}
}

// Publish delivers ev to every current subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("wsfanout: subscriber backlogged, dropping event", "subscriber", id, "type", ev.Type)
		}
	}
}
