// Package events is the in-process fanout between services and UI-facing
// surfaces. Dispatch is synchronous and in subscription order per kind, so a
// handler observing "file-changed" sees state the emitter already committed.
package events

import (
	"sync"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
)

type Kind string

const (
	KindFileChanged     Kind = "file-changed"
	KindFileRead        Kind = "file-read"
	KindActivityUpdated Kind = "activity-updated"
)

// Payload is the event body; kinds document their own fields.
type Payload map[string]any

type subscriber struct {
	id uint64
	fn func(Payload)
}

type Hub struct {
	mu     sync.RWMutex
	log    *logger.Logger
	nextID uint64
	subs   map[Kind][]subscriber
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  log.With("component", "EventHub"),
		subs: make(map[Kind][]subscriber),
	}
}

// Subscribe registers fn for kind and returns a dispose func. Disposal is
// idempotent.
func (h *Hub) Subscribe(kind Kind, fn func(Payload)) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[kind] = append(h.subs[kind], subscriber{id: id, fn: fn})
	h.mu.Unlock()

	h.log.Debug("Event subscriber added", "kind", string(kind))
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subs[kind]
		for i, s := range subs {
			if s.id == id {
				h.subs[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every subscriber of kind, synchronously, in subscription order.
func (h *Hub) Emit(kind Kind, payload Payload) {
	h.mu.RLock()
	subs := make([]subscriber, len(h.subs[kind]))
	copy(subs, h.subs[kind])
	h.mu.RUnlock()

	for _, s := range subs {
		s.fn(payload)
	}
}
