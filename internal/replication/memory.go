package replication

import (
	"context"
	"fmt"
	"sync"
)

type memoryFeed struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

// NewMemoryFeed returns a single-process Feed. Used by tests and local
// development without a broker.
func NewMemoryFeed() Feed {
	return &memoryFeed{events: make(chan Event, 256)}
}

func (f *memoryFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("replication feed closed")
	}
	select {
	case f.events <- ev:
		return nil
	default:
		return fmt.Errorf("replication feed full")
	}
}

func (f *memoryFeed) StartForwarder(ctx context.Context, onEvent func(ev Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-f.events:
				if !ok {
					return
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (f *memoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}
