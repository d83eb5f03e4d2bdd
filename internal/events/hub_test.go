package events

import (
	"reflect"
	"testing"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
)

func TestEmitInSubscriptionOrder(t *testing.T) {
	hub := NewHub(logger.NewNop())
	var order []string

	hub.Subscribe(KindFileChanged, func(Payload) { order = append(order, "first") })
	hub.Subscribe(KindFileChanged, func(Payload) { order = append(order, "second") })
	hub.Subscribe(KindFileRead, func(Payload) { order = append(order, "wrong kind") })

	hub.Emit(KindFileChanged, Payload{"path": "a.md"})
	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestPayloadReachesSubscriber(t *testing.T) {
	hub := NewHub(logger.NewNop())
	var got Payload
	hub.Subscribe(KindActivityUpdated, func(p Payload) { got = p })

	hub.Emit(KindActivityUpdated, Payload{"path": "notes/a.md", "modifiedBy": "alice"})
	if got["path"] != "notes/a.md" || got["modifiedBy"] != "alice" {
		t.Fatalf("payload = %v", got)
	}
}

func TestDispose(t *testing.T) {
	hub := NewHub(logger.NewNop())
	calls := 0
	dispose := hub.Subscribe(KindFileChanged, func(Payload) { calls++ })

	hub.Emit(KindFileChanged, nil)
	dispose()
	dispose() // idempotent
	hub.Emit(KindFileChanged, nil)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestEmitWithNoSubscribers(t *testing.T) {
	hub := NewHub(logger.NewNop())
	hub.Emit(KindFileRead, Payload{"path": "a.md"}) // must not panic
}
