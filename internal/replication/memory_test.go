package replication

import (
	"context"
	"testing"
	"time"
)

func TestMemoryFeedDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewMemoryFeed()
	got := make(chan Event, 3)
	if err := feed.StartForwarder(ctx, func(ev Event) { got <- ev }); err != nil {
		t.Fatalf("forwarder: %v", err)
	}

	for _, path := range []string{"a.md", "b.md", "c.md"} {
		if err := feed.Publish(ctx, Event{Path: path, ModifiedBy: "alice", Rev: "1-x"}); err != nil {
			t.Fatalf("publish %s: %v", path, err)
		}
	}

	for _, want := range []string{"a.md", "b.md", "c.md"} {
		select {
		case ev := <-got:
			if ev.Path != want {
				t.Fatalf("got %s, want %s", ev.Path, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestMemoryFeedClosed(t *testing.T) {
	feed := NewMemoryFeed()
	if err := feed.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := feed.Publish(context.Background(), Event{Path: "a.md"}); err == nil {
		t.Fatal("publish after close must fail")
	}
	if err := feed.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
}

func TestForwarderRequiresCallback(t *testing.T) {
	feed := NewMemoryFeed()
	if err := feed.StartForwarder(context.Background(), nil); err == nil {
		t.Fatal("nil callback must be rejected")
	}
}
