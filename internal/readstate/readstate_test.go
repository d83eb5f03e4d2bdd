package readstate

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwave/teamsync-backend/internal/kvstore"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
)

func newManager() *Manager {
	return NewManager(kvstore.NewMemory(), logger.NewNop())
}

func TestUnreadWhenNoState(t *testing.T) {
	m := newManager()
	if !m.IsUnread(context.Background(), "notes/test.md", "2-abc123") {
		t.Fatal("file with no read state must report unread")
	}
}

func TestMarkAsRead(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	if err := m.MarkAsRead(ctx, "notes/test.md", "2-abc123"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if m.IsUnread(ctx, "notes/test.md", "2-abc123") {
		t.Fatal("file must be read at the marked revision")
	}
	if !m.IsUnread(ctx, "notes/test.md", "3-def456") {
		t.Fatal("file must be unread once the revision changes")
	}
}

func TestGetReadState(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	state, err := m.GetReadState(ctx, "notes/test.md")
	if err != nil || state != nil {
		t.Fatalf("GetReadState before mark = (%v, %v), want (nil, nil)", state, err)
	}

	if err := m.MarkAsRead(ctx, "notes/test.md", "5-xyz"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	state, err = m.GetReadState(ctx, "notes/test.md")
	if err != nil {
		t.Fatalf("GetReadState: %v", err)
	}
	if state == nil || state.LastSeenRev != "5-xyz" {
		t.Fatalf("state = %+v, want lastSeenRev 5-xyz", state)
	}
	if state.LastSeenAt.IsZero() {
		t.Fatal("lastSeenAt must be stamped")
	}
}

func TestClearReadState(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	if err := m.MarkAsRead(ctx, "notes/test.md", "5-xyz"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if err := m.ClearReadState(ctx, "notes/test.md"); err != nil {
		t.Fatalf("ClearReadState: %v", err)
	}
	state, err := m.GetReadState(ctx, "notes/test.md")
	if err != nil || state != nil {
		t.Fatalf("state after clear = (%v, %v), want (nil, nil)", state, err)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("storage offline")
}
func (failingStore) Set(context.Context, string, any) error   { return errors.New("storage offline") }
func (failingStore) Delete(context.Context, string) error     { return errors.New("storage offline") }

func TestLookupFailureDefaultsToUnread(t *testing.T) {
	m := NewManager(failingStore{}, logger.NewNop())
	if !m.IsUnread(context.Background(), "notes/test.md", "1-a") {
		t.Fatal("lookup failure must default to unread")
	}
	if err := m.MarkAsRead(context.Background(), "notes/test.md", "1-a"); err == nil {
		t.Fatal("write failure must surface to the caller")
	}
}
