package docstore

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
)

type testDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	Content string `json:"content"`
}

func TestMemoryPutBumpsRevisions(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	rev1, err := store.Put(ctx, testDoc{ID: "doc:a", Content: "first"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if rev1 != "1-mem" {
		t.Fatalf("rev1 = %q, want 1-mem", rev1)
	}

	rev2, err := store.Put(ctx, testDoc{ID: "doc:a", Rev: rev1, Content: "second"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rev2 == rev1 {
		t.Fatal("revision must change on update")
	}

	var got testDoc
	ok, err := store.Get(ctx, "doc:a", &got)
	if err != nil || !ok {
		t.Fatalf("get = (%v, %v)", ok, err)
	}
	if got.Content != "second" || got.Rev != rev2 {
		t.Fatalf("got %+v, want latest content at rev %s", got, rev2)
	}
}

func TestMemoryPutConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	rev1, _ := store.Put(ctx, testDoc{ID: "doc:a", Content: "first"})
	if _, err := store.Put(ctx, testDoc{ID: "doc:a", Rev: rev1, Content: "by alice"}); err != nil {
		t.Fatalf("first writer: %v", err)
	}

	_, err := store.Put(ctx, testDoc{ID: "doc:a", Rev: rev1, Content: "by bob"})
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("stale write error = %v, want ErrConflict", err)
	}
}

func TestMemoryGetRev(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	rev1, _ := store.Put(ctx, testDoc{ID: "doc:a", Content: "first"})
	_, _ = store.Put(ctx, testDoc{ID: "doc:a", Rev: rev1, Content: "second"})

	var got testDoc
	ok, err := store.GetRev(ctx, "doc:a", rev1, &got)
	if err != nil || !ok {
		t.Fatalf("getRev = (%v, %v)", ok, err)
	}
	if got.Content != "first" {
		t.Fatalf("content at %s = %q, want the original", rev1, got.Content)
	}
}

func TestMemoryListPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, _ = store.Put(ctx, testDoc{ID: "team:annotation:b", Content: "two"})
	_, _ = store.Put(ctx, testDoc{ID: "team:annotation:a", Content: "one"})
	_, _ = store.Put(ctx, testDoc{ID: "team:config", Content: "cfg"})

	raws, err := store.ListPrefix(ctx, "team:annotation:")
	if err != nil {
		t.Fatalf("listPrefix: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("got %d docs, want 2", len(raws))
	}
	env, _ := DecodeEnvelope(raws[0])
	if env.ID != "team:annotation:a" {
		t.Fatalf("first doc = %s, want key order", env.ID)
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	rev, _ := store.Put(ctx, testDoc{ID: "doc:a", Content: "x"})
	if err := store.Delete(ctx, "doc:a", "0-wrong"); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("stale delete = %v, want ErrConflict", err)
	}
	if err := store.Delete(ctx, "doc:a", rev); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var got testDoc
	ok, err := store.Get(ctx, "doc:a", &got)
	if err != nil || ok {
		t.Fatalf("get after delete = (%v, %v), want absent", ok, err)
	}
	if err := store.Delete(ctx, "doc:missing", "1-mem"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("delete missing = %v, want ErrNotFound", err)
	}
}
