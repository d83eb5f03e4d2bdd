package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/inkwave/teamsync-backend/internal/diff"
	"github.com/inkwave/teamsync-backend/internal/docstore"
	"github.com/inkwave/teamsync-backend/internal/kvstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/readstate"
	"github.com/inkwave/teamsync-backend/internal/tracker"
	"github.com/inkwave/teamsync-backend/internal/types"
)

type diffFixture struct {
	svc  DiffViewService
	docs docstore.Store
	rs   *readstate.Manager
	tr   *tracker.Tracker
}

func newDiffFixture(t *testing.T) *diffFixture {
	t.Helper()
	docs := docstore.NewMemory()
	rs := readstate.NewManager(kvstore.NewMemory(), logger.NewNop())
	tr := tracker.New("alice")
	return &diffFixture{
		svc:  NewDiffViewService(docs, rs, tr, logger.NewNop()),
		docs: docs,
		rs:   rs,
		tr:   tr,
	}
}

func (f *diffFixture) putDoc(t *testing.T, path, content, rev string) string {
	t.Helper()
	newRev, err := f.docs.Put(context.Background(), types.FileDocument{
		ID: path, Rev: rev, Content: content, ModifiedBy: "bob", Mtime: time.Now(),
	})
	if err != nil {
		t.Fatalf("put %s: %v", path, err)
	}
	return newRev
}

func TestBuildWithoutReadStateDiffsFromEmpty(t *testing.T) {
	ctx := context.Background()
	f := newDiffFixture(t)
	rev := f.putDoc(t, "notes/a.md", "hello world", "")

	view, err := f.svc.Build(ctx, "notes/a.md")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if view.CurrentRev != rev || view.BaseRev != "" {
		t.Fatalf("revs = (%q, %q)", view.CurrentRev, view.BaseRev)
	}
	if view.Summary.Added != len("hello world") || view.Summary.Removed != 0 {
		t.Fatalf("summary = %+v, want everything added", view.Summary)
	}
	if len(view.Segments) != 1 || view.Segments[0].Op != diff.OpInsert {
		t.Fatalf("segments = %+v", view.Segments)
	}
}

func TestBuildDiffsAgainstLastSeenRevision(t *testing.T) {
	ctx := context.Background()
	f := newDiffFixture(t)

	rev1 := f.putDoc(t, "notes/a.md", "hello world", "")
	if err := f.rs.MarkAsRead(ctx, "notes/a.md", rev1); err != nil {
		t.Fatalf("mark: %v", err)
	}
	rev2 := f.putDoc(t, "notes/a.md", "hello brave world", rev1)

	view, err := f.svc.Build(ctx, "notes/a.md")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if view.BaseRev != rev1 || view.CurrentRev != rev2 {
		t.Fatalf("revs = (%q, %q)", view.BaseRev, view.CurrentRev)
	}
	if view.Summary.Added != len("brave ") || view.Summary.Removed != 0 {
		t.Fatalf("summary = %+v", view.Summary)
	}
	if !strings.Contains(view.Markup, `class="team-diff-added"`) {
		t.Fatalf("markup = %s", view.Markup)
	}
}

func TestBuildCollectsAuthorsForFile(t *testing.T) {
	ctx := context.Background()
	f := newDiffFixture(t)
	f.putDoc(t, "notes/a.md", "hello", "")

	now := time.Now()
	f.tr.TrackChange("notes/a.md", "bob", now, "1-a")
	f.tr.TrackChange("notes/a.md", "carol", now, "2-a")
	f.tr.TrackChange("notes/a.md", "bob", now, "3-a")
	f.tr.TrackChange("notes/other.md", "dave", now, "1-b")

	view, err := f.svc.Build(ctx, "notes/a.md")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Feed is most-recent-first, so bob's latest edit leads.
	if !reflect.DeepEqual(view.Authors, []string{"bob", "carol"}) {
		t.Fatalf("authors = %v", view.Authors)
	}
}

func TestBuildMissingDocument(t *testing.T) {
	f := newDiffFixture(t)
	if _, err := f.svc.Build(context.Background(), "ghost.md"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
