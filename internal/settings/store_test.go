package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwave/teamsync-backend/internal/docstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

func newTestStore() Store {
	return NewStore(docstore.NewMemory(), logger.NewNop())
}

func TestSetSettingCreatesEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	err := s.SetSetting(ctx, "editor", "theme", types.SettingSpec{Value: "dark"}, "alice")
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	entry, err := s.Get(ctx, "editor")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.PluginID() != "editor" || entry.ManagedBy != "alice" {
		t.Fatalf("entry = %+v", entry)
	}
	spec := entry.Settings["theme"]
	if spec.Value != "dark" || spec.Mode != types.SettingModeDefault {
		t.Fatalf("spec = %+v, want mode to default", spec)
	}
	if entry.UpdatedAt.IsZero() {
		t.Fatal("updatedAt must be stamped")
	}
}

func TestSaveBackfillsRevision(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if err := s.SetSetting(ctx, "editor", "theme", types.SettingSpec{Value: "dark"}, "alice"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A caller that never tracked the rev can still save.
	stale := &types.SettingsEntry{
		ID: types.SettingsPrefix + "editor",
		Settings: map[string]types.SettingSpec{
			"theme": {Value: "light", Mode: types.SettingModeEnforced},
		},
	}
	if err := s.Save(ctx, stale); err != nil {
		t.Fatalf("save without rev: %v", err)
	}

	entry, err := s.Get(ctx, "editor")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Settings["theme"].Value != "light" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestRemoveSetting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_ = s.SetSetting(ctx, "editor", "theme", types.SettingSpec{Value: "dark"}, "alice")
	_ = s.SetSetting(ctx, "editor", "autosave", types.SettingSpec{Value: true, Mode: types.SettingModeEnforced}, "alice")

	ok, err := s.RemoveSetting(ctx, "editor", "theme")
	if err != nil || !ok {
		t.Fatalf("remove = (%v, %v)", ok, err)
	}
	ok, err = s.RemoveSetting(ctx, "editor", "theme")
	if err != nil || ok {
		t.Fatalf("re-remove = (%v, %v), want (false, nil)", ok, err)
	}
	ok, err = s.RemoveSetting(ctx, "unknown-plugin", "theme")
	if err != nil || ok {
		t.Fatalf("remove from missing plugin = (%v, %v), want (false, nil)", ok, err)
	}

	entry, _ := s.Get(ctx, "editor")
	if _, stillThere := entry.Settings["theme"]; stillThere {
		t.Fatal("theme must be gone")
	}
	if _, kept := entry.Settings["autosave"]; !kept {
		t.Fatal("other keys must survive")
	}
}

func TestGetMissingPlugin(t *testing.T) {
	s := newTestStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAllListsEveryPlugin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_ = s.SetSetting(ctx, "editor", "theme", types.SettingSpec{Value: "dark"}, "alice")
	_ = s.SetSetting(ctx, "sync", "interval", types.SettingSpec{Value: float64(30)}, "alice")

	entries, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}
