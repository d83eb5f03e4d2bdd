package services

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwave/teamsync-backend/internal/docstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

func newTeam(t *testing.T, user string) (TeamService, docstore.Store) {
	t.Helper()
	store := docstore.NewMemory()
	svc := NewTeamService(store, user, logger.NewNop())
	return svc, store
}

func TestTeamModeOffWithoutConfig(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTeam(t, "alice")

	if err := svc.LoadConfig(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if svc.TeamModeEnabled() {
		t.Fatal("team mode must be off before initialization")
	}
	if svc.Config() != nil {
		t.Fatal("config must be nil before initialization")
	}
	if svc.CurrentUserRole() != "" {
		t.Fatal("no role before initialization")
	}
}

func TestInitializeTeam(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTeam(t, "alice")

	cfg, err := svc.InitializeTeam(ctx, "docs-team")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if cfg.TeamName != "docs-team" || cfg.Rev == "" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !svc.TeamModeEnabled() || !svc.IsCurrentUserAdmin() {
		t.Fatal("initializer must be an admin with team mode on")
	}
	if !cfg.Features.ChangeIndicators {
		t.Fatal("change indicators default on")
	}

	if _, err := svc.InitializeTeam(ctx, "again"); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("second initialize = %v, want ErrConflict", err)
	}
	if _, err := svc.InitializeTeam(ctx, "  "); err == nil {
		t.Fatal("blank team name must be rejected")
	}
}

func TestMemberManagement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTeam(t, "alice")
	if _, err := svc.InitializeTeam(ctx, "docs-team"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := svc.AddMember(ctx, "bob", types.RoleEditor); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.AddMember(ctx, "bob", types.RoleViewer); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("re-add = %v, want ErrConflict", err)
	}
	if err := svc.AddMember(ctx, "carol", types.Role("owner")); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("bad role = %v", err)
	}

	if err := svc.UpdateMemberRole(ctx, "bob", types.RoleViewer); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.UpdateMemberRole(ctx, "ghost", types.RoleViewer); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("update missing = %v", err)
	}

	members := svc.Members()
	if len(members) != 2 || members[0].Username != "alice" || members[1].Role != types.RoleViewer {
		t.Fatalf("members = %+v", members)
	}

	if err := svc.RemoveMember(ctx, "alice"); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("removing last admin = %v", err)
	}
	if err := svc.RemoveMember(ctx, "bob"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(svc.Members()) != 1 {
		t.Fatalf("members after remove = %+v", svc.Members())
	}
}

func TestConfigSharedAcrossSessions(t *testing.T) {
	ctx := context.Background()
	svc, store := newTeam(t, "alice")
	if _, err := svc.InitializeTeam(ctx, "docs-team"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := svc.AddMember(ctx, "bob", types.RoleEditor); err != nil {
		t.Fatalf("add: %v", err)
	}

	// A second member's session sees the same config from the shared store.
	bob := NewTeamService(store, "bob", logger.NewNop())
	if err := bob.LoadConfig(ctx); err != nil {
		t.Fatalf("bob load: %v", err)
	}
	if bob.CurrentUserRole() != types.RoleEditor || bob.IsCurrentUserAdmin() {
		t.Fatalf("bob role = %q", bob.CurrentUserRole())
	}
}

func TestConfigReturnsCopy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTeam(t, "alice")
	if _, err := svc.InitializeTeam(ctx, "docs-team"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	cfg := svc.Config()
	cfg.Members["mallory"] = types.TeamMember{Role: types.RoleAdmin}
	if _, leaked := svc.Config().Members["mallory"]; leaked {
		t.Fatal("mutating the returned config must not affect the service")
	}
}
