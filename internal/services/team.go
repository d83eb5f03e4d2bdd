// Package services composes the stores, tracker and feed into the operations
// the HTTP surface exposes.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/inkwave/teamsync-backend/internal/docstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// MemberInfo is one row of the member listing.
type MemberInfo struct {
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
}

type TeamService interface {
	// LoadConfig refreshes the cached config from the store. Absent config
	// means team mode is off, not an error.
	LoadConfig(ctx context.Context) error
	Config() *types.TeamConfig
	TeamModeEnabled() bool
	CurrentUsername() string
	CurrentUserRole() types.Role
	IsCurrentUserAdmin() bool
	// InitializeTeam creates the config document with the current user as
	// admin. Fails when the team already exists.
	InitializeTeam(ctx context.Context, teamName string) (*types.TeamConfig, error)
	AddMember(ctx context.Context, username string, role types.Role) error
	UpdateMemberRole(ctx context.Context, username string, role types.Role) error
	RemoveMember(ctx context.Context, username string) error
	Members() []MemberInfo
	SaveConfig(ctx context.Context, cfg *types.TeamConfig) error
}

type teamService struct {
	mu          sync.RWMutex
	docs        docstore.Store
	log         *logger.Logger
	currentUser string
	cfg         *types.TeamConfig
}

// NewTeamService builds the service for one session identity. The config is
// owned here and handed to collaborators explicitly; nothing reads it from
// globals.
func NewTeamService(docs docstore.Store, currentUser string, log *logger.Logger) TeamService {
	return &teamService{
		docs:        docs,
		log:         log.With("service", "TeamService"),
		currentUser: currentUser,
	}
}

func (s *teamService) LoadConfig(ctx context.Context) error {
	var cfg types.TeamConfig
	ok, err := s.docs.Get(ctx, types.TeamConfigID, &cfg)
	if err != nil {
		return fmt.Errorf("load team config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.cfg = nil
		return nil
	}
	s.cfg = &cfg
	return nil
}

func (s *teamService) Config() *types.TeamConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil
	}
	cp := *s.cfg
	cp.Members = make(map[string]types.TeamMember, len(s.cfg.Members))
	for k, v := range s.cfg.Members {
		cp.Members[k] = v
	}
	return &cp
}

func (s *teamService) TeamModeEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg != nil
}

func (s *teamService) CurrentUsername() string { return s.currentUser }

func (s *teamService) CurrentUserRole() types.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return ""
	}
	member, ok := s.cfg.Members[s.currentUser]
	if !ok {
		return ""
	}
	return member.Role
}

func (s *teamService) IsCurrentUserAdmin() bool {
	return s.CurrentUserRole() == types.RoleAdmin
}

func (s *teamService) InitializeTeam(ctx context.Context, teamName string) (*types.TeamConfig, error) {
	if strings.TrimSpace(teamName) == "" {
		return nil, fmt.Errorf("initialize team: %w: missing team name", pkgerrors.ErrInvalidArgument)
	}

	var existing types.TeamConfig
	ok, err := s.docs.Get(ctx, types.TeamConfigID, &existing)
	if err != nil {
		return nil, fmt.Errorf("initialize team: %w", err)
	}
	if ok {
		return nil, fmt.Errorf("initialize team: %w: team already initialized", pkgerrors.ErrConflict)
	}

	cfg := types.DefaultTeamConfig(teamName, s.currentUser)
	if err := s.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}
	s.log.Info("Team initialized", "team", teamName, "admin", s.currentUser)
	return s.Config(), nil
}

func (s *teamService) AddMember(ctx context.Context, username string, role types.Role) error {
	return s.mutateMembers(ctx, func(members map[string]types.TeamMember) error {
		if !role.Valid() {
			return fmt.Errorf("%w: bad role %q", pkgerrors.ErrInvalidArgument, role)
		}
		if _, exists := members[username]; exists {
			return fmt.Errorf("%w: %s is already a member", pkgerrors.ErrConflict, username)
		}
		members[username] = types.TeamMember{Role: role}
		return nil
	})
}

func (s *teamService) UpdateMemberRole(ctx context.Context, username string, role types.Role) error {
	return s.mutateMembers(ctx, func(members map[string]types.TeamMember) error {
		if !role.Valid() {
			return fmt.Errorf("%w: bad role %q", pkgerrors.ErrInvalidArgument, role)
		}
		member, exists := members[username]
		if !exists {
			return fmt.Errorf("%w: %s is not a member", pkgerrors.ErrNotFound, username)
		}
		member.Role = role
		members[username] = member
		return nil
	})
}

func (s *teamService) RemoveMember(ctx context.Context, username string) error {
	return s.mutateMembers(ctx, func(members map[string]types.TeamMember) error {
		if _, exists := members[username]; !exists {
			return fmt.Errorf("%w: %s is not a member", pkgerrors.ErrNotFound, username)
		}
		if members[username].Role == types.RoleAdmin && adminCount(members) == 1 {
			return fmt.Errorf("%w: cannot remove the last admin", pkgerrors.ErrInvalidArgument)
		}
		delete(members, username)
		return nil
	})
}

func adminCount(members map[string]types.TeamMember) int {
	n := 0
	for _, m := range members {
		if m.Role == types.RoleAdmin {
			n++
		}
	}
	return n
}

func (s *teamService) mutateMembers(ctx context.Context, mutate func(map[string]types.TeamMember) error) error {
	cfg := s.Config()
	if cfg == nil {
		return fmt.Errorf("team members: %w: team not initialized", pkgerrors.ErrNotFound)
	}
	if err := mutate(cfg.Members); err != nil {
		return fmt.Errorf("team members: %w", err)
	}
	return s.SaveConfig(ctx, cfg)
}

func (s *teamService) Members() []MemberInfo {
	cfg := s.Config()
	if cfg == nil {
		return nil
	}
	out := make([]MemberInfo, 0, len(cfg.Members))
	for username, member := range cfg.Members {
		out = append(out, MemberInfo{Username: username, Role: member.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (s *teamService) SaveConfig(ctx context.Context, cfg *types.TeamConfig) error {
	cfg.ID = types.TeamConfigID
	if cfg.Rev == "" {
		var existing types.TeamConfig
		ok, err := s.docs.Get(ctx, types.TeamConfigID, &existing)
		if err != nil {
			return fmt.Errorf("save team config: %w", err)
		}
		if ok {
			cfg.Rev = existing.Rev
		}
	}

	rev, err := s.docs.Put(ctx, cfg)
	if err != nil {
		return fmt.Errorf("save team config: %w", err)
	}
	cfg.Rev = rev

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}
