// Package notify delivers team events to external channels. Channel sends
// report success as a boolean: a failed target is logged and skipped, never
// fatal to the dispatch.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwave/teamsync-backend/internal/docstore"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

type Store interface {
	// Config returns the team-wide channel configuration, or an empty config
	// when none has been saved yet.
	Config(ctx context.Context) (*types.NotificationConfig, error)
	SaveConfig(ctx context.Context, cfg *types.NotificationConfig) error
	// Prefs returns one user's preferences, or nil when the user never set any.
	Prefs(ctx context.Context, username string) (*types.NotificationPrefs, error)
	SavePrefs(ctx context.Context, prefs *types.NotificationPrefs) error
	AllPrefs(ctx context.Context) ([]types.NotificationPrefs, error)
}

type store struct {
	docs docstore.Store
	log  *logger.Logger
}

func NewStore(docs docstore.Store, log *logger.Logger) Store {
	return &store{docs: docs, log: log.With("service", "NotificationStore")}
}

func prefsID(username string) string { return types.NotificationPrefsPrefix + username }

func (s *store) Config(ctx context.Context) (*types.NotificationConfig, error) {
	var cfg types.NotificationConfig
	ok, err := s.docs.Get(ctx, types.NotificationConfigID, &cfg)
	if err != nil {
		return nil, fmt.Errorf("get notification config: %w", err)
	}
	if !ok {
		return &types.NotificationConfig{ID: types.NotificationConfigID}, nil
	}
	return &cfg, nil
}

func (s *store) SaveConfig(ctx context.Context, cfg *types.NotificationConfig) error {
	cfg.ID = types.NotificationConfigID
	if cfg.Rev == "" {
		var existing types.NotificationConfig
		ok, err := s.docs.Get(ctx, cfg.ID, &existing)
		if err != nil {
			return fmt.Errorf("save notification config: %w", err)
		}
		if ok {
			cfg.Rev = existing.Rev
		}
	}
	rev, err := s.docs.Put(ctx, cfg)
	if err != nil {
		return fmt.Errorf("save notification config: %w", err)
	}
	cfg.Rev = rev
	return nil
}

func (s *store) Prefs(ctx context.Context, username string) (*types.NotificationPrefs, error) {
	var prefs types.NotificationPrefs
	ok, err := s.docs.Get(ctx, prefsID(username), &prefs)
	if err != nil {
		return nil, fmt.Errorf("get notification prefs %s: %w", username, err)
	}
	if !ok {
		return nil, nil
	}
	return &prefs, nil
}

func (s *store) SavePrefs(ctx context.Context, prefs *types.NotificationPrefs) error {
	if prefs.Username == "" {
		return fmt.Errorf("save notification prefs: missing username")
	}
	prefs.ID = prefsID(prefs.Username)
	if prefs.Rev == "" {
		var existing types.NotificationPrefs
		ok, err := s.docs.Get(ctx, prefs.ID, &existing)
		if err != nil {
			return fmt.Errorf("save notification prefs %s: %w", prefs.Username, err)
		}
		if ok {
			prefs.Rev = existing.Rev
		}
	}
	rev, err := s.docs.Put(ctx, prefs)
	if err != nil {
		return fmt.Errorf("save notification prefs %s: %w", prefs.Username, err)
	}
	prefs.Rev = rev
	return nil
}

func (s *store) AllPrefs(ctx context.Context) ([]types.NotificationPrefs, error) {
	raws, err := s.docs.ListPrefix(ctx, types.NotificationPrefsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list notification prefs: %w", err)
	}
	out := make([]types.NotificationPrefs, 0, len(raws))
	for _, raw := range raws {
		var prefs types.NotificationPrefs
		if err := json.Unmarshal(raw, &prefs); err != nil {
			s.log.Warn("Skipping undecodable notification prefs", "error", err.Error())
			continue
		}
		out = append(out, prefs)
	}
	return out, nil
}
