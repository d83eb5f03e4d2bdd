// Package settings manages team-pushed plugin settings: admins publish
// per-plugin entries, members apply them locally subject to mode and
// overrides.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwave/teamsync-backend/internal/docstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

type Store interface {
	Get(ctx context.Context, pluginID string) (*types.SettingsEntry, error)
	All(ctx context.Context) ([]types.SettingsEntry, error)
	// SetSetting upserts one key in a plugin's entry, creating the entry on
	// first use.
	SetSetting(ctx context.Context, pluginID, key string, spec types.SettingSpec, managedBy string) error
	// RemoveSetting drops one key; removing the last key keeps an empty entry.
	RemoveSetting(ctx context.Context, pluginID, key string) (bool, error)
	Save(ctx context.Context, entry *types.SettingsEntry) error
}

type store struct {
	docs docstore.Store
	log  *logger.Logger
	now  func() time.Time
}

func NewStore(docs docstore.Store, log *logger.Logger) Store {
	return &store{
		docs: docs,
		log:  log.With("service", "SettingsStore"),
		now:  time.Now,
	}
}

func entryID(pluginID string) string { return types.SettingsPrefix + pluginID }

func (s *store) Get(ctx context.Context, pluginID string) (*types.SettingsEntry, error) {
	var entry types.SettingsEntry
	ok, err := s.docs.Get(ctx, entryID(pluginID), &entry)
	if err != nil {
		return nil, fmt.Errorf("get settings %s: %w", pluginID, err)
	}
	if !ok {
		return nil, fmt.Errorf("get settings %s: %w", pluginID, pkgerrors.ErrNotFound)
	}
	return &entry, nil
}

func (s *store) All(ctx context.Context) ([]types.SettingsEntry, error) {
	raws, err := s.docs.ListPrefix(ctx, types.SettingsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make([]types.SettingsEntry, 0, len(raws))
	for _, raw := range raws {
		var entry types.SettingsEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			s.log.Warn("Skipping undecodable settings entry", "error", err.Error())
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *store) SetSetting(ctx context.Context, pluginID, key string, spec types.SettingSpec, managedBy string) error {
	if strings.TrimSpace(pluginID) == "" || strings.TrimSpace(key) == "" {
		return fmt.Errorf("set setting: %w: plugin id and key required", pkgerrors.ErrInvalidArgument)
	}
	if spec.Mode == "" {
		spec.Mode = types.SettingModeDefault
	}

	entry, err := s.Get(ctx, pluginID)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			return err
		}
		entry = &types.SettingsEntry{
			ID:       entryID(pluginID),
			Settings: map[string]types.SettingSpec{},
		}
	}
	if entry.Settings == nil {
		entry.Settings = map[string]types.SettingSpec{}
	}
	entry.Settings[key] = spec
	entry.ManagedBy = managedBy
	return s.Save(ctx, entry)
}

func (s *store) RemoveSetting(ctx context.Context, pluginID, key string) (bool, error) {
	entry, err := s.Get(ctx, pluginID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if _, ok := entry.Settings[key]; !ok {
		return false, nil
	}
	delete(entry.Settings, key)
	if err := s.Save(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes the entry back, backfilling the current revision so callers can
// hand in records without tracking revs themselves.
func (s *store) Save(ctx context.Context, entry *types.SettingsEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("save settings: %w: missing id", pkgerrors.ErrInvalidArgument)
	}
	if entry.Rev == "" {
		var existing types.SettingsEntry
		ok, err := s.docs.Get(ctx, entry.ID, &existing)
		if err != nil {
			return fmt.Errorf("save settings %s: %w", entry.ID, err)
		}
		if ok {
			entry.Rev = existing.Rev
		}
	}
	entry.UpdatedAt = s.now().UTC()

	rev, err := s.docs.Put(ctx, entry)
	if err != nil {
		return fmt.Errorf("save settings %s: %w", entry.ID, err)
	}
	entry.Rev = rev
	s.log.Debug("Settings entry saved", "plugin", entry.PluginID(), "keys", len(entry.Settings))
	return nil
}
