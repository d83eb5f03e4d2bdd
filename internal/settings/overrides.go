package settings

import (
	"context"
	"fmt"
	"sort"

	"github.com/inkwave/teamsync-backend/internal/kvstore"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
)

const overrideKeyPrefix = "override:"

type overrideRecord struct {
	Overridden []string `json:"overridden"`
}

// OverrideTracker records which team-pushed default settings the local user
// has deliberately diverged from, so the applier stops reapplying them.
// State lives in the private KV ledger, never in the replicated store.
type OverrideTracker struct {
	kv  kvstore.Store
	log *logger.Logger
}

func NewOverrideTracker(kv kvstore.Store, log *logger.Logger) *OverrideTracker {
	return &OverrideTracker{kv: kv, log: log.With("service", "OverrideTracker")}
}

func overrideKey(pluginID string) string { return overrideKeyPrefix + pluginID }

func (t *OverrideTracker) Mark(ctx context.Context, pluginID, key string) error {
	var rec overrideRecord
	if _, err := t.kv.Get(ctx, overrideKey(pluginID), &rec); err != nil {
		return fmt.Errorf("mark override %s.%s: %w", pluginID, key, err)
	}
	for _, k := range rec.Overridden {
		if k == key {
			return nil
		}
	}
	rec.Overridden = append(rec.Overridden, key)
	sort.Strings(rec.Overridden)
	if err := t.kv.Set(ctx, overrideKey(pluginID), rec); err != nil {
		return fmt.Errorf("mark override %s.%s: %w", pluginID, key, err)
	}
	return nil
}

func (t *OverrideTracker) Clear(ctx context.Context, pluginID, key string) error {
	var rec overrideRecord
	ok, err := t.kv.Get(ctx, overrideKey(pluginID), &rec)
	if err != nil {
		return fmt.Errorf("clear override %s.%s: %w", pluginID, key, err)
	}
	if !ok {
		return nil
	}
	kept := rec.Overridden[:0]
	for _, k := range rec.Overridden {
		if k != key {
			kept = append(kept, k)
		}
	}
	rec.Overridden = kept
	if len(rec.Overridden) == 0 {
		return t.kv.Delete(ctx, overrideKey(pluginID))
	}
	return t.kv.Set(ctx, overrideKey(pluginID), rec)
}

func (t *OverrideTracker) List(ctx context.Context, pluginID string) ([]string, error) {
	var rec overrideRecord
	ok, err := t.kv.Get(ctx, overrideKey(pluginID), &rec)
	if err != nil {
		return nil, fmt.Errorf("list overrides %s: %w", pluginID, err)
	}
	if !ok {
		return nil, nil
	}
	return rec.Overridden, nil
}

func (t *OverrideTracker) IsOverridden(ctx context.Context, pluginID, key string) (bool, error) {
	keys, err := t.List(ctx, pluginID)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

func (t *OverrideTracker) ClearAll(ctx context.Context, pluginID string) error {
	return t.kv.Delete(ctx, overrideKey(pluginID))
}
