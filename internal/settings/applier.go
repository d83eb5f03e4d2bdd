package settings

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// ApplyResult reports what a push changed on the local configuration.
type ApplyResult struct {
	// Applied holds the keys whose values were taken from the team entry.
	Applied []string
	// Enforced is the subset of Applied that the member may not override.
	Enforced []string
}

// Applier merges a team settings entry into a member's local plugin
// configuration. Enforced keys always win; default keys win unless the
// member overrode them.
type Applier struct {
	overrides *OverrideTracker
	log       *logger.Logger
}

func NewApplier(overrides *OverrideTracker, log *logger.Logger) *Applier {
	return &Applier{overrides: overrides, log: log.With("service", "SettingsApplier")}
}

// Apply mutates current in place and reports which keys changed hands.
func (a *Applier) Apply(ctx context.Context, entry *types.SettingsEntry, current map[string]any) (ApplyResult, error) {
	var res ApplyResult
	if entry == nil || len(entry.Settings) == 0 {
		return res, nil
	}

	overridden, err := a.overrides.List(ctx, entry.PluginID())
	if err != nil {
		return res, fmt.Errorf("apply settings %s: %w", entry.PluginID(), err)
	}
	overriddenSet := make(map[string]struct{}, len(overridden))
	for _, k := range overridden {
		overriddenSet[k] = struct{}{}
	}

	for key, spec := range entry.Settings {
		enforced := spec.Mode == types.SettingModeEnforced
		if _, skip := overriddenSet[key]; skip && !enforced {
			continue
		}
		current[key] = spec.Value
		res.Applied = append(res.Applied, key)
		if enforced {
			res.Enforced = append(res.Enforced, key)
		}
	}
	sort.Strings(res.Applied)
	sort.Strings(res.Enforced)

	a.log.Debug("Settings applied",
		"plugin", entry.PluginID(),
		"applied", len(res.Applied),
		"enforced", len(res.Enforced),
	)
	return res, nil
}

// DetectCustomization compares a member's live configuration to the team
// entry and returns the keys the member has changed away from team values.
func DetectCustomization(entry *types.SettingsEntry, current map[string]any) []string {
	if entry == nil {
		return nil
	}
	var diverged []string
	for key, spec := range entry.Settings {
		local, ok := current[key]
		if !ok {
			continue
		}
		if !reflect.DeepEqual(local, spec.Value) {
			diverged = append(diverged, key)
		}
	}
	sort.Strings(diverged)
	return diverged
}
