package types

import "time"

type SettingMode string

const (
	SettingModeDefault  SettingMode = "default"
	SettingModeEnforced SettingMode = "enforced"
)

type SettingSpec struct {
	Value any         `json:"value"`
	Mode  SettingMode `json:"mode"`
}

// SettingsEntry is one team:settings:<plugin> document: the team-managed
// settings for a single plugin, pushed to members.
type SettingsEntry struct {
	ID        string                 `json:"_id"`
	Rev       string                 `json:"_rev,omitempty"`
	ManagedBy string                 `json:"managedBy"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Settings  map[string]SettingSpec `json:"settings"`
}

// PluginID strips the settings key prefix from the entry id.
func (e *SettingsEntry) PluginID() string {
	if len(e.ID) <= len(SettingsPrefix) {
		return ""
	}
	return e.ID[len(SettingsPrefix):]
}
