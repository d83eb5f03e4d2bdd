package types

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

type TeamMember struct {
	Role     Role       `json:"role"`
	LastSync *time.Time `json:"lastSync,omitempty"`
}

type TeamFeatures struct {
	Annotations      bool `json:"annotations"`
	SettingsPush     bool `json:"settingsPush"`
	ChangeIndicators bool `json:"changeIndicators"`
}

// TeamConfig is the single team:config document. Its presence in the store is
// what enables team mode.
type TeamConfig struct {
	ID       string                `json:"_id"`
	Rev      string                `json:"_rev,omitempty"`
	TeamName string                `json:"teamName"`
	Members  map[string]TeamMember `json:"members"`
	Features TeamFeatures          `json:"features"`
}

func DefaultTeamConfig(teamName, adminUsername string) *TeamConfig {
	return &TeamConfig{
		ID:       TeamConfigID,
		TeamName: teamName,
		Members: map[string]TeamMember{
			adminUsername: {Role: RoleAdmin},
		},
		Features: TeamFeatures{
			Annotations:      false,
			SettingsPush:     false,
			ChangeIndicators: true,
		},
	}
}
