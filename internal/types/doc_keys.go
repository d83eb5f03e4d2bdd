package types

import "strings"

// Document identifiers in the revisioned store are string keys; each record
// kind owns one id or prefix. DocKind is the single discriminated mapping
// from key to kind, so call sites never prefix-scan untyped documents.
const (
	TeamConfigID            = "team:config"
	AnnotationPrefix        = "team:annotation:"
	SettingsPrefix          = "team:settings:"
	NotificationConfigID    = "team:notifications:config"
	NotificationPrefsPrefix = "team:notifications:prefs:"
	ReadStatePrefix         = "readstate:"
)

type DocKind int

const (
	KindUnknown DocKind = iota
	KindTeamConfig
	KindAnnotation
	KindSettingsEntry
	KindNotificationConfig
	KindNotificationPrefs
	KindReadState
)

func KindForID(id string) DocKind {
	switch {
	case id == TeamConfigID:
		return KindTeamConfig
	case id == NotificationConfigID:
		return KindNotificationConfig
	case strings.HasPrefix(id, AnnotationPrefix):
		return KindAnnotation
	case strings.HasPrefix(id, SettingsPrefix):
		return KindSettingsEntry
	case strings.HasPrefix(id, NotificationPrefsPrefix):
		return KindNotificationPrefs
	case strings.HasPrefix(id, ReadStatePrefix):
		return KindReadState
	}
	return KindUnknown
}

func IsTeamDoc(id string) bool {
	return strings.HasPrefix(id, "team:")
}
