package types

import "time"

type NotificationType string

const (
	NotificationMention           NotificationType = "mention"
	NotificationAnnotationCreated NotificationType = "annotation-created"
	NotificationAnnotationReply   NotificationType = "annotation-reply"
	NotificationFileChanged       NotificationType = "file-changed"
)

// Notification is the plain record handed to outbound channels.
type Notification struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Actor     string           `json:"actor"`
	Targets   []string         `json:"targets"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

type WebhookPlatform string

const (
	WebhookSlack   WebhookPlatform = "slack"
	WebhookDiscord WebhookPlatform = "discord"
	WebhookTeams   WebhookPlatform = "teams"
	WebhookGeneric WebhookPlatform = "generic"
)

type WebhookConfig struct {
	Name     string          `json:"name,omitempty"`
	URL      string          `json:"url"`
	Platform WebhookPlatform `json:"platform"`
	Enabled  bool            `json:"enabled"`
}

type SMTPConfig struct {
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Secure      bool   `json:"secure"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	FromAddress string `json:"fromAddress"`
}

// NotificationConfig is the team-wide team:notifications:config document.
type NotificationConfig struct {
	ID       string          `json:"_id"`
	Rev      string          `json:"_rev,omitempty"`
	Webhooks []WebhookConfig `json:"webhooks"`
	SMTP     SMTPConfig      `json:"smtp"`
}

type ChannelPrefs struct {
	Webhook bool `json:"webhook"`
	Email   bool `json:"email"`
}

// NotificationPrefs is one user's team:notifications:prefs:<user> document.
type NotificationPrefs struct {
	ID            string             `json:"_id"`
	Rev           string             `json:"_rev,omitempty"`
	Username      string             `json:"username"`
	EnabledEvents []NotificationType `json:"enabledEvents"`
	Channels      ChannelPrefs       `json:"channels"`
	Email         string             `json:"email,omitempty"`
}

func (p *NotificationPrefs) EventEnabled(t NotificationType) bool {
	for _, e := range p.EnabledEvents {
		if e == t {
			return true
		}
	}
	return false
}
