package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// WebhookChannel posts notifications to chat webhooks, shaping the payload
// per platform.
type WebhookChannel struct {
	log        *logger.Logger
	httpClient *http.Client
}

func NewWebhookChannel(log *logger.Logger) *WebhookChannel {
	return &WebhookChannel{
		log:        log.With("service", "WebhookChannel"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FormatPayload builds the platform-specific JSON body for one notification.
func (w *WebhookChannel) FormatPayload(platform types.WebhookPlatform, n types.Notification) ([]byte, error) {
	switch platform {
	case types.WebhookSlack:
		return json.Marshal(map[string]any{
			"text": fmt.Sprintf("*%s*\n%s", n.Title, n.Body),
		})
	case types.WebhookDiscord:
		return json.Marshal(map[string]any{
			"embeds": []map[string]any{{
				"title":       n.Title,
				"description": n.Body,
				"color":       0x7c3aed,
				"timestamp":   n.Timestamp.UTC().Format(time.RFC3339),
				"footer":      map[string]any{"text": n.Actor},
			}},
		})
	case types.WebhookTeams:
		return json.Marshal(map[string]any{
			"@type":    "MessageCard",
			"@context": "http://schema.org/extensions",
			"summary":  n.Title,
			"title":    n.Title,
			"text":     n.Body,
		})
	case types.WebhookGeneric:
		return json.Marshal(n)
	}
	return nil, fmt.Errorf("unknown webhook platform %q", platform)
}

// Send posts to one webhook. The result is a boolean outcome: delivery
// problems are logged, never propagated.
func (w *WebhookChannel) Send(ctx context.Context, cfg types.WebhookConfig, n types.Notification) bool {
	if !cfg.Enabled || cfg.URL == "" {
		return false
	}
	payload, err := w.FormatPayload(cfg.Platform, n)
	if err != nil {
		w.log.Warn("Webhook payload build failed", "webhook", cfg.Name, "error", err.Error())
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(payload))
	if err != nil {
		w.log.Warn("Webhook request build failed", "webhook", cfg.Name, "error", err.Error())
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.Warn("Webhook delivery failed", "webhook", cfg.Name, "error", err.Error())
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Warn("Webhook delivery rejected", "webhook", cfg.Name, "status", resp.StatusCode)
		return false
	}
	return true
}
