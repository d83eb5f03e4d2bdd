package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

func sampleNotification() types.Notification {
	return types.Notification{
		Type:      types.NotificationMention,
		Title:     "alice mentioned you",
		Body:      "in notes/plan.md: looks wrong",
		Actor:     "alice",
		Targets:   []string{"bob"},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatPayloadPerPlatform(t *testing.T) {
	w := NewWebhookChannel(logger.NewNop())
	n := sampleNotification()

	raw, err := w.FormatPayload(types.WebhookSlack, n)
	if err != nil {
		t.Fatalf("slack: %v", err)
	}
	var slack map[string]any
	_ = json.Unmarshal(raw, &slack)
	text, _ := slack["text"].(string)
	if !strings.HasPrefix(text, "*alice mentioned you*\n") {
		t.Fatalf("slack text = %q", text)
	}

	raw, err = w.FormatPayload(types.WebhookDiscord, n)
	if err != nil {
		t.Fatalf("discord: %v", err)
	}
	var discord struct {
		Embeds []map[string]any `json:"embeds"`
	}
	_ = json.Unmarshal(raw, &discord)
	if len(discord.Embeds) != 1 || discord.Embeds[0]["title"] != "alice mentioned you" {
		t.Fatalf("discord payload = %s", raw)
	}
	if color, _ := discord.Embeds[0]["color"].(float64); int(color) != 0x7c3aed {
		t.Fatalf("discord color = %v", discord.Embeds[0]["color"])
	}

	raw, err = w.FormatPayload(types.WebhookTeams, n)
	if err != nil {
		t.Fatalf("teams: %v", err)
	}
	var teams map[string]any
	_ = json.Unmarshal(raw, &teams)
	if teams["@type"] != "MessageCard" {
		t.Fatalf("teams payload = %s", raw)
	}

	raw, err = w.FormatPayload(types.WebhookGeneric, n)
	if err != nil {
		t.Fatalf("generic: %v", err)
	}
	var generic types.Notification
	_ = json.Unmarshal(raw, &generic)
	if generic.Type != types.NotificationMention || generic.Actor != "alice" {
		t.Fatalf("generic payload = %s", raw)
	}

	if _, err := w.FormatPayload("pager", n); err == nil {
		t.Fatal("unknown platform must error")
	}
}

func TestWebhookSend(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = json.Marshal(r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhookChannel(logger.NewNop())
	cfg := types.WebhookConfig{Name: "team", URL: srv.URL, Platform: types.WebhookSlack, Enabled: true}

	if !w.Send(context.Background(), cfg, sampleNotification()) {
		t.Fatal("send to healthy endpoint must succeed")
	}
	if !strings.Contains(string(got), "application/json") {
		t.Fatalf("content type = %s", got)
	}

	cfg.Enabled = false
	if w.Send(context.Background(), cfg, sampleNotification()) {
		t.Fatal("disabled webhook must not deliver")
	}
}

func TestWebhookSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	w := NewWebhookChannel(logger.NewNop())
	cfg := types.WebhookConfig{URL: srv.URL, Platform: types.WebhookGeneric, Enabled: true}
	if w.Send(context.Background(), cfg, sampleNotification()) {
		t.Fatal("rejected delivery must report false")
	}
}

func TestSMTPFormatNotification(t *testing.T) {
	s := NewSMTPChannel(logger.NewNop())
	subject, body := s.FormatNotification(sampleNotification())
	if subject != "[TeamSync] alice mentioned you" {
		t.Fatalf("subject = %q", subject)
	}
	if !strings.Contains(body, "— alice, 2026-03-01 12:00 UTC") {
		t.Fatalf("body = %q", body)
	}
}
