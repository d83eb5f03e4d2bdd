package notify

import (
	"context"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// DispatchResult counts deliveries for one notification.
type DispatchResult struct {
	WebhooksSent int
	EmailsSent   int
	Skipped      int
}

// Dispatcher fans one notification out to every eligible target and channel.
type Dispatcher struct {
	store    Store
	webhooks *WebhookChannel
	smtp     *SMTPChannel
	log      *logger.Logger
}

func NewDispatcher(store Store, webhooks *WebhookChannel, smtp *SMTPChannel, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		webhooks: webhooks,
		smtp:     smtp,
		log:      log.With("service", "NotificationDispatcher"),
	}
}

// Dispatch delivers n to each target. The actor never notifies themselves;
// targets without prefs, with the event type disabled, or with every channel
// off are skipped. Partial delivery is normal: each send is independent.
func (d *Dispatcher) Dispatch(ctx context.Context, n types.Notification) (DispatchResult, error) {
	var res DispatchResult

	cfg, err := d.store.Config(ctx)
	if err != nil {
		return res, err
	}

	webhooksPosted := false
	webhooksDelivered := false
	for _, target := range n.Targets {
		if target == n.Actor {
			res.Skipped++
			continue
		}
		prefs, err := d.store.Prefs(ctx, target)
		if err != nil {
			d.log.Warn("Prefs lookup failed, skipping target", "target", target, "error", err.Error())
			res.Skipped++
			continue
		}
		if prefs == nil || !prefs.EventEnabled(n.Type) {
			res.Skipped++
			continue
		}

		delivered := false
		// Webhooks are team-wide channels: one post covers every opted-in
		// target, so fire them on the first eligible one.
		if prefs.Channels.Webhook && !webhooksPosted {
			for _, hook := range cfg.Webhooks {
				if d.webhooks.Send(ctx, hook, n) {
					res.WebhooksSent++
					delivered = true
					webhooksDelivered = true
				}
			}
			webhooksPosted = true
		} else if prefs.Channels.Webhook && webhooksDelivered {
			// Later opted-in targets are covered only if the round actually
			// landed somewhere.
			delivered = true
		}

		if prefs.Channels.Email && prefs.Email != "" {
			if d.smtp.Send(cfg.SMTP, prefs.Email, n) {
				res.EmailsSent++
				delivered = true
			}
		}
		if !delivered {
			res.Skipped++
		}
	}

	d.log.Debug("Notification dispatched",
		"type", string(n.Type),
		"webhooks", res.WebhooksSent,
		"emails", res.EmailsSent,
		"skipped", res.Skipped,
	)
	return res, nil
}
