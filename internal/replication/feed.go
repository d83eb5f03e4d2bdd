// Package replication carries document-change events between team members'
// processes. The feed is at-least-once and in-order per publisher; consumers
// treat events as idempotent notifications, never as the source of truth.
package replication

import (
	"context"
	"time"
)

// Event is one replicated document change.
type Event struct {
	Path       string    `json:"path"`
	ModifiedBy string    `json:"modifiedBy"`
	Timestamp  time.Time `json:"timestamp"`
	Rev        string    `json:"rev"`
}

type Feed interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
