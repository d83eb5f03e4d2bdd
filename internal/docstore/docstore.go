// Package docstore is the revisioned document store collaborator: documents
// have an opaque id, a store-assigned revision token, and JSON content.
// Writes use optimistic concurrency — a mismatched revision is a conflict,
// never merged here.
package docstore

import (
	"context"
	"encoding/json"
)

// Envelope carries the identity fields every stored document embeds.
type Envelope struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	Deleted bool   `json:"_deleted,omitempty"`
}

type Store interface {
	// Get unmarshals the latest revision of id into out. ok is false when the
	// document is absent or deleted.
	Get(ctx context.Context, id string, out any) (bool, error)
	// GetRev fetches one specific revision.
	GetRev(ctx context.Context, id, rev string, out any) (bool, error)
	// Put writes doc (which embeds _id and, for updates, the current _rev)
	// and returns the new revision. A lost optimistic-concurrency race
	// surfaces as errors.ErrConflict.
	Put(ctx context.Context, doc any) (string, error)
	// ListPrefix returns the latest revision of every live document whose id
	// starts with prefix.
	ListPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
	// Delete removes the document at the given revision.
	Delete(ctx context.Context, id, rev string) error
}

// DecodeEnvelope reads the identity fields out of a raw document.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(raw, &env)
	return env, err
}
