// Package readstate keeps the durable per-file "last seen revision" ledger.
// It is the authoritative local answer to "is this file's current revision
// new to me" — revisions are opaque tokens compared only for equality.
package readstate

import (
	"context"
	"time"

	"github.com/inkwave/teamsync-backend/internal/kvstore"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

type Manager struct {
	store kvstore.Store
	log   *logger.Logger
}

func NewManager(store kvstore.Store, baseLog *logger.Logger) *Manager {
	return &Manager{store: store, log: baseLog.With("component", "ReadStateManager")}
}

func key(filePath string) string {
	return types.ReadStatePrefix + filePath
}

// IsUnread reports whether currentRev is new to the local user. Missing state
// and lookup failures both default to unread.
func (m *Manager) IsUnread(ctx context.Context, filePath, currentRev string) bool {
	var state types.FileReadState
	ok, err := m.store.Get(ctx, key(filePath), &state)
	if err != nil {
		m.log.Warn("Read state lookup failed, assuming unread", "file", filePath, "error", err)
		return true
	}
	if !ok {
		return true
	}
	return state.LastSeenRev != currentRev
}

// MarkAsRead overwrites any prior state for the path.
func (m *Manager) MarkAsRead(ctx context.Context, filePath, rev string) error {
	return m.store.Set(ctx, key(filePath), types.FileReadState{
		LastSeenRev: rev,
		LastSeenAt:  time.Now(),
	})
}

// GetReadState returns nil when the file has never been marked read.
func (m *Manager) GetReadState(ctx context.Context, filePath string) (*types.FileReadState, error) {
	var state types.FileReadState
	ok, err := m.store.Get(ctx, key(filePath), &state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (m *Manager) ClearReadState(ctx context.Context, filePath string) error {
	return m.store.Delete(ctx, key(filePath))
}
