// Package kvstore is the local durable key-value collaborator. Values are
// JSON-encoded; each user's store is private and never replicated.
package kvstore

import (
	"context"
	"encoding/json"
	"sync"
)

type Store interface {
	// Get unmarshals the value for key into out. ok is false when the key is
	// absent.
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an in-memory Store. Used by tests and as a fallback when
// no ledger database is configured.
func NewMemory() Store {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, key string, out any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
