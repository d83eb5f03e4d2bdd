package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
)

type memDoc struct {
	revs    []json.RawMessage // index i holds revision i+1
	deleted bool
}

type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]*memDoc
}

// NewMemory returns an in-memory Store with CouchDB-like revision semantics.
// Used by tests and local development without a store instance.
func NewMemory() Store {
	return &memoryStore{docs: make(map[string]*memDoc)}
}

func memRev(n int) string { return fmt.Sprintf("%d-mem", n) }

func (m *memoryStore) Get(_ context.Context, id string, out any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok || doc.deleted || len(doc.revs) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(doc.revs[len(doc.revs)-1], out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryStore) GetRev(_ context.Context, id, rev string, out any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return false, nil
	}
	for _, raw := range doc.revs {
		env, err := DecodeEnvelope(raw)
		if err != nil {
			return false, err
		}
		if env.Rev == rev {
			if err := json.Unmarshal(raw, out); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Put(_ context.Context, doc any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return "", err
	}
	if env.ID == "" {
		return "", fmt.Errorf("put: %w: missing _id", pkgerrors.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.docs[env.ID]
	currentRev := ""
	if existing != nil && len(existing.revs) > 0 && !existing.deleted {
		currentRev = memRev(len(existing.revs))
	}
	if env.Rev != currentRev {
		return "", fmt.Errorf("put %s: %w", env.ID, pkgerrors.ErrConflict)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", err
	}
	if existing == nil {
		existing = &memDoc{}
		m.docs[env.ID] = existing
	}
	newRev := memRev(len(existing.revs) + 1)
	body["_rev"] = newRev
	stamped, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	existing.revs = append(existing.revs, stamped)
	existing.deleted = false
	return newRev, nil
}

func (m *memoryStore) ListPrefix(_ context.Context, prefix string) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0)
	for id, doc := range m.docs {
		if doc.deleted || len(doc.revs) == 0 {
			continue
		}
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		doc := m.docs[id]
		out = append(out, doc.revs[len(doc.revs)-1])
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, id, rev string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok || doc.deleted || len(doc.revs) == 0 {
		return fmt.Errorf("delete %s: %w", id, pkgerrors.ErrNotFound)
	}
	if memRev(len(doc.revs)) != rev {
		return fmt.Errorf("delete %s: %w", id, pkgerrors.ErrConflict)
	}
	doc.deleted = true
	return nil
}
