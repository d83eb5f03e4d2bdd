// Package tracker turns the replication feed into two views: which files have
// unseen changes from others, and what happened recently by anyone.
package tracker

import (
	"sync"
	"time"

	"github.com/inkwave/teamsync-backend/internal/types"
)

const maxActivityEntries = 100

// Tracker owns the in-memory unread set and the capped activity feed for one
// session. It observes arrival order; it does not reorder events causally.
type Tracker struct {
	mu          sync.RWMutex
	currentUser string
	unread      map[string]struct{}
	feed        []types.ActivityEntry
}

func New(currentUser string) *Tracker {
	return &Tracker{
		currentUser: currentUser,
		unread:      make(map[string]struct{}),
	}
}

// TrackChange records one remote edit. Every change lands in the activity
// feed; only changes by someone else mark the file unread.
func (t *Tracker) TrackChange(filePath, modifiedBy string, timestamp time.Time, rev string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := types.ActivityEntry{
		FilePath:   filePath,
		ModifiedBy: modifiedBy,
		Timestamp:  timestamp,
		Rev:        rev,
	}
	t.feed = append([]types.ActivityEntry{entry}, t.feed...)
	if len(t.feed) > maxActivityEntries {
		t.feed = t.feed[:maxActivityEntries]
	}

	if modifiedBy != t.currentUser {
		t.unread[filePath] = struct{}{}
	}
}

// MarkAsRead clears the unread indicator only; the activity feed keeps its
// entries.
func (t *Tracker) MarkAsRead(filePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.unread, filePath)
}

func (t *Tracker) IsUnread(filePath string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.unread[filePath]
	return ok
}

// UnreadFiles returns a copy of the unread set.
func (t *Tracker) UnreadFiles() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.unread))
	for p := range t.unread {
		out = append(out, p)
	}
	return out
}

// ActivityFeed returns a copy of the feed, most recent first.
func (t *Tracker) ActivityFeed() []types.ActivityEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.ActivityEntry, len(t.feed))
	copy(out, t.feed)
	return out
}

// Authors returns the de-duplicated modifiedBy values across the current
// feed. Order is not significant.
func (t *Tracker) Authors() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]struct{}, len(t.feed))
	out := make([]string, 0, len(t.feed))
	for _, e := range t.feed {
		if _, ok := seen[e.ModifiedBy]; ok {
			continue
		}
		seen[e.ModifiedBy] = struct{}{}
		out = append(out, e.ModifiedBy)
	}
	return out
}

// SetCurrentUser updates the identity used for the self-change filter, e.g.
// after a settings change.
func (t *Tracker) SetCurrentUser(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentUser = username
}
