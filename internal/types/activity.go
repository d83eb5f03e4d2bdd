package types

import "time"

// ActivityEntry is one observed remote edit. The tracker keeps only the most
// recent entries, reverse-chronological by arrival order.
type ActivityEntry struct {
	FilePath   string    `json:"filePath"`
	ModifiedBy string    `json:"modifiedBy"`
	Timestamp  time.Time `json:"timestamp"`
	Rev        string    `json:"rev"`
}

// FileReadState is the durable per-user, per-file "last seen" ledger entry.
// Absence means never seen.
type FileReadState struct {
	LastSeenRev string    `json:"lastSeenRev"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

// FileDocument is a text document in the revisioned store, keyed by path.
type FileDocument struct {
	ID         string    `json:"_id"`
	Rev        string    `json:"_rev,omitempty"`
	Content    string    `json:"content"`
	ModifiedBy string    `json:"modifiedBy,omitempty"`
	Mtime      time.Time `json:"mtime,omitempty"`
}
