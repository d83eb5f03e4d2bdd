package types

import (
	"time"

	"github.com/inkwave/teamsync-backend/internal/anchor"
)

// Annotation is a threaded, anchored comment on a span of a document. Replies
// are independent records referencing a parent by id, not nested containment.
// Records are never physically removed by the application layer.
type Annotation struct {
	ID            string       `json:"_id"`
	Rev           string       `json:"_rev,omitempty"`
	FilePath      string       `json:"filePath"`
	Range         anchor.Range `json:"range"`
	SelectedText  string       `json:"selectedText"`
	ContextBefore string       `json:"contextBefore"`
	ContextAfter  string       `json:"contextAfter"`
	Content       string       `json:"content"`
	Author        string       `json:"author"`
	Mentions      []string     `json:"mentions"`
	Timestamp     time.Time    `json:"timestamp"`
	Resolved      bool         `json:"resolved"`
	ParentID      *string      `json:"parentId"`
}

// AnchorContext rebuilds the relocation fingerprint stored on the record.
func (a *Annotation) AnchorContext() anchor.Context {
	return anchor.Context{
		SelectedText:  a.SelectedText,
		ContextBefore: a.ContextBefore,
		ContextAfter:  a.ContextAfter,
		OriginalRange: a.Range,
	}
}
