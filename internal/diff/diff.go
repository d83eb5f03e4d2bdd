// Package diff computes token-level differences between two document
// revisions and derives the render/summary forms the diff pane consumes.
package diff

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type Op int8

const (
	OpDelete Op = -1
	OpEqual  Op = 0
	OpInsert Op = 1
)

type Segment struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

type Summary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Compute diffs oldText against newText with semantic cleanup, so trivial
// single-character fragments are merged into readable chunks. The segments
// reconstruct newText when Delete ops are skipped and oldText when Insert ops
// are skipped.
func Compute(oldText, newText string) []Segment {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		segments = append(segments, Segment{Op: opFor(d.Type), Text: d.Text})
	}
	return segments
}

func opFor(t diffmatchpatch.Operation) Op {
	switch t {
	case diffmatchpatch.DiffDelete:
		return OpDelete
	case diffmatchpatch.DiffInsert:
		return OpInsert
	default:
		return OpEqual
	}
}

// Summarize counts inserted and deleted characters. Identical inputs yield a
// zero summary.
func Summarize(segments []Segment) Summary {
	var s Summary
	for _, seg := range segments {
		switch seg.Op {
		case OpInsert:
			s.Added += utf8.RuneCountInString(seg.Text)
		case OpDelete:
			s.Removed += utf8.RuneCountInString(seg.Text)
		}
	}
	return s
}

// RenderHTML renders a diff as styled inline spans. All text content is
// escaped; newlines become explicit line breaks.
func RenderHTML(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		escaped := html.EscapeString(seg.Text)
		switch seg.Op {
		case OpDelete:
			b.WriteString(`<span class="team-diff-deleted">`)
		case OpInsert:
			b.WriteString(`<span class="team-diff-added">`)
		default:
			b.WriteString(`<span class="team-diff-equal">`)
		}
		b.WriteString(escaped)
		b.WriteString("</span>")
	}
	return strings.ReplaceAll(b.String(), "\n", "<br>")
}
