package anchor

import "strings"

// ContextChars is the size of the surrounding-text windows captured on each
// side of a selection.
const ContextChars = 50

// Range is a span expressed as 0-based line numbers and 0-based column
// offsets within a line, end exclusive.
type Range struct {
	StartLine int `json:"startLine"`
	StartChar int `json:"startChar"`
	EndLine   int `json:"endLine"`
	EndChar   int `json:"endChar"`
}

// Context is the fingerprint captured at annotation-creation time and used to
// relocate the selection after the document has been edited.
type Context struct {
	SelectedText  string `json:"selectedText"`
	ContextBefore string `json:"contextBefore"`
	ContextAfter  string `json:"contextAfter"`
	OriginalRange Range  `json:"originalRange"`
}

// CaptureContext snapshots the selected text plus up to ContextChars
// characters on each side, truncated at document boundaries. The caller
// guarantees that r came from a valid selection in docText.
func CaptureContext(docText string, r Range) Context {
	lines := strings.Split(docText, "\n")
	startOffset := toOffset(lines, r.StartLine, r.StartChar)
	endOffset := toOffset(lines, r.EndLine, r.EndChar)

	beforeStart := startOffset - ContextChars
	if beforeStart < 0 {
		beforeStart = 0
	}
	afterEnd := endOffset + ContextChars
	if afterEnd > len(docText) {
		afterEnd = len(docText)
	}

	return Context{
		SelectedText:  docText[startOffset:endOffset],
		ContextBefore: docText[beforeStart:startOffset],
		ContextAfter:  docText[endOffset:afterEnd],
		OriginalRange: r,
	}
}

// Find relocates an anchored selection in a possibly-edited document.
//
// Four exact-substring strategies are tried in order, first hit wins:
//
//  1. contextBefore + selectedText + contextAfter
//  2. contextBefore + selectedText (only when contextBefore is non-empty)
//  3. selectedText + contextAfter (only when contextAfter is non-empty)
//  4. selectedText alone, first occurrence
//
// Strategy 4 can anchor to an unrelated identical span elsewhere in the
// document when the original surroundings have been edited away; it does not
// disambiguate by proximity to the original line. That is an accepted
// precision/availability trade-off.
//
// A miss is an ordinary outcome: ok is false and the caller should fall back
// to the last-known range.
func Find(docText string, c Context) (Range, bool) {
	lines := strings.Split(docText, "\n")

	if idx := strings.Index(docText, c.ContextBefore+c.SelectedText+c.ContextAfter); idx != -1 {
		selStart := idx + len(c.ContextBefore)
		return toRange(lines, selStart, selStart+len(c.SelectedText)), true
	}

	if c.ContextBefore != "" {
		if idx := strings.Index(docText, c.ContextBefore+c.SelectedText); idx != -1 {
			selStart := idx + len(c.ContextBefore)
			return toRange(lines, selStart, selStart+len(c.SelectedText)), true
		}
	}

	if c.ContextAfter != "" {
		if idx := strings.Index(docText, c.SelectedText+c.ContextAfter); idx != -1 {
			return toRange(lines, idx, idx+len(c.SelectedText)), true
		}
	}

	if idx := strings.Index(docText, c.SelectedText); idx != -1 {
		return toRange(lines, idx, idx+len(c.SelectedText)), true
	}

	return Range{}, false
}

// toOffset converts a (line, char) position to a flat offset. Each line's
// length excludes its trailing newline; the newline itself counts one.
func toOffset(lines []string, line, char int) int {
	offset := 0
	for i := 0; i < line && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	return offset + char
}

// toRange converts a flat offset pair back to line/char positions by a single
// scan over line boundaries. Symmetric with toOffset: round-trips exactly for
// positions inside the document.
func toRange(lines []string, startOffset, endOffset int) Range {
	var r Range
	offset := 0
	foundStart := false

	for i := 0; i < len(lines); i++ {
		lineEnd := offset + len(lines[i])
		if !foundStart && startOffset <= lineEnd {
			r.StartLine = i
			r.StartChar = startOffset - offset
			foundStart = true
		}
		if foundStart && endOffset <= lineEnd {
			r.EndLine = i
			r.EndChar = endOffset - offset
			break
		}
		offset = lineEnd + 1
	}

	return r
}
