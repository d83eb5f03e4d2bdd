package anchor

import (
	"strings"
	"testing"
)

const sampleDoc = "The quick brown fox jumps over the lazy dog"

func TestOffsetRoundTrip(t *testing.T) {
	doc := "alpha\nbravo charlie\n\ndelta echo\nfoxtrot"
	lines := strings.Split(doc, "\n")

	cases := []struct {
		name string
		line int
		char int
	}{
		{name: "document_start", line: 0, char: 0},
		{name: "mid_first_line", line: 0, char: 3},
		{name: "line_end", line: 1, char: 13},
		{name: "empty_line", line: 2, char: 0},
		{name: "last_line", line: 4, char: 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			off := toOffset(lines, tc.line, tc.char)
			r := toRange(lines, off, off)
			if r.StartLine != tc.line || r.StartChar != tc.char {
				t.Fatalf("round trip (%d,%d) -> %d -> (%d,%d)", tc.line, tc.char, off, r.StartLine, r.StartChar)
			}
			if r.EndLine != tc.line || r.EndChar != tc.char {
				t.Fatalf("end position (%d,%d) -> (%d,%d)", tc.line, tc.char, r.EndLine, r.EndChar)
			}
		})
	}
}

func TestCaptureContextWindows(t *testing.T) {
	r := Range{StartLine: 0, StartChar: 10, EndLine: 0, EndChar: 19}
	c := CaptureContext(sampleDoc, r)

	if c.SelectedText != "brown fox" {
		t.Fatalf("selectedText = %q, want %q", c.SelectedText, "brown fox")
	}
	if c.ContextBefore != "The quick " {
		t.Fatalf("contextBefore = %q, want truncated at document start", c.ContextBefore)
	}
	if c.ContextAfter != " jumps over the lazy dog" {
		t.Fatalf("contextAfter = %q, want truncated at document end", c.ContextAfter)
	}
	if c.OriginalRange != r {
		t.Fatalf("originalRange = %+v, want %+v", c.OriginalRange, r)
	}
}

func TestCaptureContextTruncatesAt50(t *testing.T) {
	doc := strings.Repeat("a", 80) + "XYZ" + strings.Repeat("b", 80)
	r := Range{StartLine: 0, StartChar: 80, EndLine: 0, EndChar: 83}
	c := CaptureContext(doc, r)

	if c.SelectedText != "XYZ" {
		t.Fatalf("selectedText = %q", c.SelectedText)
	}
	if len(c.ContextBefore) != ContextChars || len(c.ContextAfter) != ContextChars {
		t.Fatalf("context windows %d/%d, want %d each", len(c.ContextBefore), len(c.ContextAfter), ContextChars)
	}
}

func TestFindIdentityOnUnchangedDocument(t *testing.T) {
	doc := "line one\nline two\nline three\nline four"
	r := Range{StartLine: 1, StartChar: 5, EndLine: 2, EndChar: 4}
	c := CaptureContext(doc, r)

	got, ok := Find(doc, c)
	if !ok {
		t.Fatal("expected anchor to be found in unchanged document")
	}
	if got != r {
		t.Fatalf("relocated range = %+v, want %+v", got, r)
	}
}

func TestFindShiftsByInsertedLines(t *testing.T) {
	doc := "one\ntwo\nthree\nfour five six\nseven"
	r := Range{StartLine: 3, StartChar: 5, EndLine: 3, EndChar: 9}
	c := CaptureContext(doc, r)
	if c.SelectedText != "five" {
		t.Fatalf("selectedText = %q", c.SelectedText)
	}

	edited := "inserted A\ninserted B\n" + doc
	got, ok := Find(edited, c)
	if !ok {
		t.Fatal("expected anchor to be found after unrelated insertion")
	}
	if got.StartLine != r.StartLine+2 || got.StartChar != r.StartChar {
		t.Fatalf("start = (%d,%d), want (%d,%d)", got.StartLine, got.StartChar, r.StartLine+2, r.StartChar)
	}
	if got.EndLine != r.EndLine+2 || got.EndChar != r.EndChar {
		t.Fatalf("end = (%d,%d), want (%d,%d)", got.EndLine, got.EndChar, r.EndLine+2, r.EndChar)
	}
}

func TestFindFallbackStrategies(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		ctx  Context
		want Range
	}{
		{
			name: "before_plus_selected",
			doc:  "prefix TARGET mutated-tail",
			ctx:  Context{SelectedText: "TARGET", ContextBefore: "prefix ", ContextAfter: " original-tail"},
			want: Range{StartLine: 0, StartChar: 7, EndLine: 0, EndChar: 13},
		},
		{
			name: "selected_plus_after",
			doc:  "mutated-head TARGET suffix",
			ctx:  Context{SelectedText: "TARGET", ContextBefore: "original-head ", ContextAfter: " suffix"},
			want: Range{StartLine: 0, StartChar: 13, EndLine: 0, EndChar: 19},
		},
		{
			name: "selected_alone_first_occurrence",
			doc:  "aaa TARGET bbb TARGET ccc",
			ctx:  Context{SelectedText: "TARGET", ContextBefore: "gone", ContextAfter: "gone"},
			want: Range{StartLine: 0, StartChar: 4, EndLine: 0, EndChar: 10},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Find(tc.doc, tc.ctx)
			if !ok {
				t.Fatal("expected a match")
			}
			if got != tc.want {
				t.Fatalf("range = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFindReturnsNotFound(t *testing.T) {
	ctx := Context{SelectedText: "vanished", ContextBefore: "also gone", ContextAfter: "gone too"}
	if _, ok := Find("completely different content", ctx); ok {
		t.Fatal("expected not-found for absent selection and context")
	}
}

func TestFindAfterDocumentPrefix(t *testing.T) {
	r := Range{StartLine: 0, StartChar: 10, EndLine: 0, EndChar: 19}
	c := CaptureContext(sampleDoc, r)

	edited := "PREFIX " + sampleDoc
	got, ok := Find(edited, c)
	if !ok {
		t.Fatal("expected full-context relocation after prefix insertion")
	}
	want := Range{StartLine: 0, StartChar: 17, EndLine: 0, EndChar: 26}
	if got != want {
		t.Fatalf("range = %+v, want %+v", got, want)
	}
	lines := strings.Split(edited, "\n")
	start := toOffset(lines, got.StartLine, got.StartChar)
	end := toOffset(lines, got.EndLine, got.EndChar)
	if edited[start:end] != "brown fox" {
		t.Fatalf("relocated span = %q, want %q", edited[start:end], "brown fox")
	}
}
