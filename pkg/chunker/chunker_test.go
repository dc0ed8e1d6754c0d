package chunker

import (
	"strings"
	"testing"
)

func TestSplitShortPage(t *testing.T) {
	chunks := Split([]Page{{Number: 1, Text: "hello world"}}, DefaultOptions())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].PageNumber != 1 || chunks[0].Index != 0 {
		t.Fatalf("unexpected chunk metadata: %+v", chunks[0])
	}
	if chunks[0].TokenCount < 1 {
		t.Fatalf("expected positive token count")
	}
}

func TestSplitMergesSmallParagraphs(t *testing.T) {
	text := "first paragraph.\n\nsecond paragraph.\n\nthird paragraph."
	chunks := Split([]Page{{Number: 1, Text: text}}, Options{ChunkSize: 1000})
	if len(chunks) != 1 {
		t.Fatalf("expected paragraphs merged into 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "second paragraph") {
		t.Fatalf("merged chunk missing paragraph: %q", chunks[0].Text)
	}
}

func TestSplitLongParagraphUsesWindow(t *testing.T) {
	long := strings.Repeat("abcdefghij", 100) // 1000 runes, no paragraph breaks
	chunks := Split([]Page{{Number: 2, Text: long}}, Options{ChunkSize: 300, ChunkOverlap: 50})
	if len(chunks) < 3 {
		t.Fatalf("expected multiple window chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		if c.PageNumber != 2 {
			t.Fatalf("chunk %d has page %d", i, c.PageNumber)
		}
		if len([]rune(c.Text)) > 300 {
			t.Fatalf("chunk %d exceeds size: %d runes", i, len([]rune(c.Text)))
		}
	}
	// Overlap means consecutive windows share a suffix/prefix.
	if !strings.Contains(chunks[1].Text, chunks[0].Text[len(chunks[0].Text)-20:]) {
		t.Fatalf("expected overlap between consecutive chunks")
	}
}

func TestSplitIndexesRunAcrossPages(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: "page one text"},
		{Number: 2, Text: "page two text"},
	}
	chunks := Split(pages, DefaultOptions())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Fatalf("indexes not sequential across pages: %d, %d", chunks[0].Index, chunks[1].Index)
	}
}

func TestSplitEmptyPageYieldsNothing(t *testing.T) {
	chunks := Split([]Page{{Number: 1, Text: "   \n\n  "}}, DefaultOptions())
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace page, got %d", len(chunks))
	}
}
