package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextJoinsParagraphsWithOverlap(t *testing.T) {
	p1 := strings.Repeat("a", 40)
	p2 := strings.Repeat("b", 40)
	p3 := strings.Repeat("c", 40)

	chunks := ChunkText(p1+"\n\n"+p2+"\n\n"+p3, 100, 10)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != p1+"\n"+p2 {
		t.Fatalf("unexpected first chunk %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], strings.Repeat("b", 10)+"\n") || !strings.HasSuffix(chunks[1], p3) {
		t.Fatalf("second chunk should start with the overlap tail: %q", chunks[1])
	}
}

func TestChunkTextRespectsSize(t *testing.T) {
	long := strings.Repeat("word ", 60) + ". " + strings.Repeat("x", 250)

	chunks := ChunkText(long, 100, 20)
	if len(chunks) < 3 {
		t.Fatalf("expected long text to be split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := ChunkText(" \n\n \n", 100, 10); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %q", chunks)
	}
}
