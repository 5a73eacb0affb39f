package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInputIsSingleChunk(t *testing.T) {
	chunks := SplitText("short text", 100, 20)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitTextChunksOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := SplitText(text, 40, 10)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 40 {
			t.Errorf("chunk %d exceeds size: %d", i, len(c))
		}
	}
	// Each chunk begins with the tail of the previous one.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-10:]
		if !strings.HasPrefix(chunks[i], tail) && i != len(chunks)-1 {
			t.Errorf("chunk %d does not overlap previous chunk", i)
		}
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 95)
	chunks := SplitText(text, 40, 10)

	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Error("last chunk does not end the input")
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total < len(text) {
		t.Errorf("chunks cover %d chars of %d", total, len(text))
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	text := strings.Repeat("y", 50)
	chunks := SplitText(text, 20, 20)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 non-overlapping chunks, got %d", len(chunks))
	}
}

func TestSplitTextRuneSafe(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 20)
	for _, c := range SplitText(text, 30, 5) {
		if strings.ContainsRune(c, '�') {
			t.Fatal("chunk contains replacement character, split broke a rune")
		}
	}
}
