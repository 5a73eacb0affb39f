package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestAppendPreservesOrder(t *testing.T) {
	m := NewManager(nil)
	m.Append(RoleUser, "first")
	m.Append(RoleAssistant, "second")
	m.Append(RoleUser, "third")

	hist := m.History()
	if len(hist) != 3 {
		t.Fatalf("History() len = %d, want 3", len(hist))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if hist[i].Content != w {
			t.Errorf("message %d = %q, want %q", i, hist[i].Content, w)
		}
	}
}

func TestRenderForRetrieval(t *testing.T) {
	m := NewManager(nil)
	m.Append(RoleUser, "What are the key principles for monitoring?")
	m.Append(RoleAssistant, "Establish clear objectives and select appropriate indicators.")

	got := m.RenderForRetrieval(10, 4000)
	want := "user: What are the key principles for monitoring?\nassistant: Establish clear objectives and select appropriate indicators."
	if got != want {
		t.Errorf("RenderForRetrieval() = %q, want %q", got, want)
	}
}

func TestRenderTruncatesOldestFirst(t *testing.T) {
	m := NewManager(nil)
	for i := 0; i < 6; i++ {
		m.Append(RoleUser, fmt.Sprintf("turn %d", i))
	}

	got := m.RenderForRetrieval(3, 4000)
	if strings.Contains(got, "turn 2") {
		t.Errorf("oldest turns must be dropped, got %q", got)
	}
	if !strings.HasSuffix(got, "turn 5") {
		t.Errorf("most recent turn must survive, got %q", got)
	}
}

func TestRenderNeverDropsMostRecentTurn(t *testing.T) {
	m := NewManager(nil)
	m.Append(RoleUser, "old message that is fairly long")
	m.Append(RoleUser, strings.Repeat("x", 300))

	got := m.RenderForRetrieval(10, 50)
	if !strings.Contains(got, strings.Repeat("x", 300)) {
		t.Errorf("most recent turn was dropped: %q", got)
	}
	if strings.Contains(got, "old message") {
		t.Errorf("oldest turn should have been truncated first: %q", got)
	}
}

func TestRenderWithSummaryFoldsDroppedTurns(t *testing.T) {
	summarize := func(ctx context.Context, transcript string) (string, error) {
		if !strings.Contains(transcript, "turn 0") {
			t.Errorf("summary input should contain dropped turns, got %q", transcript)
		}
		return "the user discussed earlier turns", nil
	}

	m := NewManager(summarize)
	for i := 0; i < 4; i++ {
		m.Append(RoleUser, fmt.Sprintf("turn %d", i))
	}

	got := m.RenderWithSummary(context.Background(), 2, 4000)
	if !strings.HasPrefix(got, "assistant: (summary of earlier turns)") {
		t.Errorf("expected summary prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "turn 3") {
		t.Errorf("recent turns must follow the summary, got %q", got)
	}
}

func TestRenderWithSummaryFallsBackOnError(t *testing.T) {
	summarize := func(ctx context.Context, transcript string) (string, error) {
		return "", errors.New("model unavailable")
	}

	m := NewManager(summarize)
	for i := 0; i < 4; i++ {
		m.Append(RoleUser, fmt.Sprintf("turn %d", i))
	}

	got := m.RenderWithSummary(context.Background(), 2, 4000)
	if strings.Contains(got, "summary") {
		t.Errorf("failed summary must degrade to plain truncation, got %q", got)
	}
}

func TestClearEmptiesLog(t *testing.T) {
	m := NewManager(nil)
	m.Append(RoleUser, "hello")
	m.Clear()

	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", m.Len())
	}
	if got := m.RenderForRetrieval(10, 1000); got != "" {
		t.Errorf("RenderForRetrieval() after Clear = %q, want empty", got)
	}
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	m := NewManager(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Append(RoleUser, fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	if m.Len() != 50 {
		t.Errorf("Len() = %d, want 50", m.Len())
	}
}
