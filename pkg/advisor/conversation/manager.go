package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in the session's conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SummarizeFunc condenses a transcript of dropped turns into one line.
// Optional; rendering falls back to plain truncation when it fails.
type SummarizeFunc func(ctx context.Context, transcript string) (string, error)

// Manager owns the ordered message log for one session. Appends are
// serialized so concurrent pipeline stages cannot interleave turns.
// Append-only within a session; Clear is the only destructive operation.
type Manager struct {
	mu        sync.Mutex
	messages  []Message
	summarize SummarizeFunc
}

func NewManager(summarize SummarizeFunc) *Manager {
	return &Manager{summarize: summarize}
}

// Append adds one turn to the end of the log.
func (m *Manager) Append(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// History returns a copy of the ordered message log.
func (m *Manager) History() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of messages in the log.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Clear empties the log. Derived session fields are reset by the caller as
// part of the restart contract.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// RenderForRetrieval renders the log as "role: content" lines bounded by
// maxMessages and maxChars, truncating oldest-first. The most recent turn is
// never dropped, even if it alone exceeds maxChars.
func (m *Manager) RenderForRetrieval(maxMessages, maxChars int) string {
	rendered, _ := m.render(maxMessages, maxChars)
	return rendered
}

// RenderWithSummary behaves like RenderForRetrieval but, when turns were
// truncated and a summarizer is configured, prepends a one-line summary of
// the dropped turns. Summarization failures degrade to plain truncation.
func (m *Manager) RenderWithSummary(ctx context.Context, maxMessages, maxChars int) string {
	rendered, dropped := m.render(maxMessages, maxChars)
	if len(dropped) == 0 || m.summarize == nil {
		return rendered
	}

	summary, err := m.summarize(ctx, joinLines(dropped))
	if err != nil || strings.TrimSpace(summary) == "" {
		return rendered
	}

	return fmt.Sprintf("%s: (summary of earlier turns) %s\n%s", RoleAssistant, strings.TrimSpace(summary), rendered)
}

// render returns the bounded transcript plus the lines that were dropped.
func (m *Manager) render(maxMessages, maxChars int) (string, []string) {
	m.mu.Lock()
	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)
	m.mu.Unlock()

	if len(msgs) == 0 {
		return "", nil
	}

	var dropped []string
	if maxMessages > 0 && len(msgs) > maxMessages {
		for _, msg := range msgs[:len(msgs)-maxMessages] {
			dropped = append(dropped, renderLine(msg))
		}
		msgs = msgs[len(msgs)-maxMessages:]
	}

	lines := make([]string, len(msgs))
	total := 0
	for i, msg := range msgs {
		lines[i] = renderLine(msg)
		total += len(lines[i]) + 1
	}

	for maxChars > 0 && total > maxChars && len(lines) > 1 {
		total -= len(lines[0]) + 1
		dropped = append(dropped, lines[0])
		lines = lines[1:]
	}

	return joinLines(lines), dropped
}

func renderLine(msg Message) string {
	return fmt.Sprintf("%s: %s", msg.Role, msg.Content)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
