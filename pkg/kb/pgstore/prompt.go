package pgstore

import (
	"fmt"
	"strings"

	"regen-advisor-be/pkg/kb"
)

// buildGroundedPrompt assembles the generation prompt: prior conversation
// first (so the stateless call stays conditioned on the dialogue), then the
// retrieved passages, then the question.
func buildGroundedPrompt(conversation string, passages []kb.Passage, query string) string {
	var b strings.Builder

	if conversation != "" {
		b.WriteString("Previous conversation:\n")
		b.WriteString(conversation)
		b.WriteString("\n\n")
	}

	if len(passages) > 0 {
		b.WriteString("Reference passages:\n")
		for i, p := range passages {
			title := p.Title
			if title == "" {
				title = "untitled"
			}
			fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, title, p.Content)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No reference passages were found for this question.\n\n")
	}

	b.WriteString(query)
	b.WriteString("\n\nAnswer using only the reference passages above. Cite passages as (Reference [N]) where used. If the passages do not cover the question, say so.")

	return b.String()
}
