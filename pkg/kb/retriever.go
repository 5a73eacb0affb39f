package kb

import (
	"context"
)

// Passage is one ranked retrieval result from a knowledge collection.
type Passage struct {
	EntryID string
	Title   string
	Content string
	Score   float32
}

// Citation points back at the knowledge entry a generated answer drew on.
type Citation struct {
	EntryID string
	Title   string
}

// GeneratedAnswer is grounded generation output: answer text plus the
// citations for the passages it was conditioned on.
type GeneratedAnswer struct {
	Text      string
	Citations []Citation
}

// GenerateRequest describes one retrieve-and-generate call. Conversation, if
// non-empty, is a rendered transcript of prior turns ("role: content" lines)
// that is prepended to the query so the stateless call stays conditioned on
// the dialogue.
type GenerateRequest struct {
	Collection   string
	Query        string
	ModelRef     string
	Conversation string
}

// Retriever is the knowledge-store collaborator. Retrieval is read-only and
// idempotent for identical inputs, which makes retries safe.
type Retriever interface {
	Retrieve(ctx context.Context, collection, query string, topK int) ([]Passage, error)
	RetrieveAndGenerate(ctx context.Context, req GenerateRequest) (*GeneratedAnswer, error)
}
