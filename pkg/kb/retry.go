package kb

import (
	"context"
	"log"
)

// retryingRetriever retries each call at most once on failure. Retrieval is
// idempotent, so the second attempt cannot observe partial effects of the
// first.
type retryingRetriever struct {
	inner  Retriever
	logger *log.Logger
}

// WithRetry wraps r so every failed call is retried exactly once before the
// error propagates.
func WithRetry(r Retriever, logger *log.Logger) Retriever {
	return &retryingRetriever{inner: r, logger: logger}
}

func (r *retryingRetriever) Retrieve(ctx context.Context, collection, query string, topK int) ([]Passage, error) {
	passages, err := r.inner.Retrieve(ctx, collection, query, topK)
	if err == nil || ctx.Err() != nil {
		return passages, err
	}
	r.logger.Printf("[KB] Retrieve failed, retrying once: %v", err)
	return r.inner.Retrieve(ctx, collection, query, topK)
}

func (r *retryingRetriever) RetrieveAndGenerate(ctx context.Context, req GenerateRequest) (*GeneratedAnswer, error) {
	answer, err := r.inner.RetrieveAndGenerate(ctx, req)
	if err == nil || ctx.Err() != nil {
		return answer, err
	}
	r.logger.Printf("[KB] RetrieveAndGenerate failed, retrying once: %v", err)
	return r.inner.RetrieveAndGenerate(ctx, req)
}
