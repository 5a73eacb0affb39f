package kb

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyRetriever struct {
	failures  int
	retrieves int
	generates int
	passages  []Passage
}

func (f *flakyRetriever) Retrieve(ctx context.Context, collection, query string, topK int) ([]Passage, error) {
	f.retrieves++
	if f.retrieves <= f.failures {
		return nil, &RetrievalFailedError{Collection: collection, Err: errors.New("transient")}
	}
	return f.passages, nil
}

func (f *flakyRetriever) RetrieveAndGenerate(ctx context.Context, req GenerateRequest) (*GeneratedAnswer, error) {
	f.generates++
	if f.generates <= f.failures {
		return nil, &RetrievalFailedError{Collection: req.Collection, Err: errors.New("transient")}
	}
	return &GeneratedAnswer{Text: "ok"}, nil
}

func TestRetryRecoversFromSingleFailure(t *testing.T) {
	inner := &flakyRetriever{failures: 1, passages: []Passage{{EntryID: "e1"}}}
	r := WithRetry(inner, log.New(io.Discard, "", 0))

	passages, err := r.Retrieve(context.Background(), "outcome-indicators", "soil health", 5)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
	assert.Equal(t, 2, inner.retrieves)
}

func TestRetryGivesUpAfterSecondFailure(t *testing.T) {
	inner := &flakyRetriever{failures: 2}
	r := WithRetry(inner, log.New(io.Discard, "", 0))

	_, err := r.RetrieveAndGenerate(context.Background(), GenerateRequest{Collection: "indicator-methods", Query: "q"})
	require.Error(t, err)
	assert.True(t, IsRetrievalFailed(err))
	assert.Equal(t, 2, inner.generates, "exactly one retry, no more")
}

func TestRetrieveIsIdempotentAcrossCalls(t *testing.T) {
	inner := &flakyRetriever{passages: []Passage{{EntryID: "e1", Score: 0.9}}}
	r := WithRetry(inner, log.New(io.Discard, "", 0))

	first, err := r.Retrieve(context.Background(), "c", "q", 3)
	require.NoError(t, err)
	second, err := r.Retrieve(context.Background(), "c", "q", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
