package extractor

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) ExtractStructured(ctx context.Context, document []byte, instruction string, schemaHint string) (string, error) {
	f.calls++
	return f.response, f.err
}

func newTestExtractor(p DocumentExtractor) *OutcomeExtractor {
	return NewOutcomeExtractor(p, "extract outcomes", "", log.New(io.Discard, "", 0))
}

var pdfDoc = []byte("%PDF-1.7 fake content")

func TestExtractOutcomes(t *testing.T) {
	provider := &fakeProvider{
		response: "```json\n[\"Improved soil health\", \"Increased species diversity\", \"improved  soil health\"]\n```",
	}

	outcomes, err := newTestExtractor(provider).Extract(context.Background(), pdfDoc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Improved soil health", "Increased species diversity"}, outcomes,
		"duplicates must be dropped by normalized description")
}

func TestExtractEmptyResultIsNotAnError(t *testing.T) {
	provider := &fakeProvider{response: "[]"}

	outcomes, err := newTestExtractor(provider).Extract(context.Background(), pdfDoc)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestExtractMalformedResponse(t *testing.T) {
	provider := &fakeProvider{response: "This document does not list any outcomes."}

	_, err := newTestExtractor(provider).Extract(context.Background(), pdfDoc)
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed, "prose without a JSON array is malformed, not empty")
}

func TestExtractProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("network down")}

	_, err := newTestExtractor(provider).Extract(context.Background(), pdfDoc)
	var failed *ExtractionFailedError
	require.ErrorAs(t, err, &failed)
}

func TestExtractRejectsBadInput(t *testing.T) {
	ex := newTestExtractor(&fakeProvider{})

	_, err := ex.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ex.Extract(context.Background(), []byte("plain text file"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
