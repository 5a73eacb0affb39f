package extractor

import (
	"bytes"
	"context"
	"log"

	"regen-advisor-be/pkg/utils"
)

var pdfMagic = []byte("%PDF-")

// OutcomeExtractor turns raw PDF bytes into the document's list of outcome
// descriptions through one structured-extraction call.
type OutcomeExtractor struct {
	provider    DocumentExtractor
	instruction string
	schemaHint  string
	logger      *log.Logger
}

func NewOutcomeExtractor(provider DocumentExtractor, instruction, schemaHint string, logger *log.Logger) *OutcomeExtractor {
	return &OutcomeExtractor{
		provider:    provider,
		instruction: instruction,
		schemaHint:  schemaHint,
		logger:      logger,
	}
}

// Extract returns every outcome description found in the document, in the
// model's response order, deduplicated by normalized text. A document with no
// outcomes yields an empty slice and no error; unparsable model output yields
// a MalformedResponseError instead of being conflated with "no outcomes".
func (e *OutcomeExtractor) Extract(ctx context.Context, document []byte) ([]string, error) {
	if len(document) == 0 {
		return nil, ErrEmptyDocument
	}
	if !bytes.HasPrefix(document, pdfMagic) {
		return nil, ErrUnsupportedFormat
	}

	raw, err := e.provider.ExtractStructured(ctx, document, e.instruction, e.schemaHint)
	if err != nil {
		return nil, &ExtractionFailedError{Err: err}
	}

	descriptions, err := utils.DecodeStringArray(raw)
	if err != nil {
		e.logger.Printf("[EXTRACT] Unparsable model output (%v): %s", err, truncate(raw, 200))
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	seen := make(map[string]bool, len(descriptions))
	outcomes := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		key := utils.NormalizeName(d)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		outcomes = append(outcomes, d)
	}

	e.logger.Printf("[EXTRACT] Extracted %d outcomes (%d raw)", len(outcomes), len(descriptions))
	return outcomes, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
