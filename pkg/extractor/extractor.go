package extractor

import (
	"context"
	"errors"
	"fmt"
)

// DocumentExtractor is the narrow structured-extraction collaborator: it
// takes raw document bytes plus a natural-language instruction describing the
// desired JSON shape and returns raw model text. The returned text may be
// wrapped in markdown fencing; parsing and validation stay on this side.
type DocumentExtractor interface {
	ExtractStructured(ctx context.Context, document []byte, instruction string, schemaHint string) (string, error)
}

var (
	// ErrEmptyDocument is returned for zero-length input.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrUnsupportedFormat is returned when the input is not a PDF.
	ErrUnsupportedFormat = errors.New("unsupported document format, expected PDF")
)

// ExtractionFailedError wraps failures of the external extraction call.
// Recovered upstream as an empty outcome list with a user-visible notice.
type ExtractionFailedError struct {
	Err error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.Err
}

// MalformedResponseError marks model output that failed schema validation
// after fence stripping. Kept distinct from a well-formed empty result so the
// user is told the document could not be read rather than that it contains no
// outcomes.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed extractor response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
