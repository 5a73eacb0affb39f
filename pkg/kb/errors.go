package kb

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned before any external call is made.
	ErrEmptyQuery = errors.New("query text must not be empty")

	// ErrInvalidTopK is returned when topK < 1.
	ErrInvalidTopK = errors.New("topK must be at least 1")
)

// RetrievalFailedError marks an external knowledge service failure. The
// pipeline catches it and substitutes an empty result for the affected
// entity instead of aborting, flagging the stage as partially failed.
type RetrievalFailedError struct {
	Collection string
	Err        error
}

func (e *RetrievalFailedError) Error() string {
	return fmt.Sprintf("retrieval failed for collection %q: %v", e.Collection, e.Err)
}

func (e *RetrievalFailedError) Unwrap() error {
	return e.Err
}

// IsRetrievalFailed reports whether err is (or wraps) a retrieval failure.
func IsRetrievalFailed(err error) bool {
	var rf *RetrievalFailedError
	return errors.As(err, &rf)
}
