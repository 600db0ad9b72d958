package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable marks network or backend failures of a source
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrInvalidQuery marks query text a source refuses to run
	ErrInvalidQuery = errors.New("invalid query")
)

// SourceError attributes a failure to the source that produced it
type SourceError struct {
	SourceID string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q: %v", e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err so that it matches ErrSourceUnavailable
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
