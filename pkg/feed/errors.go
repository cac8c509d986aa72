package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedSource is returned by NewSource for an unknown kind.
	ErrUnsupportedSource = errors.New("unsupported feed source")

	// ErrBadStatus is the cause of a FetchError for a non-200 response.
	ErrBadStatus = errors.New("unexpected HTTP status")
)

// FetchError describes a failed snapshot fetch.
type FetchError struct {
	Source string // file or http
	Target string // path or URL
	Status int    // HTTP status, 0 when not applicable
	Cause  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s %s (status %d): %v", e.Source, e.Target, e.Status, e.Cause)
	}
	return fmt.Sprintf("fetch %s %s: %v", e.Source, e.Target, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *FetchError) Unwrap() error {
	return e.Cause
}
