package fetch

import (
	"errors"
	"fmt"
)

var (
	ErrFetch             = errors.New("fetch failed")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrTimeout           = errors.New("fetch timed out")
	ErrTooLarge          = errors.New("download exceeds size limit")
)

// Reports a response with a non-2xx status code.
type StatusError struct {
	URL    string // Requested URL.
	Status int    // HTTP status code.
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// Returns [ErrFetch].
func (e *StatusError) Unwrap() error { return ErrFetch }
