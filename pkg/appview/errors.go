package appview

import (
	"errors"
	"fmt"
)

// ErrUpstream is the base error for failed upstream calls. The resolution
// pipeline collapses it into a not-found outcome; it is never retried and
// never cached.
var ErrUpstream = errors.New("upstream request failed")

// StatusError wraps a non-success upstream HTTP status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.StatusCode)
}

// Unwrap makes StatusError match ErrUpstream via errors.Is.
func (e *StatusError) Unwrap() error {
	return ErrUpstream
}
