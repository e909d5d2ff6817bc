package resolver

import (
	"errors"
	"fmt"
)

// ErrNotFound is the single failure value of the resolution pipeline.
// Unresolvable identities, absent upstream objects, missing sub-indexes,
// and upstream unavailability all collapse into it; the proxy does not
// distinguish "doesn't exist" from "couldn't check".
var ErrNotFound = errors.New("not found")

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string {
	return e.msg
}

func (e *notFoundError) Unwrap() error {
	return ErrNotFound
}

// notFoundf builds a descriptive not-found value for the 404 body.
func notFoundf(format string, args ...any) error {
	return &notFoundError{msg: fmt.Sprintf(format, args...)}
}
