package service

import (
	"errors"
	"fmt"
)

// ErrorKind names a caller-visible failure of a synchronous operation.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindInvalidArgument ErrorKind = "invalid-argument"
)

// CallerError is returned when the caller must fix its request before
// retrying. It is never retried here.
type CallerError struct {
	Kind    ErrorKind
	Message string
}

func (e *CallerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newCallerError(kind ErrorKind, msg string) *CallerError {
	return &CallerError{Kind: kind, Message: msg}
}

// AsCallerError reports whether err carries a CallerError.
func AsCallerError(err error) (*CallerError, bool) {
	var ce *CallerError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
