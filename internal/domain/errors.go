package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every user-visible failure wraps exactly one of these so
// handlers can map it to a transport status with errors.Is.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidReference = errors.New("invalid reference")
	ErrBadRequest       = errors.New("bad request")
)

type kindedError struct {
	kind error
	msg  string
}

func (e *kindedError) Error() string { return e.msg }
func (e *kindedError) Unwrap() error { return e.kind }

// Errorf builds an error of the given kind carrying a human-readable
// message. The kind is matched with errors.Is, the message is what the
// caller sees.
func Errorf(kind error, format string, args ...any) error {
	return &kindedError{kind: kind, msg: fmt.Sprintf(format, args...)}
}
