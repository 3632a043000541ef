package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer. Concrete errors wrap one of these so
// callers can classify them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTenantRequired    = errors.New("organization id is required")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing row.
func NotFoundError(format string, args ...any) error {
	return newKindError(ErrNotFound, format, args...)
}

// ConflictError reports a uniqueness or state conflict.
func ConflictError(format string, args ...any) error {
	return newKindError(ErrConflict, format, args...)
}

// ValidationError reports bad input.
func ValidationError(format string, args ...any) error {
	return newKindError(ErrValidation, format, args...)
}

// ForbiddenError reports a cross-tenant access attempt.
func ForbiddenError(format string, args ...any) error {
	return newKindError(ErrForbidden, format, args...)
}

// TransitionError reports a status change the state machine does not allow.
func TransitionError(entity string, from, to fmt.Stringer) error {
	return newKindError(ErrInvalidTransition, "invalid %s status transition: %s -> %s", entity, from, to)
}
