package vectordb

import (
	"errors"
	"fmt"
)

// Error kinds form the transport-agnostic vocabulary every layer
// translates its failures into. HTTP/DTO adapters (out of scope here) map
// these to status codes: NotFound->404, Validation->400, Conflict->409,
// Busy->409, Internal->500.
var (
	// ErrNotFound is returned when a requested library/document/chunk is missing.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for dimension mismatches, zero vectors,
	// invalid index configs, negative k, or empty query vectors.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an optimistic CAS commit finds the
	// entity's version has moved; the caller should re-read and retry.
	ErrConflict = errors.New("version conflict")

	// ErrBusy is returned when acquiring a library lock times out or is
	// cancelled.
	ErrBusy = errors.New("resource busy")

	// ErrInternal indicates an invariant violation. Never retried.
	ErrInternal = errors.New("internal error")
)

// FieldError wraps one of the sentinel kinds above with the originating
// field path, so validation failures can be traced back to the offending
// input without losing the kind for translateError-style dispatch.
type FieldError struct {
	Kind  error
	Field string
	msg   string
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %q)", e.Kind, e.msg, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// NewValidationError builds a field-scoped validation error.
func NewValidationError(field, msg string) error {
	return &FieldError{Kind: ErrValidation, Field: field, msg: msg}
}

// NewNotFoundError builds a not-found error naming the missing entity.
func NewNotFoundError(what, field string) error {
	return &FieldError{Kind: ErrNotFound, Field: field, msg: what}
}

// NewConflictError builds a conflict error naming the entity that moved.
func NewConflictError(what, field string) error {
	return &FieldError{Kind: ErrConflict, Field: field, msg: what}
}

// NewInternalError builds an internal invariant-violation error.
func NewInternalError(msg string) error {
	return &FieldError{Kind: ErrInternal, msg: msg}
}

// Is lets errors.Is(err, ErrNotFound) etc. see through wrapping layers
// (store, index, service) without each layer re-declaring the sentinels.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
