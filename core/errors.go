package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// StructuralError flags a dangling courseware reference: a pathway child or
// resume element that no longer exists in the current deployment change.
// It is surfaced to the caller and never retried internally.
type StructuralError struct {
	ElementID   string
	ElementType string
	Reason      string
}

func NewStructuralError(elementID, elementType, reason string) error {
	return &StructuralError{ElementID: elementID, ElementType: elementType, Reason: reason}
}

func (err StructuralError) Error() string {
	return fmt.Sprintf("structural fault on %s %q: %s", err.ElementType, err.ElementID, err.Reason)
}

func IsStructural(err error) bool {
	_, ok := errors.Cause(err).(*StructuralError)
	return ok
}

// ConflictError flags a stale progress write: the record read as the base of
// a recompute was superseded before the write landed. Recoverable by re-read.
type ConflictError struct {
	Key string
}

func (err ConflictError) Error() string {
	return fmt.Sprintf("concurrent write conflict on %s", err.Key)
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
