// Package apperrors defines the error taxonomy shared by the
// reconciliation services: missing entities, rejected input and
// transient store failures the caller may retry.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks across the taxonomy.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrTransient  = errors.New("transient store failure")
)

// NotFoundError reports a missing document, line, product or rule by
// resource name and the key the caller supplied.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NewNotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// ValidationError reports rejected input with the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransientError wraps a store failure that left no partial state;
// the caller should retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

func NewTransient(err error) error {
	return &TransientError{Err: err}
}
