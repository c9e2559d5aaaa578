package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("already exists")
	ErrNotFound   = errors.New("not found")
	ErrIntegrity  = errors.New("has dependent records")
	ErrStorage    = errors.New("storage failure")
)

// FieldError pins a validation or conflict failure to one form field.
type FieldError struct {
	Field   string
	Message string
	kind    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.kind
}

func Conflict(field, message string) error {
	return &FieldError{Field: field, Message: message, kind: ErrConflict}
}

func Invalid(field, message string) error {
	return &FieldError{Field: field, Message: message, kind: ErrValidation}
}

// KindError carries a user facing message for a non-field failure.
type KindError struct {
	Message string
	kind    error
}

func (e *KindError) Error() string {
	return e.Message
}

func (e *KindError) Unwrap() error {
	return e.kind
}

func Integrity(message string) error {
	return &KindError{Message: message, kind: ErrIntegrity}
}

// Validation marks a rejected submission, keeping err in the chain.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Storage marks err as a persistence failure, keeping it in the chain.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func AsField(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
