package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when the quiz exists but the caller has no completed attempt.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrUnauthorized is returned when a request carries no usable identity.
	ErrUnauthorized = errors.New("user not authenticated")
	// ErrForbidden is returned when the identity lacks the required role.
	ErrForbidden = errors.New("permission denied")
)

// FieldError describes a problem with a single input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports a malformed submission or definition.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(msg string, fields ...FieldError) error {
	return &ValidationError{Err: errors.New(msg), Fields: fields}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StorageError wraps a persistence failure that cannot be recovered locally.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
