package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found
// (or is soft-deleted and hidden from the caller).
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrConflict indicates a uniqueness violation or an operation that clashes
// with the resource's current state; the caller must change its input.
var ErrConflict = errors.New("resource conflict")

// ErrInvalidReference indicates that an account's refID could not be
// resolved against the corresponding entity directory.
var ErrInvalidReference = errors.New("invalid entity reference")

// ErrStorageConflict indicates concurrent-write contention in the backing
// store (serialization failure, deadlock). Transient; safe to retry the
// whole posting call.
var ErrStorageConflict = errors.New("storage write conflict")

// ErrStorageUnavailable indicates the backing store is unreachable.
// Transient; surfaced as a 5xx-equivalent after retries are exhausted.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside a message and an
// optional wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping an underlying cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a 404 AppError that matches ErrNotFound in
// errors.Is checks.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
