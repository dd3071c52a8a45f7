package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so transports can map them without string matching
type ErrorKind string

const (
	KindNotFound                  ErrorKind = "not_found"
	KindInvalidInput              ErrorKind = "invalid_input"
	KindInvalidState              ErrorKind = "invalid_state"
	KindCapacityExceeded          ErrorKind = "capacity_exceeded"
	KindConflict                  ErrorKind = "conflict"
	KindExternalDependencyFailure ErrorKind = "external_dependency_failure"
	KindInternal                  ErrorKind = "internal"
)

// AppError is a classified error carrying a message that is safe to show to the caller
type AppError struct {
	Kind    ErrorKind
	Message string // Reason shown to the caller
	Err     error  // Underlying cause, never shown
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError creates a classified error with a formatted caller-facing message
func NewError(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error
func WrapError(kind ErrorKind, err error, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotFound(format string, args ...any) *AppError {
	return NewError(KindNotFound, format, args...)
}

func InvalidInput(format string, args ...any) *AppError {
	return NewError(KindInvalidInput, format, args...)
}

func InvalidState(format string, args ...any) *AppError {
	return NewError(KindInvalidState, format, args...)
}

func CapacityExceeded(format string, args ...any) *AppError {
	return NewError(KindCapacityExceeded, format, args...)
}

func Conflict(format string, args ...any) *AppError {
	return NewError(KindConflict, format, args...)
}

// ExternalFailure wraps an error from the payment provider or another remote dependency
func ExternalFailure(err error, format string, args ...any) *AppError {
	return &AppError{Kind: KindExternalDependencyFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-facing message, hiding unclassified errors
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again later."
}
