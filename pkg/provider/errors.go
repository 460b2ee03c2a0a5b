package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a completion failure for retry decisions.
type ErrorKind string

const (
	// KindTransient covers failures that may succeed on a later attempt:
	// network errors, server-side 5xx responses, and rate limiting.
	KindTransient ErrorKind = "transient"

	// KindNonRetryable covers failures that repeating cannot fix:
	// malformed requests and authentication problems.
	KindNonRetryable ErrorKind = "non_retryable"
)

// Error is a structured completion failure. Status carries the HTTP status
// code when the failure came from an HTTP response, zero otherwise.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrEmptyCompletion marks a completion that succeeded at the transport
// level but carried no text. Transient: backends occasionally return empty
// choices under load and succeed on retry.
var ErrEmptyCompletion = &Error{Kind: KindTransient, Message: "backend returned an empty completion"}

// NewTransientError creates an Error of kind transient.
func NewTransientError(status int, message string) *Error {
	return &Error{Kind: KindTransient, Status: status, Message: message}
}

// NewNonRetryableError creates an Error of kind non-retryable.
func NewNonRetryableError(status int, message string) *Error {
	return &Error{Kind: KindNonRetryable, Status: status, Message: message}
}

// IsTransient reports whether err is a transient completion failure.
// Unclassified errors are treated as transient so unknown transport
// failures still get retried.
func IsTransient(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindTransient
	}
	return err != nil
}

// IsNonRetryable reports whether err is a non-retryable completion failure.
func IsNonRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindNonRetryable
	}
	return false
}
