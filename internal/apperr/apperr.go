// Package apperr defines the error taxonomy shared by the attendance components.
// Components return *Error values; only the HTTP layer maps kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes an error.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindAuth             Kind = "auth"
	KindBiometric        Kind = "biometric"
	KindLocationRejected Kind = "location_rejected"
	KindStorage          Kind = "storage"
	KindConflict         Kind = "conflict"
	KindTimeout          Kind = "timeout"
	KindInternal         Kind = "internal"
)

// Error is a categorized error with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a detail to the error and returns it.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Auth(message string) *Error       { return New(KindAuth, message) }
func Biometric(message string) *Error  { return New(KindBiometric, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }

// Storage wraps a durable-write failure.
func Storage(message string, err error) *Error {
	return Wrap(KindStorage, message, err)
}

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message of err, or a generic message for
// errors outside the taxonomy so internals are not leaked.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
