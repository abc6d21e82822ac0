package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	KindInsufficientData ErrorKind = "insufficient_data"
	KindInvalidParameter ErrorKind = "invalid_parameter"
	KindModelFailure     ErrorKind = "model_failure"
	KindConfiguration    ErrorKind = "configuration_error"
	KindNotFound         ErrorKind = "not_found"
	KindUnsupportedModel ErrorKind = "unsupported_model"
	KindInternal         ErrorKind = "internal"
)

// Error is a typed failure carrying a short user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// for wrapped errors built with NewError.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks; they only carry a kind.
var (
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrInvalidParameter = &Error{Kind: KindInvalidParameter}
	ErrModelFailure     = &Error{Kind: KindModelFailure}
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrUnsupportedModel = &Error{Kind: KindUnsupportedModel}
)

// NewError builds a typed error.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a typed error around a cause.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// UserMessage returns the short message of the first *Error in the chain,
// falling back to err.Error().
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
