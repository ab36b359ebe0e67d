// Package domainerrors provides coded errors so failure is part of the return
// contract rather than a side channel. Services construct these at the point
// where a domain rule is violated; transport translates codes to HTTP status.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of a domain error.
type Code string

const (
	// CodeInvalidInput: caller supplied a bad window, ID, or parameter.
	// Rejected before any network call is made.
	CodeInvalidInput Code = "invalid_input"
	// CodeUpstream: the order or geolocation source failed after retries.
	CodeUpstream Code = "upstream_error"
	// CodeRateLimited: the caller exhausted its window quota.
	CodeRateLimited Code = "rate_limited"
	// CodeNotFound: the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnavailable: a required backend is temporarily unreachable.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation: a domain invariant was broken at construction.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal: unexpected failure; details are not safe to expose.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a stable code and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// Returns nil if err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the domain code from an error chain.
// Returns CodeInternal for non-domain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether the error chain contains a domain error with the code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
