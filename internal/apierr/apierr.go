// Package apierr defines the error taxonomy shared by every core package.
// Core packages return these typed errors; only the HTTP gate and handlers
// translate a Code to a status code (see internal/api).
package apierr

import (
	"errors"
	"fmt"
)

// Code is one of the fixed taxonomy entries from the error handling design.
type Code string

const (
	CodeValidationFailure  Code = "validation_failure"
	CodeDomainRefusal      Code = "domain_refusal"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeTokenRevoked       Code = "token_revoked"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeRateLimited        Code = "rate_limited"
	CodeUpstreamFailure    Code = "upstream_failure"
	CodeConfigMissing      Code = "configuration_missing"
)

// Error is the typed result returned from core packages instead of raising
// HTTP-shaped exceptions deep inside services.
type Error struct {
	Code       Code
	Message    string
	RetryAfter int // seconds; only meaningful for CodeRateLimited
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a typed error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a typed error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// RateLimited builds the rate-limited error carrying the Retry-After value.
func RateLimited(message string, retryAfterSeconds int) *Error {
	return &Error{Code: CodeRateLimited, Message: message, RetryAfter: retryAfterSeconds}
}

// CodeOf returns the taxonomy Code carried by err (found via errors.As),
// and false when err is not, and does not wrap, an *Error.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// StatusFor maps a taxonomy Code to its HTTP status. This is the single
// place that translation happens; internal/gate and internal/api handlers
// are the only callers that should invoke it.
func StatusFor(code Code) int {
	switch code {
	case CodeValidationFailure:
		return 422
	case CodeDomainRefusal:
		return 400
	case CodeInvalidCredentials, CodeTokenRevoked:
		return 401
	case CodeForbidden:
		return 403
	case CodeNotFound:
		return 404
	case CodeRateLimited:
		return 429
	case CodeUpstreamFailure:
		return 502
	case CodeConfigMissing:
		return 500
	default:
		return 500
	}
}

// StatusForErr resolves the status for any error, defaulting to 500 when
// err does not carry a typed Code.
func StatusForErr(err error) int {
	code, ok := CodeOf(err)
	if !ok {
		return 500
	}
	return StatusFor(code)
}
