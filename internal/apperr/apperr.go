package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, client-facing error code. Codes never change once
// published; clients key retry/abort decisions off them.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeValidation   Code = "validation"
	CodeInvalidState Code = "invalid_state"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal"

	// Gateway HTTP status family
	CodeGatewayBadRequest   Code = "gateway_bad_request"
	CodeGatewayUnauthorized Code = "gateway_unauthorized"
	CodeGatewayNotFound     Code = "gateway_not_found"
	CodeGatewayConflict     Code = "gateway_conflict"
	CodeGatewayValidation   Code = "gateway_validation"
	CodeGatewayRateLimited  Code = "gateway_rate_limited"
	CodeGatewayInternal     Code = "gateway_internal"
	CodeBadGateway          Code = "bad_gateway"
	CodeGatewayUnknown      Code = "gateway_unknown"

	// Transport family, distinguished so callers can retry
	CodeGatewayTimeout     Code = "gateway_timeout"
	CodeGatewayUnavailable Code = "gateway_unavailable"
)

// Error is a structured application error carrying a stable code and an
// optional per-field message map for validation failures.
type Error struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that records an underlying cause. The cause is
// logged, never serialized to clients.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// NotFound is shorthand for an ownership/absence failure.
func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

// Validation builds a per-field validation error.
func Validation(fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

// InvalidState is a domain-state rejection with a human-readable reason.
func InvalidState(reason string) *Error {
	return &Error{Code: CodeInvalidState, Message: reason}
}

// Internal wraps an unexpected error without leaking its detail to clients.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "internal server error", cause: cause}
}

// Retryable reports whether the caller may reasonably retry the operation.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeGatewayTimeout, CodeGatewayUnavailable, CodeGatewayRateLimited,
		CodeGatewayInternal, CodeBadGateway:
		return true
	}
	return false
}

// HTTPStatus maps the code onto an HTTP response status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound, CodeGatewayNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeInvalidState, CodeGatewayBadRequest, CodeGatewayValidation:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeGatewayUnauthorized:
		return http.StatusUnauthorized
	case CodeGatewayConflict:
		return http.StatusConflict
	case CodeGatewayRateLimited:
		return http.StatusTooManyRequests
	case CodeBadGateway, CodeGatewayInternal, CodeGatewayUnknown:
		return http.StatusBadGateway
	case CodeGatewayTimeout, CodeGatewayUnavailable:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromError extracts an *Error, wrapping unknown errors as internal.
func FromError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
