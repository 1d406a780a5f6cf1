package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for HTTP mapping and client handling.
type Code string

const (
	CodeValidation           Code = "validation"
	CodeNotFound             Code = "not_found"
	CodeInvalidTransition    Code = "invalid_transition"
	CodeLimitExceeded        Code = "limit_exceeded"
	CodeSubscriptionInactive Code = "subscription_inactive"
	CodeTenantDisabled       Code = "tenant_disabled"
	CodeAuthorization        Code = "authorization"
	CodeAmbiguousMatch       Code = "ambiguous_match"
	CodeDownstream           Code = "downstream"
	CodeInternal             Code = "internal"
)

// Error is the service-layer error type. Handlers translate it into the
// standard JSON error envelope; everything else maps to internal.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails attaches field-level detail to the error.
func (e *Error) WithDetails(details map[string]string) *Error {
	e.Details = details
	return e
}

// Validation is shorthand for a field-level validation failure.
func Validation(field, message string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "validation failed",
		Details: map[string]string{field: message},
	}
}

// NotFound is shorthand for a missing entity.
func NotFound(resource string) *Error {
	return Newf(CodeNotFound, "%s not found", resource)
}

// InvalidTransition describes an illegal lifecycle transition.
func InvalidTransition(from, event string) *Error {
	return Newf(CodeInvalidTransition, "cannot %s a visitor in status %q", event, from)
}

// LimitExceeded carries the limit name, current usage and the ceiling so the
// client can render an upgrade prompt.
func LimitExceeded(limitName string, current, limit int) *Error {
	return &Error{
		Code:    CodeLimitExceeded,
		Message: fmt.Sprintf("%s limit reached", limitName),
		Details: map[string]string{
			"limit_name": limitName,
			"current":    fmt.Sprintf("%d", current),
			"limit":      fmt.Sprintf("%d", limit),
		},
	}
}

// CodeOf extracts the Code from err, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps an error code to its HTTP status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeInvalidTransition:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLimitExceeded, CodeSubscriptionInactive:
		return http.StatusPaymentRequired
	case CodeTenantDisabled, CodeAuthorization:
		return http.StatusForbidden
	case CodeAmbiguousMatch:
		return http.StatusConflict
	case CodeDownstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
