package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Configuration / runtime ---

// Config creates a new AppError for invalid configuration.
func Config(format string, args ...any) *AppError {
	return &AppError{
		Code: ErrCodeConfig, Message: fmt.Sprintf(format, args...),
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Hash creates a new AppError for a digest failure.
func Hash(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeHash, Message: reason,
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// Internal creates a new AppError for an internal server error.
// The cause is kept for logs and never rendered in the response.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// --- Tokens ---

// MalformedToken creates a new AppError for a token that could not be decoded.
func MalformedToken(reason string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedToken, Message: reason,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidSignature creates a new AppError for a token whose signature does not match.
func InvalidSignature() *AppError {
	return &AppError{
		Code: ErrCodeInvalidSignature, Message: "Token signature does not match.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenExpired creates a new AppError for an expired authentication token.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "Your session has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// --- Requests ---

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Unauthenticated creates a new AppError for a protected operation reached without an identity.
func Unauthenticated() *AppError {
	return &AppError{
		Code: ErrCodeUnauthenticated, Message: "Authentication required.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a new AppError for forbidden access.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &AppError{
		Code: ErrCodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// MethodNotAllowed creates a new AppError for a route called with an unsupported method.
func MethodNotAllowed(route string, allowed ...string) *AppError {
	return &AppError{
		Code: ErrCodeMethodNotAllowed, Message: fmt.Sprintf("%s only supports %s requests", route, strings.Join(allowed, ", ")),
		HTTPStatus: http.StatusMethodNotAllowed,
		Details:    map[string]any{"allowed": allowed},
	}
}

// RateLimited creates a new AppError for a client over its request budget.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please slow down.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}
