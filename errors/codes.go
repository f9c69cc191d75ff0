package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration and runtime errors
const (
	// ErrCodeConfig indicates invalid configuration. Fatal at startup.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"
	// ErrCodeHash indicates the digest algorithm failed or is unsupported.
	ErrCodeHash ErrorCode = "HASH_ERROR"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Token errors
const (
	// ErrCodeMalformedToken indicates a token that could not be decoded.
	ErrCodeMalformedToken ErrorCode = "MALFORMED_TOKEN"
	// ErrCodeInvalidSignature indicates a token whose signature does not verify.
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	// ErrCodeTokenExpired indicates the authentication token has expired.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
)

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnauthorized indicates failed login or a rejected token.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeUnauthenticated indicates a protected operation was reached without an identity.
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	// ErrCodeForbidden indicates the identity lacks the required permissions.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeMethodNotAllowed indicates the login route was called with the wrong method.
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	// ErrCodeRateLimited indicates the client sent too many requests.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:     true,
	ErrCodeRateLimited: true,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
