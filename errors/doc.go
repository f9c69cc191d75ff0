// Package errors provides the error taxonomy shared by every authtoken package.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection following RFC 7807 and Google AIP-193.
//
// Token-level failures (malformed, expired, bad signature) carry their own codes
// for logs and metrics, but all of them map to 401 so responses never reveal
// which check failed.
package errors
