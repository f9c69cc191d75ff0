// Package token mints, encodes and verifies opaque authentication tokens.
//
// The wire format is three fields joined by Delimiter:
//
//	<username>:<expiresAt unix milliseconds>:<signature>
//
// where signature = hash(username + "+" + secret + "+" + expiresAt). The
// server keeps no record of issued tokens; a token is valid while its
// signature matches the user's current secret and it has not expired.
package token

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kbukum/authtoken/errors"
)

// Delimiter joins the token fields. It must not appear in a username.
const Delimiter = ":"

// signingSeparator joins the parts of the signed composite.
const signingSeparator = "+"

// Token is the decoded form of a wire token.
type Token struct {
	Username  string
	ExpiresAt time.Time
	Signature string
}

// String encodes t for the wire.
func (t Token) String() string {
	return Encode(t.Username, t.ExpiresAt, t.Signature)
}

// Encode joins the fields into a wire token. expiresAt is truncated to
// milliseconds.
func Encode(username string, expiresAt time.Time, signature string) string {
	return username + Delimiter + strconv.FormatInt(expiresAt.UnixMilli(), 10) + Delimiter + signature
}

// Decode splits a wire token. It checks shape only; signature and expiry are
// the verifier's business. Failures are MALFORMED_TOKEN errors.
func Decode(raw string) (Token, error) {
	parts := strings.Split(raw, Delimiter)
	if len(parts) != 3 {
		return Token{}, apperrors.MalformedToken("expected 3 fields, got " + strconv.Itoa(len(parts)))
	}
	username, expires, signature := parts[0], parts[1], parts[2]
	if username == "" {
		return Token{}, apperrors.MalformedToken("empty username")
	}
	if signature == "" {
		return Token{}, apperrors.MalformedToken("empty signature")
	}
	ms, err := parseMillis(expires)
	if err != nil {
		return Token{}, apperrors.MalformedToken("expiresAt is not a timestamp")
	}
	return Token{Username: username, ExpiresAt: time.UnixMilli(ms), Signature: signature}, nil
}

// parseMillis accepts unsigned decimal integers only.
func parseMillis(s string) (int64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(s, 10, 64)
}

// ValidateUsername rejects usernames that cannot round-trip through the codec.
func ValidateUsername(username string) error {
	if username == "" {
		return apperrors.Validation("username is required")
	}
	if strings.Contains(username, Delimiter) {
		return apperrors.Validation("username must not contain " + strconv.Quote(Delimiter))
	}
	return nil
}

// signingInput builds the composite that is hashed into the signature.
func signingInput(username, secret string, expiresAt time.Time) string {
	return username + signingSeparator + secret + signingSeparator + strconv.FormatInt(expiresAt.UnixMilli(), 10)
}
