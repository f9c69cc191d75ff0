package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/authtoken/auth"
	"github.com/kbukum/authtoken/auth/expiry"
	"github.com/kbukum/authtoken/auth/hash"
	apperrors "github.com/kbukum/authtoken/errors"
)

// Reason says why a token was rejected. Reasons are for logs and metrics;
// callers must not reveal them to the client.
type Reason string

const (
	ReasonInvalidToken     Reason = "invalid_token"
	ReasonExpired          Reason = "expired"
	ReasonInvalidSignature Reason = "invalid_signature"
)

// Rejection is returned by Verify when the token itself is unacceptable.
// It is never a server fault.
type Rejection struct {
	Reason Reason
	// Username is set when the token decoded far enough to name a user.
	Username string
	Err      error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("token rejected (%s): %v", r.Reason, r.Err)
	}
	return fmt.Sprintf("token rejected (%s)", r.Reason)
}

func (r *Rejection) Unwrap() error { return r.Err }

// AppError maps the rejection onto the error taxonomy. All of them are 401.
func (r *Rejection) AppError() *apperrors.AppError {
	switch r.Reason {
	case ReasonExpired:
		return apperrors.TokenExpired()
	case ReasonInvalidSignature:
		return apperrors.InvalidSignature()
	default:
		if appErr, ok := apperrors.AsAppError(r.Err); ok {
			return appErr
		}
		return apperrors.MalformedToken("unreadable token")
	}
}

// AsRejection reports whether err is a token rejection.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Result is an accepted token.
type Result struct {
	Username  string
	ExpiresAt time.Time
	// RenewDue is set when the token is inside the renewal window. Whether to
	// act on it depends on the renewal policy and the transport.
	RenewDue bool

	// secret is the material the signature was checked against, kept so a
	// renewal does not need a second lookup.
	secret string
}

// ShouldRenew applies policy to the renewal hint.
func (r *Result) ShouldRenew(policy expiry.RenewPolicy, fromCookie bool) bool {
	return r.RenewDue && policy.AllowsRenewal(fromCookie)
}

// Verifier checks wire tokens. It holds no per-token state, so verifying the
// same token twice gives the same answer as long as the secret and clock agree.
type Verifier struct {
	hasher *hash.Hasher
	policy *expiry.Policy
	opts   options
}

// NewVerifier creates a Verifier over the same hasher and policy the Minter uses.
func NewVerifier(h *hash.Hasher, p *expiry.Policy, opts ...Option) *Verifier {
	return &Verifier{hasher: h, policy: p, opts: buildOptions(opts)}
}

// Verify decodes raw, checks expiry, then recomputes the signature from the
// user's current secret. Token problems come back as *Rejection. A lookup
// failure other than auth.ErrUserNotFound, a hash failure or a cancelled
// ctx are returned as they are.
func (v *Verifier) Verify(ctx context.Context, raw string, lookup auth.SecretLookup) (*Result, error) {
	t, err := Decode(raw)
	if err != nil {
		return nil, &Rejection{Reason: ReasonInvalidToken, Err: err}
	}
	if v.policy.Expired(t.ExpiresAt) {
		return nil, &Rejection{Reason: ReasonExpired, Username: t.Username}
	}

	secret, err := lookup.LookupSecret(ctx, t.Username)
	if errors.Is(err, auth.ErrUserNotFound) {
		// Unknown users pay the same hashing cost as known ones.
		if _, herr := sign(ctx, v.hasher, v.opts, "verify", t.Username, "", t.ExpiresAt); herr != nil {
			return nil, herr
		}
		return nil, &Rejection{Reason: ReasonInvalidSignature, Username: t.Username, Err: err}
	}
	if err != nil {
		return nil, err
	}

	expected, err := sign(ctx, v.hasher, v.opts, "verify", t.Username, secret, t.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(t.Signature)) != 1 {
		return nil, &Rejection{Reason: ReasonInvalidSignature, Username: t.Username}
	}

	return &Result{
		Username:  t.Username,
		ExpiresAt: t.ExpiresAt,
		RenewDue:  v.policy.RenewalDue(t.ExpiresAt),
		secret:    secret,
	}, nil
}
