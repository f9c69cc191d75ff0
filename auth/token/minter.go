package token

import (
	"context"
	"time"

	"github.com/kbukum/authtoken/auth/expiry"
	"github.com/kbukum/authtoken/auth/hash"
)

// HashObserver is told how long each signature computation took.
type HashObserver func(ctx context.Context, op string, elapsed time.Duration)

// Option configures a Minter or Verifier.
type Option func(*options)

type options struct {
	observe HashObserver
}

// WithHashObserver reports signature timings to fn.
func WithHashObserver(fn HashObserver) Option {
	return func(o *options) { o.observe = fn }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// sign hashes the signing composite and reports the elapsed time.
func sign(ctx context.Context, h *hash.Hasher, o options, op, username, secret string, expiresAt time.Time) (string, error) {
	start := time.Now()
	sig, err := h.Hash(ctx, signingInput(username, secret, expiresAt))
	if o.observe != nil {
		o.observe(ctx, op, time.Since(start))
	}
	return sig, err
}

// Minter issues signed tokens. It holds no per-token state.
type Minter struct {
	hasher *hash.Hasher
	policy *expiry.Policy
	opts   options
}

// NewMinter creates a Minter over a configured hasher and expiry policy.
func NewMinter(h *hash.Hasher, p *expiry.Policy, opts ...Option) *Minter {
	return &Minter{hasher: h, policy: p, opts: buildOptions(opts)}
}

// Issue mints a token for username that expires lifetime from now. A
// non-positive lifetime uses the policy default. Hash failures and context
// cancellation are returned unchanged.
func (m *Minter) Issue(ctx context.Context, username, secret string, lifetime time.Duration) (Token, error) {
	if err := ValidateUsername(username); err != nil {
		return Token{}, err
	}
	expiresAt := m.policy.ExpiresAt(lifetime)
	sig, err := sign(ctx, m.hasher, m.opts, "mint", username, secret, expiresAt)
	if err != nil {
		return Token{}, err
	}
	return Token{Username: username, ExpiresAt: expiresAt, Signature: sig}, nil
}

// Mint is Issue returning the encoded wire token.
func (m *Minter) Mint(ctx context.Context, username, secret string, lifetime time.Duration) (string, error) {
	t, err := m.Issue(ctx, username, secret, lifetime)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// Renew mints a replacement for a verified token. The replacement gets a full
// lifetime from now rather than extending the original expiry.
func (m *Minter) Renew(ctx context.Context, res *Result, lifetime time.Duration) (Token, error) {
	return m.Issue(ctx, res.Username, res.secret, lifetime)
}
