// Package expiry computes token expiry timestamps and renewal windows.
//
// Timestamps are kept at millisecond precision so they survive the token
// wire format unchanged.
package expiry

import (
	"time"

	apperrors "github.com/kbukum/authtoken/errors"
)

// RenewPolicy controls when a validated token is replaced with a fresh one.
type RenewPolicy string

const (
	// RenewAlways renews tokens from any transport.
	RenewAlways RenewPolicy = "always"
	// RenewNever never renews; tokens lapse at their original expiry.
	RenewNever RenewPolicy = "never"
	// RenewCookieOnly renews only tokens that arrived in the auth cookie.
	RenewCookieOnly RenewPolicy = "cookie-only"
)

// Valid reports whether p is a known policy.
func (p RenewPolicy) Valid() bool {
	switch p {
	case RenewAlways, RenewNever, RenewCookieOnly:
		return true
	}
	return false
}

// AllowsRenewal reports whether a token that arrived via the cookie
// (fromCookie) or via a query/body parameter may be renewed.
func (p RenewPolicy) AllowsRenewal(fromCookie bool) bool {
	switch p {
	case RenewAlways:
		return true
	case RenewCookieOnly:
		return fromCookie
	default:
		return false
	}
}

// AbsoluteExpiry returns now+d at millisecond precision.
func AbsoluteExpiry(d time.Duration, now time.Time) time.Time {
	return time.UnixMilli(now.Add(d).UnixMilli())
}

// IsExpired reports whether expiresAt has been reached.
func IsExpired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}

// NeedsRenewal reports whether a still-valid token expires within window.
func NeedsRenewal(expiresAt, now time.Time, window time.Duration) bool {
	if IsExpired(expiresAt, now) {
		return false
	}
	return expiresAt.Sub(now) <= window
}

// Clock returns the current time.
type Clock func() time.Time

// Policy binds a lifetime, renewal window and clock.
type Policy struct {
	lifetime time.Duration
	window   time.Duration
	now      Clock
}

// New creates a Policy. A zero window means the whole lifetime, so every
// validated token is due for renewal. A nil clock uses time.Now.
func New(lifetime, window time.Duration, clock Clock) (*Policy, error) {
	if lifetime <= 0 {
		return nil, apperrors.Config("expiry: lifetime must be positive (got: %s)", lifetime)
	}
	if window < 0 {
		return nil, apperrors.Config("expiry: renew window must not be negative (got: %s)", window)
	}
	if window == 0 || window > lifetime {
		window = lifetime
	}
	if clock == nil {
		clock = time.Now
	}
	return &Policy{lifetime: lifetime, window: window, now: clock}, nil
}

// Lifetime returns the default token lifetime.
func (p *Policy) Lifetime() time.Duration { return p.lifetime }

// Window returns the renewal window.
func (p *Policy) Window() time.Duration { return p.window }

// Now returns the policy clock's current time.
func (p *Policy) Now() time.Time { return p.now() }

// ExpiresAt returns the expiry for a token minted now with lifetime d.
// A non-positive d uses the default lifetime.
func (p *Policy) ExpiresAt(d time.Duration) time.Time {
	if d <= 0 {
		d = p.lifetime
	}
	return AbsoluteExpiry(d, p.now())
}

// Expired reports whether expiresAt has passed on the policy clock.
func (p *Policy) Expired(expiresAt time.Time) bool {
	return IsExpired(expiresAt, p.now())
}

// RenewalDue reports whether expiresAt falls inside the renewal window.
func (p *Policy) RenewalDue(expiresAt time.Time) bool {
	return NeedsRenewal(expiresAt, p.now(), p.window)
}
