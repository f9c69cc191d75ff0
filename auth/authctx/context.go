// Package authctx carries the authenticated identity through context.Context.
//
// Two values are stored: the verified username, which the pipeline always
// sets, and the identity, which is whatever the host's Populator returned
// (auth.Subject when none is configured). The identity is read with generics
// so each host retrieves its own type:
//
//	name, ok := authctx.Username(ctx)
//	user, ok := authctx.Get[*MyUser](ctx)
//	user := authctx.MustGet[*MyUser](ctx) // panics if missing
package authctx

import (
	"context"
	"errors"
)

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey int

const (
	identityKey contextKey = iota
	usernameKey
)

// SetUsername stores the verified username in the context.
func SetUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// Username returns the verified username, if any.
func Username(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}

// Set stores the request identity in the context.
func Set(ctx context.Context, identity any) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Identity returns the stored identity untyped, or nil when the request is anonymous.
func Identity(ctx context.Context) any {
	return ctx.Value(identityKey)
}

// Get retrieves the typed identity from the context.
// Returns the identity and true if found and of the correct type,
// or zero value and false otherwise.
func Get[T any](ctx context.Context) (T, bool) {
	val := ctx.Value(identityKey)
	if val == nil {
		var zero T
		return zero, false
	}
	identity, ok := val.(T)
	return identity, ok
}

// MustGet retrieves the typed identity from the context.
// Panics if it is missing or of the wrong type.
// Use in handlers where the pipeline and a permission gate guarantee it exists.
func MustGet[T any](ctx context.Context) T {
	identity, ok := Get[T](ctx)
	if !ok {
		panic("authctx: identity not found in context or wrong type")
	}
	return identity
}

// ErrNoIdentity is returned when no identity is found in the context.
var ErrNoIdentity = errors.New("authctx: no identity in context")

// GetOrError retrieves the typed identity from the context.
// Returns ErrNoIdentity if it is missing or of the wrong type.
func GetOrError[T any](ctx context.Context) (T, error) {
	identity, ok := Get[T](ctx)
	if !ok {
		var zero T
		return zero, ErrNoIdentity
	}
	return identity, nil
}
