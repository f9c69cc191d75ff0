package auth

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned by a SecretLookup that does not know the user.
// The verifier treats it as a signature mismatch, never as a server fault.
var ErrUserNotFound = errors.New("auth: user not found")

// Principal is the identity returned by the host's credential check. The
// secret is whatever material the host wants bound into tokens (typically
// the stored password hash) so that changing it invalidates old tokens.
type Principal interface {
	GetUsername() string
	GetSecret() string
}

// User is a minimal Principal.
type User struct {
	Username string `json:"username"`
	Secret   string `json:"-"`
}

func (u User) GetUsername() string { return u.Username }
func (u User) GetSecret() string   { return u.Secret }

// Subject is the identity attached to a request when no Populator is configured.
type Subject struct {
	Username string `json:"username"`
}

// Authenticator verifies login credentials. A nil Principal (or a nil pointer
// implementing it) with a reason means bad credentials; a non-nil error means the check itself failed.
type Authenticator interface {
	AuthenticateUser(ctx context.Context, username, password string) (Principal, string, error)
}

// AuthenticatorFunc adapts an ordinary function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, username, password string) (Principal, string, error)

// AuthenticateUser implements Authenticator.
func (f AuthenticatorFunc) AuthenticateUser(ctx context.Context, username, password string) (Principal, string, error) {
	return f(ctx, username, password)
}

// SecretLookup resolves the current secret for a username during token
// verification. Unknown users return ErrUserNotFound.
type SecretLookup interface {
	LookupSecret(ctx context.Context, username string) (string, error)
}

// SecretLookupFunc adapts an ordinary function to the SecretLookup interface.
type SecretLookupFunc func(ctx context.Context, username string) (string, error)

// LookupSecret implements SecretLookup.
func (f SecretLookupFunc) LookupSecret(ctx context.Context, username string) (string, error) {
	return f(ctx, username)
}

// PermissionChecker decides whether identity holds every permission in required.
type PermissionChecker interface {
	CheckPermissions(ctx context.Context, identity any, required []string) (bool, error)
}

// PermissionCheckerFunc adapts an ordinary function to the PermissionChecker interface.
type PermissionCheckerFunc func(ctx context.Context, identity any, required []string) (bool, error)

// CheckPermissions implements PermissionChecker.
func (f PermissionCheckerFunc) CheckPermissions(ctx context.Context, identity any, required []string) (bool, error) {
	return f(ctx, identity, required)
}

// Populator enriches or replaces the identity attached to a request.
type Populator interface {
	PopulateUser(ctx context.Context, username string) (any, error)
}

// PopulatorFunc adapts an ordinary function to the Populator interface.
type PopulatorFunc func(ctx context.Context, username string) (any, error)

// PopulateUser implements Populator.
func (f PopulatorFunc) PopulateUser(ctx context.Context, username string) (any, error) {
	return f(ctx, username)
}

// Collaborators bundles the host-supplied behaviour a pipeline needs.
// Authenticator and Secrets are required; the rest are optional.
type Collaborators struct {
	Authenticator Authenticator
	Secrets       SecretLookup
	Permissions   PermissionChecker
	Populator     Populator
}

// Validate checks that the required collaborators are present.
func (c Collaborators) Validate() error {
	if c.Authenticator == nil {
		return errors.New("auth: an Authenticator must be registered before the pipeline is used")
	}
	if c.Secrets == nil {
		return errors.New("auth: a SecretLookup is required to verify tokens")
	}
	return nil
}
