package permission

import (
	"context"
	"errors"

	"github.com/kbukum/authtoken/auth"
	apperrors "github.com/kbukum/authtoken/errors"
)

// ErrNoChecker is the cause reported when a route requires permissions but no
// PermissionChecker was configured.
var ErrNoChecker = errors.New("permission: no PermissionChecker configured")

// Gate decides whether an identity may reach a protected operation.
type Gate struct {
	checker auth.PermissionChecker
}

// NewGate creates a Gate. checker may be nil when no route requires
// permissions beyond being authenticated.
func NewGate(checker auth.PermissionChecker) *Gate {
	return &Gate{checker: checker}
}

// Authorize returns nil when identity may proceed.
//
//   - nil identity: UNAUTHENTICATED (401)
//   - no required permissions: any identity passes, the checker is not called
//   - checker returns false: FORBIDDEN (403)
//   - checker error: returned unchanged
func (g *Gate) Authorize(ctx context.Context, identity any, required []string) error {
	if identity == nil {
		return apperrors.Unauthenticated()
	}
	if len(required) == 0 {
		return nil
	}
	if g.checker == nil {
		return apperrors.Internal(ErrNoChecker)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := g.checker.CheckPermissions(ctx, identity, required)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("").WithDetail("required", required)
	}
	return nil
}
