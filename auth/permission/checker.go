package permission

import (
	"context"
	"sync"

	"github.com/kbukum/authtoken/auth"
)

// MapChecker is an in-memory auth.PermissionChecker backed by a map of
// subject → permission patterns. Supports wildcard matching via MatchPattern.
// It is safe for concurrent use; Grant may be called while requests are served.
type MapChecker struct {
	mu          sync.RWMutex
	permissions map[string][]string
}

var _ auth.PermissionChecker = (*MapChecker)(nil)

// NewMapChecker creates a checker from a static map of subject → permission patterns.
//
// Example:
//
//	checker := permission.NewMapChecker(map[string][]string{
//	    "alice": {"*:*"},
//	    "bob":   {"report:*", "profile:read"},
//	})
func NewMapChecker(permissions map[string][]string) *MapChecker {
	copied := make(map[string][]string, len(permissions))
	for subject, patterns := range permissions {
		copied[subject] = append([]string(nil), patterns...)
	}
	return &MapChecker{permissions: copied}
}

// Grant adds patterns for subject.
func (c *MapChecker) Grant(subject string, patterns ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permissions[subject] = append(c.permissions[subject], patterns...)
}

// HasPermission reports whether subject holds the required permission.
func (c *MapChecker) HasPermission(subject string, required string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	patterns, ok := c.permissions[subject]
	if !ok {
		return false
	}
	return MatchAny(patterns, required)
}

// CheckPermissions implements auth.PermissionChecker. The subject is derived
// from identity with SubjectOf; an identity without a subject holds nothing.
func (c *MapChecker) CheckPermissions(_ context.Context, identity any, required []string) (bool, error) {
	subject, ok := SubjectOf(identity)
	if !ok {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return MatchAll(c.permissions[subject], required), nil
}

// SubjectOf extracts the username a request identity stands for. It knows
// plain strings, auth.Subject and anything with a GetUsername method.
func SubjectOf(identity any) (string, bool) {
	switch id := identity.(type) {
	case string:
		return id, id != ""
	case auth.Subject:
		return id.Username, id.Username != ""
	case *auth.Subject:
		if id == nil {
			return "", false
		}
		return id.Username, id.Username != ""
	case interface{ GetUsername() string }:
		name := id.GetUsername()
		return name, name != ""
	}
	return "", false
}
