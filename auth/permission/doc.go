// Package permission gates protected operations on externally decided
// permissions.
//
// A Gate wraps the host's auth.PermissionChecker. MapChecker is a built-in
// checker for small deployments: it maps a username to wildcard
// "resource:action" patterns (e.g., "report:*" matches "report:read").
//
//	gate := permission.NewGate(permission.NewMapChecker(map[string][]string{
//	    "alice": {"*:*"},
//	    "bob":   {"report:read"},
//	}))
//	err := gate.Authorize(ctx, auth.Subject{Username: "bob"}, []string{"report:write"}) // FORBIDDEN
package permission
