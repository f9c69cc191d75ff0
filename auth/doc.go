// Package auth defines the host-facing contracts and configuration of the
// authtoken middleware.
//
// The middleware never stores passwords, sessions or permissions. The host
// application supplies them through Collaborators:
//
//	collab := auth.Collaborators{
//	    Authenticator: auth.AuthenticatorFunc(checkPassword),
//	    Secrets:       auth.SecretLookupFunc(currentPasswordHash),
//	    Permissions:   permission.NewMapChecker(roles), // optional
//	}
//
// Sub-packages implement the pieces:
//   - hash: salted, iterated digests
//   - expiry: lifetimes, expiry checks, renewal windows
//   - token: wire codec, minting and verification
//   - permission: the authorization gate
//   - authctx: identity propagation through context.Context
//   - pipeline: the net/http middleware tying it together
//   - password: host-side password hashing used by the bundled CLI
//   - directory: a YAML user file that provides every collaborator
package auth
