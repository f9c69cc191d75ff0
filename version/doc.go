// Package version reports the build of the authtoken binary.
//
// Version, git commit, branch and build time are set at compile time
// via -ldflags; anything left unset is filled from the module build info:
//
//	go build -ldflags "-X github.com/kbukum/authtoken/version.Version=1.0.0" ./cmd/authtoken
package version
