// Package directory is a YAML-backed user directory that provides every
// collaborator the authentication pipeline needs.
//
//	users:
//	  alice:
//	    name: Alice Example
//	    password_hash: $argon2id$v=19$m=65536,t=1,p=4$...
//	    permissions: [admin, "reports:*"]
//
// The password hash doubles as the token secret, so replacing it (or
// disabling the user) invalidates every token the user holds.
package directory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/authtoken/auth"
	"github.com/kbukum/authtoken/auth/password"
	"github.com/kbukum/authtoken/auth/permission"
	"github.com/kbukum/authtoken/auth/token"
	apperrors "github.com/kbukum/authtoken/errors"
)

// Entry is one user as stored in the directory file.
type Entry struct {
	Name         string   `yaml:"name,omitempty"`
	PasswordHash string   `yaml:"password_hash"`
	Permissions  []string `yaml:"permissions,omitempty"`
	Disabled     bool     `yaml:"disabled,omitempty"`
}

type file struct {
	Users map[string]Entry `yaml:"users"`
}

// Profile is the identity attached to authenticated requests.
type Profile struct {
	Username    string   `json:"username"`
	Name        string   `json:"name,omitempty"`
	Permissions []string `json:"permissions"`
}

// GetUsername lets permission checks resolve the subject of a Profile.
func (p *Profile) GetUsername() string { return p.Username }

// Directory holds the users of one directory file. Lookups are safe for
// concurrent use with Reload and Put.
type Directory struct {
	path string

	mu      sync.RWMutex
	users   map[string]Entry
	checker *permission.MapChecker
	// decoy is checked for unknown users so a failed login costs the same
	// whether or not the name exists.
	decoy string
}

var verifyPassword = password.Verify

// Load reads the directory file at path.
func Load(path string) (*Directory, error) {
	d := &Directory{path: path}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Open is Load for a file that may not exist yet. A missing file gives an
// empty directory that Save will create.
func Open(path string) (*Directory, error) {
	d, err := Load(path)
	if err == nil {
		return d, nil
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, fs.ErrNotExist) {
		return nil, err
	}
	d = &Directory{path: path}
	if err := d.replace(nil); err != nil {
		return nil, err
	}
	return d, nil
}

// New builds an in-memory directory. Save fails on it.
func New(users map[string]Entry) (*Directory, error) {
	d := &Directory{}
	if err := d.replace(users); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-reads the directory file. On error the previous users are kept.
func (d *Directory) Reload() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return apperrors.Config("directory: read %s: %v", d.path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return apperrors.Config("directory: parsing %s: %v", d.path, err)
	}
	return d.replace(f.Users)
}

func (d *Directory) replace(users map[string]Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.replaceLocked(users)
}

// replaceLocked validates users and swaps them in. d.mu must be held.
func (d *Directory) replaceLocked(users map[string]Entry) error {
	grants := make(map[string][]string, len(users))
	for username, e := range users {
		if err := token.ValidateUsername(username); err != nil {
			return apperrors.Config("directory: user %q: %s", username, err.Error())
		}
		if e.PasswordHash == "" {
			return apperrors.Config("directory: user %q has no password_hash", username)
		}
		if !e.Disabled {
			grants[username] = e.Permissions
		}
	}
	if users == nil {
		users = map[string]Entry{}
	}

	d.users = users
	d.checker = permission.NewMapChecker(grants)
	d.decoy = decoyHash(users)
	return nil
}

// decoyHash picks a stored hash with the directory's own cost parameters.
func decoyHash(users map[string]Entry) string {
	names := make([]string, 0, len(users))
	for u := range users {
		names = append(names, u)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return users[names[0]].PasswordHash
}

func (d *Directory) entry(username string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.users[username]
	if !ok || e.Disabled {
		return Entry{}, false
	}
	return e, true
}

// Usernames returns the enabled users, sorted.
func (d *Directory) Usernames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.users))
	for u, e := range d.users {
		if !e.Disabled {
			names = append(names, u)
		}
	}
	sort.Strings(names)
	return names
}

// AuthenticateUser checks a password against the stored hash. Unknown,
// disabled and mismatched users yield a nil principal and a reason for the
// log; a corrupt stored hash is an error.
func (d *Directory) AuthenticateUser(ctx context.Context, username, pw string) (auth.Principal, string, error) {
	e, ok := d.entry(username)
	if !ok {
		d.mu.RLock()
		decoy := d.decoy
		d.mu.RUnlock()
		if decoy != "" {
			_ = verifyPassword(pw, decoy)
		}
		return nil, "unknown or disabled user", nil
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if err := verifyPassword(pw, e.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, "password mismatch", nil
		}
		return nil, "", fmt.Errorf("directory: user %q: %w", username, err)
	}
	return auth.User{Username: username, Secret: e.PasswordHash}, "", nil
}

// LookupSecret returns the user's current password hash.
func (d *Directory) LookupSecret(_ context.Context, username string) (string, error) {
	e, ok := d.entry(username)
	if !ok {
		return "", auth.ErrUserNotFound
	}
	return e.PasswordHash, nil
}

// PopulateUser returns the user's Profile.
func (d *Directory) PopulateUser(_ context.Context, username string) (any, error) {
	e, ok := d.entry(username)
	if !ok {
		return nil, apperrors.Unauthorized("").WithCause(auth.ErrUserNotFound)
	}
	return &Profile{
		Username:    username,
		Name:        e.Name,
		Permissions: append([]string(nil), e.Permissions...),
	}, nil
}

// CheckPermissions checks the grants of the current directory contents.
func (d *Directory) CheckPermissions(ctx context.Context, identity any, required []string) (bool, error) {
	d.mu.RLock()
	checker := d.checker
	d.mu.RUnlock()
	return checker.CheckPermissions(ctx, identity, required)
}

// Collaborators wires the directory into a pipeline.
func (d *Directory) Collaborators() auth.Collaborators {
	return auth.Collaborators{
		Authenticator: d,
		Secrets:       d,
		Permissions:   d,
		Populator:     d,
	}
}

// Put adds or replaces a user in memory. Call Save to persist.
func (d *Directory) Put(username string, e Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	users := make(map[string]Entry, len(d.users)+1)
	for u, existing := range d.users {
		users[u] = existing
	}
	users[username] = e
	return d.replaceLocked(users)
}

// Save writes the directory back to its file, replacing it atomically.
func (d *Directory) Save() error {
	if d.path == "" {
		return apperrors.Config("directory: no file to save to")
	}
	d.mu.RLock()
	data, err := yaml.Marshal(file{Users: d.users})
	d.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("directory: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".users-*.yml")
	if err != nil {
		return fmt.Errorf("directory: save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("directory: save: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("directory: save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("directory: save: %w", err)
	}
	return os.Rename(tmp.Name(), d.path)
}
