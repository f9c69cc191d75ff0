// Package password hashes and verifies the passwords of a user directory.
//
// The stored hash is also the user's token secret: it is what tokens are
// signed with, so changing a password revokes every token minted before.
//
//	h, _ := password.NewHasher(password.Config{Algorithm: password.AlgorithmArgon2id})
//	stored, err := h.Hash("correct horse")
//	err = password.Verify("correct horse", stored) // nil, or ErrMismatch
//
// Verify accepts bcrypt and argon2id hashes side by side, so a directory can
// migrate algorithms one password change at a time.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/kbukum/authtoken/errors"
)

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("password: mismatch")

// Hasher produces password hashes.
type Hasher interface {
	// Hash returns a hashed representation of the password.
	Hash(password string) (string, error)

	// Verify checks if a password matches the given hash.
	// Returns nil if they match, ErrMismatch otherwise.
	Verify(password, hash string) error
}

// Verify checks password against a bcrypt or argon2id hash, choosing the
// algorithm from the hash prefix. Malformed hashes are INVALID_INPUT errors.
func Verify(password, hash string) error {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return (&Argon2Hasher{}).Verify(password, hash)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return (&BcryptHasher{}).Verify(password, hash)
	default:
		return apperrors.Validation("unrecognised password hash format")
	}
}

func checkLength(password string, minLen int) error {
	if len(password) < minLen {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minLen))
	}
	return nil
}

// --- Bcrypt Implementation ---

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost   int
	minLen int
}

// BcryptOption configures the bcrypt hasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the bcrypt cost parameter (default: 12, range: 4-31).
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithMinLength sets the minimum accepted password length (default: 8).
func WithMinLength(n int) BcryptOption {
	return func(h *BcryptHasher) { h.minLen = n }
}

// NewBcryptHasher creates a bcrypt-based password hasher.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: 12, minLen: 8}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if err := checkLength(password, h.minLen); err != nil {
		return "", err
	}
	if len(password) > 72 {
		return "", apperrors.Validation("password must be at most 72 bytes (bcrypt limit)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return apperrors.Validation("invalid bcrypt hash").WithCause(err)
	}
}

// --- Argon2id Implementation ---

// Argon2Hasher implements Hasher using argon2id.
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
	minLen  int
}

// Argon2Option configures the argon2id hasher.
type Argon2Option func(*Argon2Hasher)

// WithArgon2Time sets the number of iterations (default: 1).
func WithArgon2Time(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.time = t }
}

// WithArgon2Memory sets the memory usage in KiB (default: 64*1024 = 64MB).
func WithArgon2Memory(m uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.memory = m }
}

// WithArgon2Threads sets the parallelism (default: 4).
func WithArgon2Threads(t uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.threads = t }
}

// WithArgon2MinLength sets the minimum accepted password length (default: 8).
func WithArgon2MinLength(n int) Argon2Option {
	return func(h *Argon2Hasher) { h.minLen = n }
}

// NewArgon2Hasher creates an argon2id-based password hasher.
// Defaults follow OWASP recommendations: time=1, memory=64MB, threads=4.
func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{
		time:    1,
		memory:  64 * 1024,
		threads: 4,
		keyLen:  32,
		saltLen: 16,
		minLen:  8,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash encodes as $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH.
// The encoding never contains ':' so it is safe as a token secret.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	if err := checkLength(password, h.minLen); err != nil {
		return "", err
	}

	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the key with the parameters recorded in encodedHash.
func (h *Argon2Hasher) Verify(password, encodedHash string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return apperrors.Validation("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return apperrors.Validation("unsupported argon2id version")
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return apperrors.Validation("invalid argon2id parameters").WithCause(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return apperrors.Validation("invalid argon2id salt").WithCause(err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return apperrors.Validation("invalid argon2id key").WithCause(err)
	}

	key := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expected)))
	if subtle.ConstantTimeCompare(key, expected) != 1 {
		return ErrMismatch
	}
	return nil
}
