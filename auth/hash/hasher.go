// Package hash turns credential composites into salted, iterated digests.
//
// A Hasher is configured once and is then a pure function of its input:
//
//	h, err := hash.New(hash.Config{Algorithm: hash.SHA256, Salt: "pepper", Iterations: 50})
//	digest, err := h.Hash(ctx, "alice+secret+1700000000000")
//
// Digests are PBKDF2-HMAC over the selected algorithm, hex encoded. The input
// is never logged or retained.
package hash

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	apperrors "github.com/kbukum/authtoken/errors"
)

// MetaSeparator separates the fields of a digest produced with IncludeMeta.
// It must never be the token field delimiter.
const MetaSeparator = "$"

// Hasher computes deterministic salted digests. It is immutable and safe for
// concurrent use.
type Hasher struct {
	algorithm   Algorithm
	salt        []byte
	iterations  int
	includeMeta bool
	generated   bool
}

// New creates a Hasher from cfg. Defaults are applied to a copy of cfg.
func New(cfg Config) (*Hasher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Hasher{
		algorithm:   cfg.Algorithm,
		iterations:  cfg.Iterations,
		includeMeta: cfg.IncludeMeta,
	}
	salt := cfg.Salt
	if salt == "" {
		generated, err := GenerateSalt()
		if err != nil {
			return nil, err
		}
		salt = generated
		h.generated = true
	}
	h.salt = []byte(salt)
	return h, nil
}

// Algorithm returns the configured algorithm.
func (h *Hasher) Algorithm() Algorithm { return h.algorithm }

// Iterations returns the configured round count.
func (h *Hasher) Iterations() int { return h.iterations }

// GeneratedSalt reports whether the salt was generated at construction.
func (h *Hasher) GeneratedSalt() bool { return h.generated }

// Hash returns the digest of input. The computation runs on its own goroutine
// so a cancelled ctx is honoured even when the round count is high; the
// abandoned computation finishes in the background and its result is dropped.
func (h *Hasher) Hash(ctx context.Context, input string) (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	done := make(chan string, 1)
	go func() {
		done <- h.Sum(input)
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case digest := <-done:
		return digest, nil
	}
}

// Sum computes the digest synchronously. A zero Hasher yields an empty string.
func (h *Hasher) Sum(input string) string {
	newHash, ok := algorithms[h.algorithm]
	if !ok {
		return ""
	}
	size := newHash().Size()
	key := pbkdf2.Key([]byte(input), h.salt, h.iterations, size, newHash)
	digest := hex.EncodeToString(key)
	if !h.includeMeta {
		return digest
	}
	return strings.Join([]string{string(h.algorithm), strconv.Itoa(h.iterations), digest}, MetaSeparator)
}

// Validate checks that the hasher is usable. A zero-value Hasher is not.
func (h *Hasher) Validate() error {
	if h == nil || !Supported(h.algorithm) {
		return apperrors.Hash("hasher is not configured", nil)
	}
	return nil
}
