package hash

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	apperrors "github.com/kbukum/authtoken/errors"
)

const (
	DefaultAlgorithm  = SHA256
	DefaultIterations = 50

	// generatedSaltLen is the length of the salt generated when none is configured.
	generatedSaltLen = 6
)

// Config configures the salted, iterated digest.
type Config struct {
	// Algorithm is the digest function (default: sha256).
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm"`

	// Salt is mixed into every digest. When empty a random salt is generated
	// at construction, so tokens do not survive a restart.
	Salt string `yaml:"salt" mapstructure:"salt"`

	// Iterations is the PBKDF2 round count (default: 50).
	Iterations int `yaml:"iterations" mapstructure:"iterations"`

	// IncludeMeta prefixes the digest with "<algorithm>$<iterations>$".
	IncludeMeta bool `yaml:"include_meta" mapstructure:"include_meta"`
}

// ApplyDefaults sets defaults for zero-valued fields. It does not generate a salt.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	c.Algorithm = Algorithm(strings.ToLower(string(c.Algorithm)))
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !Supported(c.Algorithm) {
		return apperrors.Hash(fmt.Sprintf("unsupported algorithm: %q (supported: %s)",
			c.Algorithm, strings.Join(Algorithms(), ", ")), nil)
	}
	if c.Iterations < 1 {
		return apperrors.Config("auth_token_hash.iterations must be >= 1 (got: %d)", c.Iterations)
	}
	return nil
}

// GenerateSalt returns a random hex salt of generatedSaltLen characters.
func GenerateSalt() (string, error) {
	b := make([]byte, generatedSaltLen/2)
	if _, err := rand.Read(b); err != nil {
		return "", apperrors.Hash("generate salt", err)
	}
	return hex.EncodeToString(b), nil
}
