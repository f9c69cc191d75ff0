package password

import (
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/validation"
)

// Algorithm represents supported password hashing algorithms.
type Algorithm string

const (
	// AlgorithmBcrypt is bcrypt hashing (widely supported, recommended for compatibility).
	AlgorithmBcrypt Algorithm = "bcrypt"

	// AlgorithmArgon2id is argon2id hashing (modern, recommended for new directories).
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config configures how new password hashes are produced. Verification
// accepts either algorithm regardless of this setting.
type Config struct {
	// Algorithm selects the hashing algorithm (default: "bcrypt").
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm" validate:"oneof=bcrypt argon2id"`

	// BcryptCost is the bcrypt cost parameter (default: 12, range: 4-31).
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost" validate:"min=4,max=31"`

	// Argon2Time is the number of iterations for argon2id (default: 1).
	Argon2Time uint32 `yaml:"argon2_time" mapstructure:"argon2_time" validate:"min=1"`

	// Argon2Memory is the memory usage in KiB for argon2id (default: 65536 = 64MB).
	Argon2Memory uint32 `yaml:"argon2_memory" mapstructure:"argon2_memory" validate:"min=8"`

	// Argon2Threads is the parallelism for argon2id (default: 4).
	Argon2Threads uint8 `yaml:"argon2_threads" mapstructure:"argon2_threads" validate:"min=1"`

	// MinLength is the minimum password length (default: 8).
	MinLength int `yaml:"min_length" mapstructure:"min_length" validate:"min=1"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
	if c.MinLength == 0 {
		c.MinLength = 8
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		msg := err.Error()
		if appErr, ok := apperrors.AsAppError(err); ok {
			msg = appErr.Message
		}
		return apperrors.Config("invalid password configuration: %s", msg)
	}
	return nil
}

// NewHasher creates the Hasher cfg selects.
func NewHasher(cfg Config) (Hasher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Algorithm {
	case AlgorithmArgon2id:
		return NewArgon2Hasher(
			WithArgon2Time(cfg.Argon2Time),
			WithArgon2Memory(cfg.Argon2Memory),
			WithArgon2Threads(cfg.Argon2Threads),
			WithArgon2MinLength(cfg.MinLength),
		), nil
	default:
		return NewBcryptHasher(WithCost(cfg.BcryptCost), WithMinLength(cfg.MinLength)), nil
	}
}
