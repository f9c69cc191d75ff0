package server

import (
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/security"
	"github.com/kbukum/authtoken/server/middleware"
	"github.com/kbukum/authtoken/util"
	"github.com/kbukum/authtoken/validation"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"gte=0,max=65535"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`                  // e.g. "10MB"
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	TLS          security.TLSConfig    `yaml:"tls" mapstructure:"tls"`

	// LoginRateLimit caps login attempts per client IP per minute. 0 disables it.
	LoginRateLimit int `yaml:"login_rate_limit" mapstructure:"login_rate_limit" validate:"gte=0"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-Id"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	v := validation.New().Merge("server", validation.Validate(c))
	if c.MaxBodySize != "" {
		if _, err := util.ParseBytes(c.MaxBodySize); err != nil {
			v.AddError("max_body_size", err.Error())
		}
	}
	v.Merge("tls", c.TLS.Validate())
	if appErr := v.Validate(); appErr != nil {
		return apperrors.Config("invalid server configuration: %s", appErr.Message).
			WithDetail("fields", v.Errors())
	}
	return nil
}
