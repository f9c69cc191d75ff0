package main

import (
	"github.com/kbukum/authtoken/auth"
	"github.com/kbukum/authtoken/auth/password"
	"github.com/kbukum/authtoken/config"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/observability"
	"github.com/kbukum/authtoken/server"
	"github.com/kbukum/authtoken/validation"
	"github.com/kbukum/authtoken/version"
)

const serviceName = "authtoken"

// Config is the full configuration of the authtoken command.
type Config struct {
	config.ServiceConfig `mapstructure:",squash"`

	Server    server.Config   `yaml:"server" mapstructure:"server"`
	Auth      auth.Config     `yaml:"auth" mapstructure:"auth"`
	Password  password.Config `yaml:"password" mapstructure:"password"`
	Directory string          `yaml:"directory" mapstructure:"directory"`
	Telemetry Telemetry       `yaml:"telemetry" mapstructure:"telemetry"`
}

// Telemetry enables OTLP export of traces and metrics.
type Telemetry struct {
	Tracing bool                       `yaml:"tracing" mapstructure:"tracing"`
	Metrics bool                       `yaml:"metrics" mapstructure:"metrics"`
	Tracer  observability.TracerConfig `yaml:"tracer" mapstructure:"tracer"`
	Meter   observability.MeterConfig  `yaml:"meter" mapstructure:"meter"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Password.ApplyDefaults()
	if c.Directory == "" {
		c.Directory = "users.yml"
	}

	tracer := observability.DefaultTracerConfig(c.Name)
	if c.Telemetry.Tracer.Endpoint == "" {
		c.Telemetry.Tracer.Endpoint = tracer.Endpoint
	}
	if c.Telemetry.Tracer.SampleRate == 0 {
		c.Telemetry.Tracer.SampleRate = tracer.SampleRate
	}
	meter := observability.DefaultMeterConfig(c.Name)
	if c.Telemetry.Meter.Endpoint == "" {
		c.Telemetry.Meter.Endpoint = meter.Endpoint
	}
	if c.Telemetry.Meter.Interval == 0 {
		c.Telemetry.Meter.Interval = meter.Interval
	}
	for _, svc := range []*string{&c.Telemetry.Tracer.ServiceName, &c.Telemetry.Meter.ServiceName} {
		if *svc == "" {
			*svc = c.Name
		}
	}
	for _, v := range []*string{&c.Telemetry.Tracer.ServiceVersion, &c.Telemetry.Meter.ServiceVersion} {
		if *v == "" {
			*v = version.GetShortVersion()
		}
	}
	for _, env := range []*string{&c.Telemetry.Tracer.Environment, &c.Telemetry.Meter.Environment} {
		if *env == "" {
			*env = c.Environment
		}
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("service", c.ServiceConfig.Validate())
	v.Merge("server", c.Server.Validate())
	v.Merge("auth", c.Auth.Validate())
	v.Merge("password", c.Password.Validate())
	v.Required("directory", c.Directory)
	if appErr := v.Validate(); appErr != nil {
		return apperrors.Config("invalid configuration: %s", appErr.Message).
			WithDetail("fields", v.Errors())
	}
	return nil
}

// loadConfig reads config.yml, .env and the environment.
func loadConfig(opts rootOptions) (*Config, error) {
	// Defaults for the keys most often set from the environment, so
	// variables like AUTH_AUTH_TOKEN_HASH_SALT bind to a known key.
	loaderOpts := []config.LoaderOption{
		config.WithDefault("directory", "users.yml"),
		config.WithDefault("auth.expires", auth.DefaultExpires),
		config.WithDefault("auth.auth_token_hash.salt", ""),
		config.WithDefault("server.port", 8080),
	}
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, loaderOpts...); err != nil {
		return nil, apperrors.Config("%s", err.Error())
	}
	if opts.directory != "" {
		cfg.Directory = opts.directory
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
