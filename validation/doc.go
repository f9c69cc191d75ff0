// Package validation checks configuration and request input.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    AuthRoute string `mapstructure:"auth_route" validate:"required"`
//	    SameSite  string `mapstructure:"same_site" validate:"oneof=lax strict none"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("username", name).ExcludesAny("username", name, ":")
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
