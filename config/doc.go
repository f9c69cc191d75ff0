// Package config loads process configuration with Viper.
//
// A config.yml is searched under ./cmd/<service>/, ./config/ and the working
// directory; a .env file is loaded through godotenv; environment variables
// override both. Values land in a caller-supplied struct through mapstructure
// tags:
//
//	var cfg struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Auth auth.Config     `mapstructure:"auth"`
//	}
//	err := config.LoadConfig("authtoken", &cfg)
package config
