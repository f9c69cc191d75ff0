package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise searches for them.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.firstExisting(
			fmt.Sprintf("./cmd/%s/config.yml", serviceName),
			"./config/config.yml",
			"./config.yml",
		)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.firstExisting(
			fmt.Sprintf("./cmd/%s/.env", serviceName),
			fmt.Sprintf(".env.%s", serviceName),
			".env",
		)
	}
	return resolved
}

func (cr *Resolver) firstExisting(paths ...string) string {
	for _, p := range paths {
		if cr.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	Defaults   map[string]any
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithDefault registers a default for a dotted key ("auth.expires").
func WithDefault(key string, value any) LoaderOption {
	return func(lc *LoaderConfig) {
		if lc.Defaults == nil {
			lc.Defaults = make(map[string]any)
		}
		lc.Defaults[key] = value
	}
}

// LoadConfig loads configuration for a service into cfg.
//
// Precedence, lowest first: registered defaults, config.yml, .env, process
// environment. AUTH_TOKEN_HASH_SALT binds to auth.token_hash_salt,
// auth.token.hash_salt, auth_token_hash.salt and the other nestings, so env
// names work without an explicit key map.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	v := viper.New()
	for k, val := range lc.Defaults {
		v.SetDefault(k, val)
	}

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("config: load env file %s: %w", files.EnvFile, err)
		}
	}
	autoBindEnvVars(v, knownKeys(v))

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for service %s: %w", serviceName, err)
	}
	return nil
}

// knownKeys returns the set of keys viper already knows from defaults and file.
func knownKeys(v *viper.Viper) map[string]bool {
	keys := make(map[string]bool)
	for _, k := range v.AllKeys() {
		keys[k] = true
	}
	return keys
}

// autoBindEnvVars maps every environment variable onto each nested key
// variant it could address. Variants that match a known key win; otherwise
// all variants are set so structs without defaults still receive values.
func autoBindEnvVars(v *viper.Viper, known map[string]bool) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		variants := generateEnvKeyVariants(pair[0])
		matched := false
		for _, variant := range variants {
			if known[variant] {
				v.Set(variant, pair[1])
				matched = true
			}
		}
		if matched {
			continue
		}
		for _, variant := range variants {
			v.Set(variant, pair[1])
		}
	}
}

// generateEnvKeyVariants creates the key variants an env var can address.
//
//	AUTH_SECURE_COOKIE -> [auth_secure_cookie, auth.secure.cookie, auth.secure_cookie, auth_secure.cookie]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{lowerKey, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)

		head := strings.Join(parts[:i], "_")
		tail := strings.Join(parts[i:], ".")
		variants = append(variants, head+"."+tail)
	}
	if len(parts) >= 3 {
		variants = append(variants, parts[0]+"."+strings.Join(parts[1:len(parts)-1], "_")+"."+parts[len(parts)-1])
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
