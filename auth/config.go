package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/authtoken/auth/expiry"
	"github.com/kbukum/authtoken/auth/hash"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/util"
	"github.com/kbukum/authtoken/validation"
)

// LoginResponse selects where a freshly minted login token is delivered.
type LoginResponse string

const (
	// LoginResponseBoth sets the cookie and returns {"authToken": ...}.
	LoginResponseBoth LoginResponse = "both"
	// LoginResponseCookie only sets the cookie; the body is empty JSON.
	LoginResponseCookie LoginResponse = "cookie"
	// LoginResponseBody only returns the token in the body.
	LoginResponseBody LoginResponse = "body"
)

// Cookie writes the token to the auth cookie.
func (m LoginResponse) Cookie() bool { return m != LoginResponseBody }

// Body returns the token in the login response payload.
func (m LoginResponse) Body() bool { return m != LoginResponseCookie }

const (
	DefaultExpires        = "2 hours"
	DefaultAuthRoute      = "auth-token"
	DefaultAuthParam      = "authToken"
	DefaultAuthCookie     = "authToken"
	DefaultCookiePath     = "/"
	DefaultSameSite       = "lax"
	DefaultRenewHeader    = "X-Auth-Token"
	DefaultMaxLoginBody   = "64KB"
	DefaultAutoRenewToken = expiry.RenewAlways
	DefaultLoginResponse  = LoginResponseBoth
)

// cookieNameSeparators are the characters RFC 6265 forbids in a cookie name.
const cookieNameSeparators = " \t()<>@,;:\\\"/[]?={}"

// Config holds the token authentication configuration as loaded from YAML or
// the environment via mapstructure.
type Config struct {
	// Expires is the default token lifetime, e.g. "2 hours" or "90m".
	Expires string `yaml:"expires" mapstructure:"expires" validate:"required"`

	// RenewWindow is how close to expiry a token must be before it is renewed.
	// Empty means the whole lifetime, so every validated request renews.
	RenewWindow string `yaml:"renew_window" mapstructure:"renew_window"`

	// AuthRoute is the login endpoint path, with or without a leading slash.
	AuthRoute string `yaml:"auth_route" mapstructure:"auth_route" validate:"required,excludesall=?#"`

	// AuthParam names the query and body parameter that carries a token.
	AuthParam string `yaml:"auth_param" mapstructure:"auth_param" validate:"required,printascii"`

	// AuthCookie names the cookie that carries a token.
	AuthCookie string `yaml:"auth_cookie" mapstructure:"auth_cookie" validate:"required,printascii"`

	SecureCookie    bool   `yaml:"secure_cookie" mapstructure:"secure_cookie"`
	DisableHTTPOnly bool   `yaml:"disable_http_only" mapstructure:"disable_http_only"`
	CookiePath      string `yaml:"cookie_path" mapstructure:"cookie_path"`
	CookieDomain    string `yaml:"cookie_domain" mapstructure:"cookie_domain"`
	SameSite        string `yaml:"same_site" mapstructure:"same_site" validate:"oneof=lax strict none"`

	// AutoRenewToken is the renewal policy: always, never or cookie-only.
	AutoRenewToken expiry.RenewPolicy `yaml:"auto_renew_token" mapstructure:"auto_renew_token" validate:"oneof=always never cookie-only"`

	// RenewHeader carries renewed tokens that did not arrive in the cookie.
	RenewHeader string `yaml:"renew_header" mapstructure:"renew_header" validate:"required"`

	// LoginResponse selects cookie, body or both for login tokens.
	LoginResponse LoginResponse `yaml:"login_response" mapstructure:"login_response" validate:"oneof=both cookie body"`

	// MaxLoginBody caps the login request body, e.g. "64KB".
	MaxLoginBody string `yaml:"max_login_body" mapstructure:"max_login_body" validate:"required"`

	AuthTokenHash hash.Config `yaml:"auth_token_hash" mapstructure:"auth_token_hash"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Expires == "" {
		c.Expires = DefaultExpires
	}
	if c.AuthRoute == "" {
		c.AuthRoute = DefaultAuthRoute
	}
	if c.AuthParam == "" {
		c.AuthParam = DefaultAuthParam
	}
	if c.AuthCookie == "" {
		c.AuthCookie = DefaultAuthCookie
	}
	if c.CookiePath == "" {
		c.CookiePath = DefaultCookiePath
	}
	if c.SameSite == "" {
		c.SameSite = DefaultSameSite
	}
	c.SameSite = strings.ToLower(c.SameSite)
	if c.AutoRenewToken == "" {
		c.AutoRenewToken = DefaultAutoRenewToken
	}
	if c.RenewHeader == "" {
		c.RenewHeader = DefaultRenewHeader
	}
	if c.LoginResponse == "" {
		c.LoginResponse = DefaultLoginResponse
	}
	if c.MaxLoginBody == "" {
		c.MaxLoginBody = DefaultMaxLoginBody
	}
	c.AuthTokenHash.ApplyDefaults()
}

// Validate checks the configuration. Every problem is reported in a single
// CONFIG_ERROR so an operator can fix them in one pass.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("auth", validation.Validate(c))

	lifetime, err := expiry.ParseDuration(c.Expires)
	v.Merge("expires", err)
	if err == nil && lifetime <= 0 {
		v.AddError("expires", "must be positive")
	}
	if c.RenewWindow != "" {
		window, err := expiry.ParseDuration(c.RenewWindow)
		v.Merge("renew_window", err)
		if err == nil && window < 0 {
			v.AddError("renew_window", "must not be negative")
		}
	}

	v.ExcludesAny("auth_cookie", c.AuthCookie, cookieNameSeparators)
	v.Custom(c.SameSite != "none" || c.SecureCookie, "same_site", `"none" requires secure_cookie`)
	if _, err := util.ParseBytes(c.MaxLoginBody); err != nil {
		v.AddError("max_login_body", err.Error())
	}
	v.Merge("auth_token_hash", c.AuthTokenHash.Validate())

	if appErr := v.Validate(); appErr != nil {
		return apperrors.Config("invalid auth configuration: %s", appErr.Message).
			WithDetail("fields", v.Errors())
	}
	return nil
}

// Settings is the resolved, immutable form of Config that a pipeline captures
// at construction. Nothing in it changes after Resolve returns.
type Settings struct {
	Lifetime    time.Duration
	RenewWindow time.Duration
	LoginPath   string

	Param  string
	Cookie CookieSettings

	RenewPolicy   expiry.RenewPolicy
	RenewHeader   string
	LoginResponse LoginResponse
	MaxLoginBody  int64

	Hash hash.Config
}

// CookieSettings holds the auth cookie attributes.
type CookieSettings struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// Resolve applies defaults, validates and returns the parsed Settings.
func (c Config) Resolve() (*Settings, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Both parse cleanly: Validate has already checked them.
	lifetime, _ := expiry.ParseDuration(c.Expires)
	var window time.Duration
	if c.RenewWindow != "" {
		window, _ = expiry.ParseDuration(c.RenewWindow)
	}
	maxBody, _ := util.ParseBytes(c.MaxLoginBody)

	return &Settings{
		Lifetime:    lifetime,
		RenewWindow: window,
		LoginPath:   "/" + strings.TrimPrefix(c.AuthRoute, "/"),
		Param:       c.AuthParam,
		Cookie: CookieSettings{
			Name:     c.AuthCookie,
			Path:     c.CookiePath,
			Domain:   c.CookieDomain,
			Secure:   c.SecureCookie,
			HTTPOnly: !c.DisableHTTPOnly,
			SameSite: sameSiteMode(c.SameSite),
		},
		RenewPolicy:   c.AutoRenewToken,
		RenewHeader:   c.RenewHeader,
		LoginResponse: c.LoginResponse,
		MaxLoginBody:  maxBody,
		Hash:          c.AuthTokenHash,
	}, nil
}

func sameSiteMode(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Describe returns a human-readable one-liner for the startup summary.
// Example: "route=/auth-token expires=2 hours window=lifetime renew=always cookie=authToken(secure=false) hash=sha256x50 salt=generated"
func (c *Config) Describe() string {
	salt := "generated"
	if c.AuthTokenHash.Salt != "" {
		salt = util.MaskSecret(c.AuthTokenHash.Salt, 2)
	}
	window := c.RenewWindow
	if window == "" {
		window = "lifetime"
	}
	return fmt.Sprintf("route=/%s expires=%s window=%s renew=%s cookie=%s(secure=%t) hash=%sx%d salt=%s",
		strings.TrimPrefix(c.AuthRoute, "/"), c.Expires, window, c.AutoRenewToken,
		c.AuthCookie, c.SecureCookie, c.AuthTokenHash.Algorithm, c.AuthTokenHash.Iterations, salt)
}
