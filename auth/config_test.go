package auth

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/authtoken/auth/expiry"
	"github.com/kbukum/authtoken/auth/hash"
	apperrors "github.com/kbukum/authtoken/errors"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()

	if c.Expires != "2 hours" {
		t.Errorf("Expires = %q", c.Expires)
	}
	if c.AuthRoute != "auth-token" || c.AuthParam != "authToken" || c.AuthCookie != "authToken" {
		t.Errorf("transport defaults = %q %q %q", c.AuthRoute, c.AuthParam, c.AuthCookie)
	}
	if c.AutoRenewToken != expiry.RenewAlways {
		t.Errorf("AutoRenewToken = %q", c.AutoRenewToken)
	}
	if c.LoginResponse != LoginResponseBoth {
		t.Errorf("LoginResponse = %q", c.LoginResponse)
	}
	if c.AuthTokenHash.Algorithm != hash.SHA256 || c.AuthTokenHash.Iterations != 50 {
		t.Errorf("hash defaults = %+v", c.AuthTokenHash)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestConfig_Resolve(t *testing.T) {
	c := Config{
		Expires:         "30 minutes",
		RenewWindow:     "5m",
		AuthRoute:       "/login",
		SecureCookie:    true,
		DisableHTTPOnly: true,
		SameSite:        "None",
		AutoRenewToken:  expiry.RenewCookieOnly,
		MaxLoginBody:    "1KB",
		AuthTokenHash:   hash.Config{Algorithm: "SHA512", Salt: "pepper", Iterations: 10},
	}
	s, err := c.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Lifetime != 30*time.Minute || s.RenewWindow != 5*time.Minute {
		t.Errorf("durations = %s / %s", s.Lifetime, s.RenewWindow)
	}
	if s.LoginPath != "/login" {
		t.Errorf("LoginPath = %q", s.LoginPath)
	}
	if s.Cookie.HTTPOnly || !s.Cookie.Secure || s.Cookie.SameSite != http.SameSiteNoneMode {
		t.Errorf("cookie = %+v", s.Cookie)
	}
	if s.RenewPolicy != expiry.RenewCookieOnly {
		t.Errorf("RenewPolicy = %q", s.RenewPolicy)
	}
	if s.MaxLoginBody != 1024 {
		t.Errorf("MaxLoginBody = %d", s.MaxLoginBody)
	}
	if s.Hash.Algorithm != hash.SHA512 {
		t.Errorf("Hash.Algorithm = %q", s.Hash.Algorithm)
	}
	// Resolve works on a copy.
	if c.AuthParam != "" {
		t.Error("Resolve must not mutate the receiver")
	}
}

func TestConfig_Resolve_DefaultPath(t *testing.T) {
	s, err := Config{}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.LoginPath != "/auth-token" || s.Lifetime != 2*time.Hour || s.RenewWindow != 0 {
		t.Errorf("settings = %+v", s)
	}
	if !s.Cookie.HTTPOnly || s.Cookie.SameSite != http.SameSiteLaxMode || s.Cookie.Path != "/" {
		t.Errorf("cookie = %+v", s.Cookie)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad expires", func(c *Config) { c.Expires = "a fortnight-ish" }, "expires"},
		{"bad window", func(c *Config) { c.RenewWindow = "soon" }, "renew_window"},
		{"bad policy", func(c *Config) { c.AutoRenewToken = "sometimes" }, "auto_renew_token"},
		{"bad same site", func(c *Config) { c.SameSite = "loose" }, "same_site"},
		{"none without secure", func(c *Config) { c.SameSite = "none" }, "same_site"},
		{"cookie name separator", func(c *Config) { c.AuthCookie = "auth token" }, "auth_cookie"},
		{"route with query", func(c *Config) { c.AuthRoute = "login?x=1" }, "auth_route"},
		{"bad login response", func(c *Config) { c.LoginResponse = "header" }, "login_response"},
		{"bad body size", func(c *Config) { c.MaxLoginBody = "lots" }, "max_login_body"},
		{"bad algorithm", func(c *Config) { c.AuthTokenHash.Algorithm = "md5" }, "auth_token_hash"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c Config
			c.ApplyDefaults()
			tc.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperrors.HasCode(err, apperrors.ErrCodeConfig) {
				t.Fatalf("expected CONFIG_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.field)
			}
		})
	}
}

func TestConfig_Describe_MasksSalt(t *testing.T) {
	c := Config{AuthTokenHash: hash.Config{Salt: "supersecret"}}
	c.ApplyDefaults()
	line := c.Describe()
	if strings.Contains(line, "supersecret") {
		t.Errorf("Describe leaked the salt: %s", line)
	}
	if !strings.Contains(line, "route=/auth-token") || !strings.Contains(line, "salt=su***") {
		t.Errorf("unexpected summary: %s", line)
	}

	var gen Config
	gen.ApplyDefaults()
	want := "route=/auth-token expires=2 hours window=lifetime renew=always cookie=authToken(secure=false) hash=sha256x50 salt=generated"
	if got := gen.Describe(); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestLoginResponse_Targets(t *testing.T) {
	if !LoginResponseBoth.Cookie() || !LoginResponseBoth.Body() {
		t.Error("both should target cookie and body")
	}
	if !LoginResponseCookie.Cookie() || LoginResponseCookie.Body() {
		t.Error("cookie mode should target cookie only")
	}
	if LoginResponseBody.Cookie() || !LoginResponseBody.Body() {
		t.Error("body mode should target body only")
	}
}
