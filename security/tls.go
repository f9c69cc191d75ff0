package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLS versions accepted in MinVersion.
var tlsVersions = map[string]uint16{
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig holds the listener's TLS settings. TLS is enabled when CertFile
// is set; the auth cookie should then be marked secure.
type TLSConfig struct {
	// CertFile is the path to the server certificate chain (PEM).
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// KeyFile is the path to the server private key (PEM).
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`

	// ClientCAFile enables client certificate verification against this CA.
	ClientCAFile string `yaml:"client_ca_file" mapstructure:"client_ca_file"`

	// RequireClientCert rejects handshakes without a verified client
	// certificate. Requires ClientCAFile.
	RequireClientCert bool `yaml:"require_client_cert" mapstructure:"require_client_cert"`

	// MinVersion is "1.2" or "1.3". Defaults to 1.2.
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// Enabled reports whether the listener should serve TLS.
func (c *TLSConfig) Enabled() bool {
	return c != nil && c.CertFile != ""
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("security/tls: cert_file and key_file must be provided together")
	}
	if c.ClientCAFile != "" && c.CertFile == "" {
		return fmt.Errorf("security/tls: client_ca_file requires cert_file")
	}
	if c.RequireClientCert && c.ClientCAFile == "" {
		return fmt.Errorf("security/tls: require_client_cert requires client_ca_file")
	}
	if _, ok := tlsVersions[c.MinVersion]; c.MinVersion != "" && !ok {
		return fmt.Errorf("security/tls: min_version must be 1.2 or 1.3 (got: %s)", c.MinVersion)
	}
	return nil
}

// Build loads the key pair and client CA into a *tls.Config.
// Returns nil when TLS is not enabled.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	minVersion := uint16(tls.VersionTLS12)
	if v, ok := tlsVersions[c.MinVersion]; ok {
		minVersion = v
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("security/tls: failed to load certificate: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}
	if err := c.loadClientCA(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadClientCA sets up client certificate verification.
func (c *TLSConfig) loadClientCA(cfg *tls.Config) error {
	if c.ClientCAFile == "" {
		return nil
	}
	ca, err := os.ReadFile(c.ClientCAFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to read client CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return fmt.Errorf("security/tls: failed to parse client CA certificate")
	}
	cfg.ClientCAs = pool
	cfg.ClientAuth = tls.VerifyClientCertIfGiven
	if c.RequireClientCert {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return nil
}
