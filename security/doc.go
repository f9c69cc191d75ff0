// Package security builds the TLS configuration for the HTTP listener.
//
//	cfg := security.TLSConfig{
//	    CertFile:     "/etc/authtoken/tls/cert.pem",
//	    KeyFile:      "/etc/authtoken/tls/key.pem",
//	    ClientCAFile: "/etc/authtoken/tls/clients.pem",
//	}
//	tlsConfig, err := cfg.Build()
//
// Tokens travel as bearer credentials, so production listeners should
// serve TLS and set auth.secure_cookie.
package security
