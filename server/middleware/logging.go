package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/authtoken/auth/authctx"
	"github.com/kbukum/authtoken/logger"
)

// RequestLogger returns middleware that logs every request with method,
// path, status code and duration. Health-check paths are silently skipped.
// Placed inside the authentication middleware it also logs the username.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := logger.Fields(
				logger.FieldMethod, r.Method,
				logger.FieldPath, r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldDuration, duration.Milliseconds(),
			)
			if username, ok := authctx.Username(r.Context()); ok {
				fields[logger.FieldUsername] = username
			}

			logByStatus(log.WithContext(r.Context()), fields, sw.status)
		})
	}
}

func isHealthEndpoint(path string) bool {
	switch strings.TrimPrefix(path, "/api") {
	case "/health", "/alive", "/ready", "/metrics":
		return true
	}
	return false
}

// logByStatus logs request fields at the level matching the status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
