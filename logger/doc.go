// Package logger provides structured logging for authtoken built on zerolog.
//
// Loggers are tagged with a service name and optionally a component
// ("authtoken", "server", ...). Fields are passed as maps:
//
//	log := logger.New(&cfg, "authtoken").WithComponent("pipeline")
//	log.Warn("token rejected", logger.Fields("reason", "expired", "username", u))
//
// Callers must never pass passwords, secrets, salts or raw tokens as fields.
package logger
