// Package server hosts token-authenticated HTTP APIs on Gin. It serves TLS
// when Config.TLS names a certificate and HTTP/2 cleartext otherwise.
//
// Root-level middleware wraps every request in the order it is added. The
// usual stack is ApplyMiddleware followed by the authentication pipeline:
//
//	srv := server.New(cfg.Server, log)
//	srv.ApplyMiddleware()
//	srv.Use(middleware.RateLimit(middleware.RateLimitConfig{Paths: []string{loginPath}}))
//	srv.Use(p.Authenticate)
//	srv.GinEngine().GET("/admin", middleware.GinWrap(p.RequiresPerms("admin")), admin)
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request id generation and propagation into the logger
//   - CORS: cross-origin headers, including exposing the renewed-token header
//   - BodySizeLimit: request body caps
//   - RequestLogger: request logging with duration
//   - RateLimit: sliding-window limiting, used on the login route
//   - GinWrap: mounts any of the above on a single Gin route
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /version: build version information
package server
