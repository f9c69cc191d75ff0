package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/observability"
	"github.com/kbukum/authtoken/server/endpoint"
	"github.com/kbukum/authtoken/server/middleware"
)

// Server is an HTTP server backed by Gin. Root-level middleware (including
// token authentication) wraps every route, Gin and non-Gin alike.
type Server struct {
	httpServer  *http.Server
	listener    net.Listener
	engine      *gin.Engine
	mux         *http.ServeMux
	middlewares []middleware.Middleware
	config      Config
	log         *logger.Logger
}

// New creates a new Server. The Gin engine is created but no middleware is
// applied yet.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", logger.Fields("pattern", pattern))
}

// Use appends root-level middleware. Middleware added first runs first.
// Must be called before Start or Handler.
func (s *Server) Use(mws ...middleware.Middleware) {
	s.middlewares = append(s.middlewares, mws...)
}

// Handler returns the root handler: the middleware chain around the mux,
// wrapped for HTTP/2 cleartext.
func (s *Server) Handler() http.Handler {
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	return h2c.NewHandler(middleware.Chain(s.middlewares...)(s.mux), h2s)
}

// Start binds the port and begins serving, over TLS when configured. It
// returns once the listener is bound so the caller knows the port is ready;
// serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	tlsConfig, err := s.config.TLS.Build()
	if err != nil {
		return fmt.Errorf("server TLS: %w", err)
	}
	s.httpServer.Handler = s.Handler()
	s.httpServer.TLSConfig = tlsConfig
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		var err error
		if tlsConfig != nil {
			// Certificates come from TLSConfig.
			err = s.httpServer.ServeTLS(listener, "", "")
		} else {
			err = s.httpServer.Serve(listener)
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String(), "tls", tlsConfig != nil))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// ApplyMiddleware installs the standard stack: recovery, request-ID, CORS,
// body-size limit and request logging. Authentication is added after it with
// Use so it sees the request id.
func (s *Server) ApplyMiddleware() {
	s.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
		middleware.RequestLogger(s.log),
	)
}

// RegisterDefaultEndpoints registers /health and /version.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checkers ...observability.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checkers...))
	s.engine.GET("/version", endpoint.Version())
}
