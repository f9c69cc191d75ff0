package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authtoken/auth/authctx"
	"github.com/kbukum/authtoken/auth/directory"
	"github.com/kbukum/authtoken/auth/pipeline"
	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/observability"
	"github.com/kbukum/authtoken/server"
	"github.com/kbukum/authtoken/server/middleware"
)

// app is the wired service: directory, pipeline and HTTP server.
type app struct {
	cfg      *Config
	log      *logger.Logger
	dir      *directory.Directory
	pipeline *pipeline.Pipeline
	server   *server.Server
}

// newPipeline loads the directory and builds a pipeline over it.
func newPipeline(cfg *Config, log *logger.Logger, opts ...pipeline.Option) (*directory.Directory, *pipeline.Pipeline, error) {
	dir, err := directory.Load(cfg.Directory)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]pipeline.Option{pipeline.WithLogger(log)}, opts...)
	p, err := pipeline.New(cfg.Auth, dir.Collaborators(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return dir, p, nil
}

// newApp wires the service. metrics may be nil.
func newApp(cfg *Config, log *logger.Logger, metrics *observability.AuthMetrics) (*app, error) {
	var opts []pipeline.Option
	if metrics != nil {
		opts = append(opts, pipeline.WithMetrics(metrics))
	}
	dir, p, err := newPipeline(cfg, log, opts...)
	if err != nil {
		return nil, err
	}

	srvCfg := cfg.Server
	if len(srvCfg.CORS.ExposedHeaders) == 0 {
		srvCfg.CORS.ExposedHeaders = []string{p.Settings().RenewHeader}
	}
	srv := server.New(srvCfg, log)
	srv.ApplyMiddleware()
	if cfg.Server.LoginRateLimit > 0 {
		srv.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Server.LoginRateLimit,
			Paths:             []string{p.Settings().LoginPath},
		}))
	}
	srv.Use(p.Authenticate)
	srv.RegisterDefaultEndpoints(cfg.Name, p)

	a := &app{cfg: cfg, log: log, dir: dir, pipeline: p, server: srv}
	a.registerRoutes()
	return a, nil
}

func (a *app) registerRoutes() {
	api := a.server.GinEngine().Group("/api")
	api.GET("/me", middleware.GinWrap(a.pipeline.RequiresPerms()), a.me)
	api.GET("/users", middleware.GinWrap(a.pipeline.RequiresPerms("admin")), a.users)
	api.POST("/directory/reload", middleware.GinWrap(a.pipeline.RequiresPerms("admin")), a.reload)
}

// me returns the caller's profile.
func (a *app) me(c *gin.Context) {
	profile, err := authctx.GetOrError[*directory.Profile](c.Request.Context())
	if err != nil {
		server.RespondWithError(c, apperrors.Unauthenticated())
		return
	}
	server.RespondOK(c, profile)
}

// users lists the enabled users with their grants, sorted by username.
func (a *app) users(c *gin.Context) {
	ctx := c.Request.Context()
	names := a.dir.Usernames()
	out := make([]*directory.Profile, 0, len(names))
	for _, name := range names {
		p, err := a.dir.PopulateUser(ctx, name)
		if err != nil {
			// Removed by a concurrent reload.
			continue
		}
		out = append(out, p.(*directory.Profile))
	}
	server.RespondOK(c, out)
}

// reload re-reads the directory file.
func (a *app) reload(c *gin.Context) {
	if err := a.reloadDirectory(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"users": len(a.dir.Usernames())})
}

func (a *app) reloadDirectory() error {
	start := time.Now()
	if err := a.dir.Reload(); err != nil {
		a.log.Error("Directory reload failed", logger.ErrorFields("directory.reload", err))
		return err
	}
	fields := logger.DurationFields("directory.reload", time.Since(start))
	fields["path"] = a.cfg.Directory
	fields["users"] = len(a.dir.Usernames())
	a.log.Info("Directory reloaded", fields)
	return nil
}

// start serves until ctx is cancelled.
func (a *app) start(ctx context.Context) error {
	a.server.LogRoutes(a.pipeline.Settings().LoginPath)
	return a.server.Start(ctx)
}
