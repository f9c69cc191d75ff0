package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/authtoken/logger"
	"github.com/kbukum/authtoken/observability"
	"github.com/kbukum/authtoken/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the token-authenticated HTTP API",
		Long: `Run the HTTP API. POST credentials to the login route to receive a token;
every other request is authenticated from the auth cookie, query parameter or
body parameter and renewed according to the renewal policy.

SIGHUP re-reads the user directory. SIGINT and SIGTERM shut down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*root)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *Config) error {
	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	log.Info("Starting", version.GetVersionInfo().Fields())
	log.Info("Auth configuration", logger.Fields("auth", cfg.Auth.Describe()))

	shutdown, metrics, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	a, err := newApp(cfg, log, metrics)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.start(ctx); err != nil {
		return err
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			// Errors are logged; the previous users stay active.
			_ = a.reloadDirectory()
		case <-ctx.Done():
			start := time.Now()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.server.Stop(stopCtx); err != nil {
				log.Error("Shutdown failed", logger.ErrorFields("shutdown", err))
				return err
			}
			log.Info("Stopped", logger.DurationFields("shutdown", time.Since(start)))
			return nil
		}
	}
}

// initTelemetry starts the configured OTLP providers. The returned func
// flushes and stops them. Metrics are recorded through the global meter
// provider either way, so they are dropped when export is off.
func initTelemetry(ctx context.Context, cfg *Config) (func(), *observability.AuthMetrics, error) {
	var closers []func(context.Context) error
	shutdown := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, c := range closers {
			if err := c(flushCtx); err != nil {
				logger.Warn("Telemetry shutdown failed", logger.ErrorFields("telemetry.shutdown", err))
			}
		}
	}

	if cfg.Telemetry.Tracing {
		tp, err := observability.InitTracer(ctx, &cfg.Telemetry.Tracer)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, tp.Shutdown)
	}
	if cfg.Telemetry.Metrics {
		mp, err := observability.InitMeter(ctx, &cfg.Telemetry.Meter)
		if err != nil {
			shutdown()
			return nil, nil, err
		}
		closers = append(closers, mp.Shutdown)
	}

	metrics, err := observability.NewAuthMetrics(observability.Meter(cfg.Name))
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	return shutdown, metrics, nil
}
