package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docguard/internal/config"
	"github.com/fyrsmithlabs/docguard/internal/extract"
	httpserver "github.com/fyrsmithlabs/docguard/internal/http"
	"github.com/fyrsmithlabs/docguard/internal/keywords"
	"github.com/fyrsmithlabs/docguard/internal/logging"
	"github.com/fyrsmithlabs/docguard/internal/publish"
	"github.com/fyrsmithlabs/docguard/internal/scan"
	"github.com/fyrsmithlabs/docguard/internal/secrets"
	"github.com/fyrsmithlabs/docguard/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the docguard HTTP server",
		Long: `Run the docguard HTTP server.

Configuration is read from the YAML file given by --config and overridden by
DOCGUARD_* environment variables.

Examples:
  # Start with defaults (keywords.json in the working directory)
  docguard serve

  # Start with a config file and a different port
  DOCGUARD_SERVER_PORT=9000 docguard serve --config docguard.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "docguard.yaml", "path to the YAML config file")
	return cmd
}

// run starts the server and blocks until ctx is cancelled.
//
// Startup order:
//  1. Telemetry, secret scrubber and logger
//  2. Keyword registry, store and optional file watcher
//  3. Optional NATS publisher
//  4. Scan service and HTTP server
//
// Shutdown happens in reverse, bounded by server.shutdown_timeout.
func run(ctx context.Context, cfg *config.Config) error {
	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.OTEL, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	scrubber, err := secrets.New(secrets.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to create secret scrubber: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider(), logging.WithScrubber(scrubber))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zlog := logger.Underlying()

	if health := tel.Health(); health.Degraded {
		zlog.Warn("telemetry degraded", zap.Error(health.LastErr))
	}

	reg, _ := keywords.LoadFile(cfg.Keywords.Path, zlog)
	store := keywords.NewStore(reg)
	if cfg.Keywords.Watch {
		if err := store.Watch(ctx, cfg.Keywords.Path, zlog); err != nil {
			zlog.Warn("keyword file watch disabled", zap.Error(err))
		}
	}

	opts := []scan.Option{
		scan.WithWorkers(cfg.Scan.Workers),
		scan.WithContextWindow(cfg.Scan.ContextWindow),
		scan.WithLogger(logger.Named("scan")),
		scan.WithTracer(tel.Tracer("github.com/fyrsmithlabs/docguard/internal/scan")),
		scan.WithMetrics(scan.NewMetrics()),
	}

	if cfg.Scan.ScrubSecrets {
		opts = append(opts, scan.WithScrubber(scrubber))
	}

	if cfg.NATS.URL != "" {
		pub, err := publish.Connect(cfg.NATS.URL, cfg.NATS.Subject, zlog)
		if err != nil {
			return fmt.Errorf("failed to connect result publisher: %w", err)
		}
		defer func() {
			if err := pub.Close(); err != nil {
				zlog.Warn("failed to close result publisher", zap.Error(err))
			}
		}()
		zlog.Info("publishing scan results", zap.String("url", cfg.NATS.URL), zap.String("subject", cfg.NATS.Subject))
		opts = append(opts, scan.WithPublisher(pub))
	}

	svc := scan.NewService(store, extract.NewRegistry(), opts...)

	server, err := httpserver.NewServer(svc, store, zlog, &httpserver.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		MaxFiles:     cfg.Server.MaxFiles,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
		RateLimit:    cfg.Server.RateLimit,
		RateBurst:    cfg.Server.RateBurst,
		KeywordsPath: cfg.Keywords.Path,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		zlog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	zlog.Info("server shutdown complete")
	return nil
}
