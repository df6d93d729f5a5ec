package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/adapters/auditor"
	"github.com/target/jobdesk-api/internal/data"
)

// ServiceOrchestrationConfig is everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// component is one long-running part of the process. run blocks until ctx ends or it fails.
type component struct {
	mode config.ServiceMode
	run  func(ctx context.Context) error
}

// RunServicesWithShutdown runs every enabled component until SIGINT, SIGTERM or the
// first component failure, then stops the rest and returns that failure.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defer closeMetricsSink(cfg.Services.Metrics, logger)

	enabled, err := cfg.Config.EnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runComponents(ctx, logger, enabled, components(cfg, logger))
}

func components(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []component {
	return []component{
		{
			mode: config.ServiceModeHTTP,
			run: func(ctx context.Context) error {
				srv := newHTTPServer(cfg.Config.HTTP, BuildHTTPHandler(cfg.Services, cfg.Config.HTTP, logger))
				return serveHTTP(ctx, srv, nil, logger)
			},
		},
		{
			mode: config.ServiceModeScopeAuditor,
			run: func(ctx context.Context) error {
				runner, err := auditor.NewRunner(auditRunnerOptions(cfg, logger))
				if err != nil {
					return fmt.Errorf("create scope audit runner: %w", err)
				}
				return runner.Run(ctx)
			},
		},
	}
}

// runComponents starts the enabled components and waits for all of them. The first
// error cancels the others.
func runComponents(
	ctx context.Context,
	logger *slog.Logger,
	enabled map[config.ServiceMode]bool,
	comps []component,
) error {
	g, gctx := errgroup.WithContext(ctx)
	started := 0
	for _, c := range comps {
		if !enabled[c.mode] {
			continue
		}
		started++
		g.Go(func() error {
			logger.InfoContext(gctx, "service started", "service", c.mode)
			if err := c.run(gctx); err != nil {
				logger.ErrorContext(gctx, "service failed", "service", c.mode, "error", err)
				return fmt.Errorf("%s: %w", c.mode, err)
			}
			logger.InfoContext(gctx, "service stopped", "service", c.mode)
			return nil
		})
	}
	if started == 0 {
		return errors.New("no services enabled")
	}
	return g.Wait()
}

// auditRunnerOptions points the auditor at the already wired store so both sides share
// one lock timeout and dialect.
func auditRunnerOptions(cfg *ServiceOrchestrationConfig, logger *slog.Logger) auditor.RunnerOptions {
	opts := auditor.RunnerOptions{
		DB:          cfg.DB,
		LockTimeout: cfg.Config.Ledger.LockTimeout,
		Config:      cfg.Config.Audit,
		Logger:      logger,
		Metrics:     cfg.Services.Metrics,
	}
	if d, err := Dialect(cfg.Config.DB); err == nil {
		opts.Dialect = d
	}
	if store := cfg.Services.Store; store != nil {
		opts.Dialect = store.Dialect()
		opts.Tx = store
		opts.Repo = data.NewJobRepo(store.DB, data.RepoConfig{Dialect: store.Dialect(), Logger: logger})
	}
	return opts
}
