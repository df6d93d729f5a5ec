// Package auditor provides adapters for running the scope auditor.
package auditor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/observability/statsd"
	"github.com/target/jobdesk-api/internal/service"
)

// Runner provides a simple adapter to run the scope audit loop.
// It constructs the audit service and runs it until cancelled.
type Runner struct {
	auditor *service.ScopeAuditService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB          *sql.DB
	Dialect     database.Dialect
	LockTimeout time.Duration
	Config      config.AuditConfig
	Logger      *slog.Logger

	// Optional dependency injection for testing/decoupling
	Tx      core.Transactor
	Repo    core.JobRepository
	Metrics statsd.Sink
}

// NewRunner creates a new scope audit runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	auditor, err := wireAuditService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire scope audit service: %w", err)
	}

	return &Runner{auditor: auditor, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && (opts.Tx == nil || opts.Repo == nil) {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dialect == "" {
		opts.Dialect = database.Postgres
	}
	return nil
}

// wireAuditService wires up all dependencies for the audit service.
func wireAuditService(opts RunnerOptions) (*service.ScopeAuditService, error) {
	tx := opts.Tx
	if tx == nil {
		tx = data.NewStore(opts.DB, data.StoreConfig{
			Dialect:     opts.Dialect,
			LockTimeout: opts.LockTimeout,
			Logger:      opts.Logger,
		})
	}
	repo := opts.Repo
	if repo == nil {
		repo = data.NewJobRepo(opts.DB, data.RepoConfig{Dialect: opts.Dialect, Logger: opts.Logger})
	}

	return service.NewScopeAuditService(service.ScopeAuditServiceOptions{
		Tx:      tx,
		Repo:    repo,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
}

// Service returns the wired audit service for on-demand verify and compact calls.
func (r *Runner) Service() *service.ScopeAuditService {
	return r.auditor
}

// Run starts the audit loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scope audit runner")
	return r.auditor.Run(ctx)
}
