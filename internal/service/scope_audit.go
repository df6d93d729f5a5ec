package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/domain/ledger"
	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
	"github.com/target/jobdesk-api/internal/observability/metrics"
	"github.com/target/jobdesk-api/internal/observability/statsd"
)

// ScopeAuditServiceOptions groups dependencies for ScopeAuditService.
type ScopeAuditServiceOptions struct {
	Tx      core.Transactor    // Required: transaction scope
	Repo    core.JobRepository // Required: job repository
	Ledger  *ledger.Ledger     // Optional: defaults to a ledger over Repo
	Config  config.AuditConfig // Required: auditor configuration
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink (StatsD-compatible)
}

// ScopeAuditService verifies that every scope with open jobs is ranked exactly 1..N and,
// when repair is enabled, compacts the ones that drifted.
//
// It also serves the on-demand verify and compact maintenance operations.
type ScopeAuditService struct {
	tx      core.Transactor
	repo    core.JobRepository
	ledger  *ledger.Ledger
	config  config.AuditConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// AuditReport summarizes one audit pass.
type AuditReport struct {
	Scanned int
	// Drifted holds every scope whose open ranks are not exactly 1..N.
	Drifted []model.ScopeHealth
	// Corrupted counts the drifted scopes that hold a duplicate or non-positive rank.
	Corrupted int
	Repaired  []model.CompactResult
}

// NewScopeAuditService constructs a new ScopeAuditService.
func NewScopeAuditService(opts ScopeAuditServiceOptions) (*ScopeAuditService, error) {
	if opts.Tx == nil {
		return nil, errors.New("Transactor is required")
	}
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scope_audit_service")
	logger.Debug("ScopeAuditService initialized",
		"interval", opts.Config.Interval,
		"repair", opts.Config.Repair,
		"batch_size", opts.Config.BatchSize,
	)

	l := opts.Ledger
	if l == nil {
		var err error
		l, err = ledger.New(ledger.Options{Store: opts.Repo, Logger: opts.Logger})
		if err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
	}

	return &ScopeAuditService{
		tx:      opts.Tx,
		repo:    opts.Repo,
		ledger:  l,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// MustNewScopeAuditService constructs a new ScopeAuditService and panics on error.
func MustNewScopeAuditService(opts ScopeAuditServiceOptions) *ScopeAuditService {
	svc, err := NewScopeAuditService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ScopeAuditService: %v", err))
	}
	return svc
}

// Run starts the audit loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ScopeAuditService) Run(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return errors.New("audit interval must be positive")
	}
	s.logger.InfoContext(ctx, "starting scope auditor", "interval", s.config.Interval, "repair", s.config.Repair)

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logAuditError(err, "initial audit")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "scope auditor stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logAuditError(err, "audit")
			}
		}
	}
}

// RunOnce audits up to BatchSize scopes. A failing scope does not stop the pass.
func (s *ScopeAuditService) RunOnce(ctx context.Context) (AuditReport, error) {
	start := time.Now()
	var report AuditReport

	scopes, err := s.repo.ListScopes(ctx, s.config.BatchSize)
	if err != nil {
		err = fmt.Errorf("list scopes: %w", err)
		s.emit(report, time.Since(start), err)
		return report, err
	}

	var errs []error
	for _, st := range scopes {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		report.Scanned++

		health, repaired, err := s.auditScope(ctx, st.Scope)
		if err != nil {
			errs = append(errs, fmt.Errorf("scope %s: %w", st.Scope, err))
			continue
		}
		if health.Consistent {
			continue
		}
		report.Drifted = append(report.Drifted, health)
		if health.Corrupt() {
			report.Corrupted++
		}
		if repaired != nil {
			report.Repaired = append(report.Repaired, *repaired)
		}
	}

	err = errors.Join(errs...)
	s.emit(report, time.Since(start), suppressContextCancellation(err))
	switch {
	case report.Corrupted > 0:
		s.logger.WarnContext(ctx, "scope audit found corrupt scopes",
			"scanned", report.Scanned,
			"drifted", len(report.Drifted),
			"corrupted", report.Corrupted,
			"repaired", len(report.Repaired),
		)
	case len(report.Drifted) > 0:
		s.logger.InfoContext(ctx, "scope audit found gaps",
			"scanned", report.Scanned,
			"drifted", len(report.Drifted),
			"repaired", len(report.Repaired),
		)
	}
	return report, err
}

// auditScope verifies one scope and, when repair is on and it drifted, compacts it in the
// same transaction.
func (s *ScopeAuditService) auditScope(
	ctx context.Context,
	scope model.ScopeKey,
) (model.ScopeHealth, *model.CompactResult, error) {
	var (
		health   model.ScopeHealth
		repaired *model.CompactResult
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		health, err = s.ledger.Verify(ctx, tx, scope)
		if err != nil || health.Consistent {
			return err
		}

		if health.Corrupt() {
			s.logger.WarnContext(ctx, "scope ranks corrupt",
				"scope", scope,
				"open_count", health.OpenCount,
				"max_priority", health.MaxPriority,
				"duplicates", health.Duplicates,
				"gaps", health.Gaps,
				"out_of_range", health.OutOfRange,
			)
			metrics.EmitScopeDrift(s.metrics, len(health.Duplicates), len(health.Gaps), len(health.OutOfRange))
		} else {
			s.logger.DebugContext(ctx, "scope ranks have gaps", "scope", scope, "gaps", health.Gaps)
			metrics.EmitScopeGaps(s.metrics, len(health.Gaps))
		}

		if !s.config.Repair {
			return nil
		}
		res, err := s.ledger.Compact(ctx, tx, scope)
		if err != nil {
			return err
		}
		repaired = &res
		return nil
	})
	if err != nil {
		return health, nil, apperrors.MapDBError(err)
	}
	return health, repaired, nil
}

// VerifyScope reports the rank health of one scope.
func (s *ScopeAuditService) VerifyScope(ctx context.Context, scope model.ScopeKey) (model.ScopeHealth, error) {
	var health model.ScopeHealth
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		health, err = s.ledger.Verify(ctx, tx, scope)
		return err
	})
	if err != nil {
		return health, apperrors.MapDBError(err)
	}
	return health, nil
}

// CompactScope re-ranks the open jobs of one scope to 1..N.
func (s *ScopeAuditService) CompactScope(ctx context.Context, scope model.ScopeKey) (model.CompactResult, error) {
	start := time.Now()
	var res model.CompactResult
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		res, err = s.ledger.Compact(ctx, tx, scope)
		return err
	})

	result := metrics.ResultFor(err)
	if err == nil && res.Changed == 0 {
		result = metrics.ResultNoop
	}
	metrics.EmitJobOperation(s.metrics, metrics.JobMetric{
		Operation: metrics.OpCompact,
		Result:    result,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "compact scope failed", "scope", scope, "error", err)
		return res, apperrors.MapDBError(err)
	}
	return res, nil
}

// ListScopes returns the scopes that currently hold open jobs.
func (s *ScopeAuditService) ListScopes(ctx context.Context, limit int) ([]model.ScopeStats, error) {
	scopes, err := s.repo.ListScopes(ctx, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return scopes, nil
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ScopeAuditService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ScopeAuditService) emit(report AuditReport, elapsed time.Duration, err error) {
	metrics.EmitScopeAudit(s.metrics, metrics.ScopeAuditMetric{
		Scanned:  report.Scanned,
		Drifted:   len(report.Drifted),
		Corrupted: report.Corrupted,
		Repaired:  len(report.Repaired),
		Duration:  elapsed,
		Err:       err,
	})
}

func (s *ScopeAuditService) logAuditError(err error, label string) {
	if err == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
