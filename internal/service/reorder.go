package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/domain/ledger"
	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
	"github.com/target/jobdesk-api/internal/observability/metrics"
	"github.com/target/jobdesk-api/internal/observability/statsd"
)

// ReorderServiceOptions groups dependencies for ReorderService.
type ReorderServiceOptions struct {
	Tx      core.Transactor    // Required: transaction scope
	Repo    core.JobRepository // Required: job repository
	Ledger  *ledger.Ledger     // Optional: defaults to a ledger over Repo
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink
}

// ReorderService turns a drag-and-drop gesture between two rows into a priority swap.
type ReorderService struct {
	tx      core.Transactor
	repo    core.JobRepository
	ledger  *ledger.Ledger
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReorderService constructs a new ReorderService.
func NewReorderService(opts ReorderServiceOptions) (*ReorderService, error) {
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
	l := opts.Ledger
	if l == nil {
		var err error
		l, err = ledger.New(ledger.Options{Store: opts.Repo, Logger: opts.Logger})
		if err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
	}
	return &ReorderService{
		tx:      opts.Tx,
		repo:    opts.Repo,
		ledger:  l,
		logger:  logger.With("component", "reorder_service"),
		metrics: opts.Metrics,
	}, nil
}

// MustNewReorderService constructs a new ReorderService and panics on error.
func MustNewReorderService(opts ReorderServiceOptions) *ReorderService {
	svc, err := NewReorderService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ReorderService: %v", err))
	}
	return svc
}

// EditOrderPriority swaps the priorities of the two rows of a gesture. The priorities in
// the refs are the client's view; the stored ones are re-read under row locks and are the
// only ones written.
func (s *ReorderService) EditOrderPriority(ctx context.Context, start, end model.RowRef) error {
	if start.ID <= 0 || end.ID <= 0 {
		return apperrors.Validation("both job ids are required")
	}
	if start.ID == end.ID {
		metrics.EmitJobOperation(s.metrics, metrics.JobMetric{Operation: metrics.OpReorder, Result: metrics.ResultNoop})
		return nil
	}

	began := time.Now()
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx core.Tx) error {
		jobs, err := s.repo.LockByIDs(ctx, tx, start.ID, end.ID)
		if err != nil {
			return err
		}
		byID := make(map[int64]*model.Job, len(jobs))
		for _, j := range jobs {
			byID[j.ID] = j
		}
		a, b := byID[start.ID], byID[end.ID]
		if a == nil {
			return apperrors.NotFoundf("job %d not found", start.ID)
		}
		if b == nil {
			return apperrors.NotFoundf("job %d not found", end.ID)
		}

		if a.Priority != start.Priority || b.Priority != end.Priority {
			s.logger.DebugContext(ctx, "reorder from stale client view",
				"start_id", a.ID, "start_seen", start.Priority, "start_stored", a.Priority,
				"end_id", b.ID, "end_seen", end.Priority, "end_stored", b.Priority,
			)
		}
		return s.ledger.SwapPriorities(ctx, tx, a, b)
	})

	metrics.EmitJobOperation(s.metrics, metrics.JobMetric{
		Operation: metrics.OpReorder,
		Result:    metrics.ResultFor(err),
		Duration:  time.Since(began),
		Err:       err,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "reorder failed", "start_id", start.ID, "end_id", end.ID, "error", err)
		return apperrors.MapDBError(err)
	}
	return nil
}
