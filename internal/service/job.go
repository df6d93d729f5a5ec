package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data"
	"github.com/target/jobdesk-api/internal/domain/ledger"
	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
	"github.com/target/jobdesk-api/internal/observability/metrics"
	"github.com/target/jobdesk-api/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Tx      core.Transactor    // Required: transaction scope for every mutation
	Repo    core.JobRepository // Required: job repository
	Ledger  *ledger.Ledger     // Optional: defaults to a ledger over Repo
	ScopeBy model.ScopePolicy  // Optional: defaults to one scope per technician
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink
	Clock   func() time.Time   // Optional: time source for ClosedAt
}

// JobService runs the job lifecycle: create, edit, close, reopen and list.
//
// Every mutation runs in one transaction and keeps the ordering of the job's scope
// dense through the ledger:
// - new and reopened jobs are appended to the tail of their scope
// - a job leaving its scope (owner change, status change under a status policy, close)
// is released and, when still open, appended to the tail of the new scope
// - closing keeps the job's last priority as its frozen rank.
type JobService struct {
	tx      core.Transactor
	repo    core.JobRepository
	ledger  *ledger.Ledger
	policy  model.ScopePolicy
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Tx == nil {
		return nil, errors.New("Transactor is required")
	}
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	policy := opts.ScopeBy
	if policy == "" {
		policy = model.ScopeByTechnician
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("invalid scope policy %q", policy)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "job_service")

	l := opts.Ledger
	if l == nil {
		var err error
		l, err = ledger.New(ledger.Options{Store: opts.Repo, Logger: opts.Logger})
		if err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	logger.Debug("JobService initialized", "scope_policy", policy)

	return &JobService{
		tx:      opts.Tx,
		repo:    opts.Repo,
		ledger:  l,
		policy:  policy,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// ScopePolicy returns the policy used to derive scope keys.
func (s *JobService) ScopePolicy() model.ScopePolicy {
	return s.policy
}

// CreateJob validates req and inserts the job at the tail of its scope.
func (s *JobService) CreateJob(ctx context.Context, req *model.CreateJobRequest) (int64, error) {
	start := time.Now()
	if req == nil {
		return 0, apperrors.Validation("request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return 0, apperrors.Validation(err.Error())
	}

	job := &model.Job{
		Status:             req.Status,
		OwnerID:            req.OwnerID,
		ClientID:           req.ClientID,
		CreatedBy:          req.CreatedBy,
		EquipmentType:      req.EquipmentType,
		EquipmentProcedure: req.EquipmentProcedure,
		Brand:              req.Brand,
		Model:              req.Model,
		SerialNumber:       req.SerialNumber,
		Description:        req.Description,
	}
	scope := s.policy.KeyFor(job)

	var id int64
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx core.Tx) error {
		if err := s.ledger.Admit(ctx, tx, job, scope); err != nil {
			return err
		}
		var err error
		id, err = s.repo.Insert(ctx, tx, job)
		return err
	})
	s.record(ctx, metrics.OpCreate, start, err)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}

	s.logger.DebugContext(ctx, "job created", "id", id, "scope", scope, "priority", job.Priority)
	return id, nil
}

// EditJobInfo applies the non-ordering changes of req. When the change moves the job to
// another scope, closes it or reopens it, the ordering is adjusted in the same transaction.
func (s *JobService) EditJobInfo(ctx context.Context, req *model.EditJobRequest) error {
	start := time.Now()
	if req == nil {
		return apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx core.Tx) error {
		job, err := s.lockOne(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		prev := *job
		req.Apply(job)
		if err := s.reconcileOrdering(ctx, tx, &prev, job); err != nil {
			return err
		}
		return s.repo.Update(ctx, tx, job)
	})
	s.record(ctx, metrics.OpEdit, start, err)
	if err != nil {
		return s.mapErr(err, req.ID)
	}
	return nil
}

// reconcileOrdering moves job between scopes as required by the transition from prev.
func (s *JobService) reconcileOrdering(ctx context.Context, tx core.Tx, prev, job *model.Job) error {
	wasOpen, nowOpen := prev.IsOpen(), job.IsOpen()
	next := s.policy.KeyFor(job)

	switch {
	case wasOpen && nowOpen:
		if next == prev.ScopeKey {
			return nil
		}
		// Both tails are locked up front so the two scopes are taken in key order.
		if err := s.ledger.Lock(ctx, tx, prev.ScopeKey, next); err != nil {
			return err
		}
		if err := s.ledger.Release(ctx, tx, prev); err != nil {
			return err
		}
		if err := s.ledger.Admit(ctx, tx, job, next); err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "job moved between scopes",
			"id", job.ID, "from", prev.ScopeKey, "to", next, "priority", job.Priority)

	case wasOpen && !nowOpen:
		if err := s.ledger.Release(ctx, tx, prev); err != nil {
			return err
		}
		closedAt := s.now().UTC()
		job.ClosedAt = &closedAt
		s.logger.DebugContext(ctx, "job closed", "id", job.ID, "scope", job.ScopeKey, "frozen_priority", job.Priority)

	case !wasOpen && nowOpen:
		if err := s.ledger.Admit(ctx, tx, job, next); err != nil {
			return err
		}
		job.ClosedAt = nil
		s.logger.DebugContext(ctx, "job reopened by edit", "id", job.ID, "scope", next, "priority", job.Priority)
	}
	// Closed to closed keeps the frozen scope and rank.
	return nil
}

// ReopenJob puts a closed job back at the tail of its scope with status reopened.
func (s *JobService) ReopenJob(ctx context.Context, id int64) error {
	start := time.Now()
	if id <= 0 {
		return apperrors.Validation("job id is required")
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx core.Tx) error {
		job, err := s.lockOne(ctx, tx, id)
		if err != nil {
			return err
		}
		if job.IsOpen() {
			return apperrors.AlreadyOpenf("job %d is already open", id)
		}
		frozen := job.Priority
		job.Status = model.JobStatusReopened
		job.ClosedAt = nil
		if err := s.ledger.Admit(ctx, tx, job, s.policy.KeyFor(job)); err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "job reopened",
			"id", id, "scope", job.ScopeKey, "priority", job.Priority, "frozen_priority", frozen)
		return s.repo.Update(ctx, tx, job)
	})
	s.record(ctx, metrics.OpReopen, start, err)
	if err != nil {
		return s.mapErr(err, id)
	}
	return nil
}

// GetListJobs lists jobs for the selector. Failures are logged and reported as an empty list.
func (s *JobService) GetListJobs(ctx context.Context, selector model.JobListSelector) model.JobList {
	opts, err := selector.ToOptions()
	if err != nil {
		s.logger.WarnContext(ctx, "invalid job list selector",
			"type", selector.Type, "identifier", selector.Identifier, "error", err)
		return model.EmptyJobList()
	}

	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "list jobs failed", "type", selector.Type, "error", err)
		return model.EmptyJobList()
	}
	if jobs == nil {
		return model.EmptyJobList()
	}
	return model.JobList{Jobs: jobs}
}

// GetJob returns one job by id.
func (s *JobService) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	if id <= 0 {
		return nil, apperrors.Validation("job id is required")
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, id)
	}
	return job, nil
}

// lockOne locks the row of id and returns the job, or NotFound.
func (s *JobService) lockOne(ctx context.Context, tx core.Tx, id int64) (*model.Job, error) {
	jobs, err := s.repo.LockByIDs(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, apperrors.NotFoundf("job %d not found", id)
	}
	return jobs[0], nil
}

func (s *JobService) mapErr(err error, id int64) error {
	if errors.Is(err, data.ErrJobNotFound) {
		return apperrors.Wrapf(err, apperrors.ErrCodeNotFound, "job %d not found", id)
	}
	return apperrors.MapDBError(err)
}

func (s *JobService) record(ctx context.Context, op string, start time.Time, err error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "job operation failed", "op", op, "error", err)
	}
	metrics.EmitJobOperation(s.metrics, metrics.JobMetric{
		Operation: op,
		Result:    metrics.ResultFor(err),
		Duration:  time.Since(start),
		Err:       err,
	})
}
