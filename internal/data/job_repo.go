package data

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/domain/model"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Dialect      database.Dialect
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for jobs and their scope ordering.
type JobRepo struct {
	DB           *sql.DB
	dialect      database.Dialect
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	d := cfg.Dialect
	if d == "" {
		d = database.Postgres
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobRepo{
		DB:           db,
		dialect:      d,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

var _ core.JobRepository = (*JobRepo)(nil)

const jobColumns = `
  id,
  scope_key,
  status,
  priority,
  owner_id,
  client_id,
  created_by,
  equipment_type,
  equipment_procedure,
  brand,
  model,
  serial_number,
  description,
  created_at,
  updated_at,
  closed_at
`

// jobRowData holds the nullable columns of a job row during scanning.
type jobRowData struct {
	createdBy sql.NullInt64
	closedAt  sql.NullTime
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	var data jobRowData
	if err := row.Scan(
		&job.ID,
		&job.ScopeKey,
		&job.Status,
		&job.Priority,
		&job.OwnerID,
		&job.ClientID,
		&data.createdBy,
		&job.EquipmentType,
		&job.EquipmentProcedure,
		&job.Brand,
		&job.Model,
		&job.SerialNumber,
		&job.Description,
		&job.CreatedAt,
		&job.UpdatedAt,
		&data.closedAt,
	); err != nil {
		return nil, err
	}
	job.CreatedBy = cloneNullableInt64(data.createdBy)
	job.ClosedAt = cloneNullableTime(data.closedAt)
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()
	return &job, nil
}

func scanJobs(rows *sql.Rows) ([]model.Job, error) {
	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func cloneNullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func cloneNullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

// activeScope is the value stored in jobs.active_scope: the scope key while the job is
// open, NULL once it is closed. The unique (active_scope, priority) constraint relies on it.
func activeScope(job *model.Job) any {
	if job.Status.IsOpen() {
		return string(job.ScopeKey)
	}
	return nil
}

func nullableInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
