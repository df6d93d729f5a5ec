package data

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/domain/model"
)

const insertJobSQL = `
  INSERT INTO jobs (
    scope_key, active_scope, status, priority, owner_id, client_id, created_by,
    equipment_type, equipment_procedure, brand, model, serial_number, description,
    created_at, updated_at, closed_at
  ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert stores a new job and returns its id. The job's scope and priority must already
// be assigned; the caller holds the scope lock that made the priority safe to use.
func (r *JobRepo) Insert(ctx context.Context, tx core.Tx, job *model.Job) (int64, error) {
	if job == nil {
		return 0, errors.New("job is required")
	}
	if job.ScopeKey == "" {
		return 0, errors.New("job scope is required")
	}

	now := r.timeProvider.Now().UTC()
	args := []any{
		string(job.ScopeKey),
		activeScope(job),
		string(job.Status),
		job.Priority,
		job.OwnerID,
		job.ClientID,
		nullableInt64(job.CreatedBy),
		job.EquipmentType,
		job.EquipmentProcedure,
		job.Brand,
		job.Model,
		job.SerialNumber,
		job.Description,
		now,
		now,
		nullableTime(job.ClosedAt),
	}

	var id int64
	if r.dialect.SupportsReturning() {
		q := r.dialect.Rebind(insertJobSQL + " RETURNING id")
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert job: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, r.dialect.Rebind(insertJobSQL), args...)
		if err != nil {
			return 0, fmt.Errorf("insert job: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("insert job: last insert id: %w", err)
		}
	}

	job.ID = id
	job.CreatedAt = now
	job.UpdatedAt = now
	return id, nil
}

// LockByIDs locks the rows of the given jobs in ascending id order and returns the jobs
// that exist, in that order. Missing ids are silently skipped; callers compare lengths.
func (r *JobRepo) LockByIDs(ctx context.Context, tx core.Tx, ids ...int64) ([]*model.Job, error) {
	ids = uniqueSortedIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := "SELECT " + jobColumns + " FROM jobs WHERE id IN (" + database.Placeholders(len(ids)) +
		") ORDER BY id" + r.dialect.ForUpdate()

	rows, err := tx.QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("lock jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*model.Job, 0, len(ids))
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan locked job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locked jobs: %w", err)
	}
	return jobs, nil
}

const updateJobSQL = `
  UPDATE jobs SET
    scope_key = ?,
    active_scope = ?,
    status = ?,
    priority = ?,
    owner_id = ?,
    client_id = ?,
    equipment_type = ?,
    equipment_procedure = ?,
    brand = ?,
    model = ?,
    serial_number = ?,
    description = ?,
    updated_at = ?,
    closed_at = ?
  WHERE id = ?`

// Update rewrites the mutable columns of an existing job. active_scope is derived from the
// status so that closing a job removes it from its scope's ordering in the same write.
func (r *JobRepo) Update(ctx context.Context, tx core.Tx, job *model.Job) error {
	if job == nil || job.ID <= 0 {
		return errors.New("job with id is required")
	}

	now := r.timeProvider.Now().UTC()
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(updateJobSQL),
		string(job.ScopeKey),
		activeScope(job),
		string(job.Status),
		job.Priority,
		job.OwnerID,
		job.ClientID,
		job.EquipmentType,
		job.EquipmentProcedure,
		job.Brand,
		job.Model,
		job.SerialNumber,
		job.Description,
		now,
		nullableTime(job.ClosedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", job.ID, err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}
	job.UpdatedAt = now
	return nil
}

// SetPriority rewrites only the rank of one job.
func (r *JobRepo) SetPriority(ctx context.Context, tx core.Tx, id int64, priority int) error {
	res, err := tx.ExecContext(ctx,
		r.dialect.Rebind("UPDATE jobs SET priority = ?, updated_at = ? WHERE id = ?"),
		priority, r.timeProvider.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set priority of job %d: %w", id, err)
	}
	return requireOneRow(res)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireOneRow(res rowsAffecter) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func uniqueSortedIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
