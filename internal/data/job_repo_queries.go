package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/domain/model"
)

const (
	defaultJobListLimit = 500
	maxJobListLimit     = 1000
)

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	q := r.dialect.Rebind("SELECT " + jobColumns + " FROM jobs WHERE id = ?")
	job, err := scanJob(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// List returns jobs matching opts. Open jobs come first, grouped by scope in rank order;
// closed jobs follow with their frozen ranks.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]model.Job, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultJobListLimit
	}
	limit = min(limit, maxJobListLimit)

	qopts := []database.ListQueryOption{
		database.WithColumns(jobColumns),
		database.WithOrderByExpr("CASE WHEN active_scope IS NULL THEN 1 ELSE 0 END"),
		database.WithOrderBy("scope_key", "ASC"),
		database.WithOrderBy("priority", "ASC"),
		database.WithOrderBy("id", "ASC"),
		database.WithLimit(limit),
	}
	if opts.Offset > 0 {
		qopts = append(qopts, database.WithOffset(opts.Offset))
	}
	if opts.OwnerID != nil {
		qopts = append(qopts, database.WithCondition(database.WhereCond("owner_id", database.Equal, *opts.OwnerID)))
	}
	if opts.ClientID != nil {
		qopts = append(qopts, database.WithCondition(database.WhereCond("client_id", database.Equal, *opts.ClientID)))
	}
	if opts.Status != nil {
		qopts = append(qopts, database.WithCondition(database.WhereCond("status", database.Equal, string(*opts.Status))))
	}
	if opts.Scope != nil {
		qopts = append(qopts, database.WithCondition(database.WhereCond("scope_key", database.Equal, string(*opts.Scope))))
	}

	q, args := database.BuildListQuery(r.dialect, database.NewListQueryOptions("jobs", qopts...))
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	return jobs, nil
}
