package core

import (
	"context"
	"database/sql"

	"github.com/target/jobdesk-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// Tx executes parameterized statements. *sql.Tx satisfies it, and so does *sql.DB for
// read-only callers that do not need a transaction.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the unit of work run inside a transaction.
type TxFunc func(ctx context.Context, tx Tx) error

// Transactor scopes a unit of work to one transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including on context cancellation.
type Transactor interface {
	WithTx(ctx context.Context, fn TxFunc) error
}

// JobRepository defines the interface for job data operations. Methods taking a Tx run
// inside the caller's transaction; locks they take are held until it ends.
type JobRepository interface {
	// Insert stores a new job and returns its store-assigned id.
	Insert(ctx context.Context, tx Tx, job *model.Job) (int64, error)
	// LockByIDs locks the given rows in ascending id order and returns the jobs found.
	LockByIDs(ctx context.Context, tx Tx, ids ...int64) ([]*model.Job, error)
	// Update rewrites every mutable column of the job, including scope, status and priority.
	Update(ctx context.Context, tx Tx, job *model.Job) error
	// SetPriority rewrites only the priority of one job.
	SetPriority(ctx context.Context, tx Tx, id int64, priority int) error
	// LockScopes serializes tail reads on each scope until the transaction ends.
	// Scopes are locked in ascending key order.
	LockScopes(ctx context.Context, tx Tx, scopes ...model.ScopeKey) error
	// ScopeStats counts the open jobs of a scope and returns their highest rank.
	ScopeStats(ctx context.Context, tx Tx, scope model.ScopeKey) (model.ScopeStats, error)
	// OpenRanks returns the open jobs of a scope ordered by (priority, id), locking them
	// when forUpdate is set.
	OpenRanks(ctx context.Context, tx Tx, scope model.ScopeKey, forUpdate bool) ([]model.JobRank, error)

	GetByID(ctx context.Context, id int64) (*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]model.Job, error)
	// ListScopes returns every scope with at least one open job, ordered by key.
	ListScopes(ctx context.Context, limit int) ([]model.ScopeStats, error)
}

// LookupRepository reads the reference data offered by the job form.
type LookupRepository interface {
	ListValues(ctx context.Context, domains []model.LookupDomain) ([]model.LookupValue, error)
	ListClients(ctx context.Context) ([]model.ClientRef, error)
}
