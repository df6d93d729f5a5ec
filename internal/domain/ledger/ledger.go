// Package ledger keeps the per-scope priority ordering of open jobs dense and unique.
//
// Every method runs inside the caller's transaction. Locks taken here are held until that
// transaction ends, so a tail read is only valid for writes made in the same transaction.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
)

// ErrStoreRequired indicates a ledger cannot be constructed without a rank store.
var ErrStoreRequired = errors.New("ledger rank store is required")

// RankStore is the subset of the job repository the ledger needs.
type RankStore interface {
	LockScopes(ctx context.Context, tx core.Tx, scopes ...model.ScopeKey) error
	ScopeStats(ctx context.Context, tx core.Tx, scope model.ScopeKey) (model.ScopeStats, error)
	OpenRanks(ctx context.Context, tx core.Tx, scope model.ScopeKey, forUpdate bool) ([]model.JobRank, error)
	SetPriority(ctx context.Context, tx core.Tx, id int64, priority int) error
}

// Options configure a Ledger.
type Options struct {
	Store  RankStore
	Logger *slog.Logger
}

// Ledger assigns, swaps and compacts job priorities within scopes.
type Ledger struct {
	store  RankStore
	logger *slog.Logger
}

// New constructs a Ledger.
func New(opts Options) (*Ledger, error) {
	if opts.Store == nil {
		return nil, ErrStoreRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: opts.Store, logger: logger.With("component", "ledger")}, nil
}

// Lock takes the tail locks of the given scopes in ascending key order.
func (l *Ledger) Lock(ctx context.Context, tx core.Tx, scopes ...model.ScopeKey) error {
	return l.store.LockScopes(ctx, tx, scopes...)
}

// NextTailPriority locks scope and returns the rank a job appended to it must take.
// The value is max(open rank)+1, which equals open count+1 while the scope is dense and
// still never collides with an existing rank when it is not.
func (l *Ledger) NextTailPriority(ctx context.Context, tx core.Tx, scope model.ScopeKey) (int, error) {
	if scope == "" {
		return 0, apperrors.Validation("scope is required")
	}
	if err := l.store.LockScopes(ctx, tx, scope); err != nil {
		return 0, err
	}
	stats, err := l.store.ScopeStats(ctx, tx, scope)
	if err != nil {
		return 0, err
	}
	if !stats.Dense() {
		// Closes leave gaps until the scope is compacted.
		l.logger.DebugContext(ctx, "scope ranks are not dense",
			"scope", scope,
			"open_count", stats.OpenCount,
			"max_priority", stats.MaxPriority,
		)
	}
	return stats.MaxPriority + 1, nil
}

// Admit places job at the tail of scope. Only the in-memory job is changed; the caller
// persists it with Insert or Update in the same transaction.
func (l *Ledger) Admit(ctx context.Context, tx core.Tx, job *model.Job, scope model.ScopeKey) error {
	if job == nil {
		return apperrors.Validation("job is required")
	}
	tail, err := l.NextTailPriority(ctx, tx, scope)
	if err != nil {
		return err
	}
	job.ScopeKey = scope
	job.Priority = tail
	return nil
}

// Release takes job out of active ordering. It locks the job's current scope so the
// removal is ordered against concurrent tail reads; the rank itself stays on the job as
// its frozen priority. The caller's Update clears the active scope.
func (l *Ledger) Release(ctx context.Context, tx core.Tx, job *model.Job) error {
	if job == nil {
		return apperrors.Validation("job is required")
	}
	if job.ScopeKey == "" {
		return nil
	}
	return l.store.LockScopes(ctx, tx, job.ScopeKey)
}

// SwapPriorities exchanges the ranks of two open jobs of the same scope. Both rows must
// already be locked by the caller. No other job is touched.
func (l *Ledger) SwapPriorities(ctx context.Context, tx core.Tx, a, b *model.Job) error {
	if a == nil || b == nil {
		return apperrors.Validation("both jobs are required")
	}
	if a.ScopeKey != b.ScopeKey {
		return apperrors.ScopeMismatchf("jobs %d and %d belong to different scopes", a.ID, b.ID)
	}
	if !a.IsOpen() || !b.IsOpen() {
		return apperrors.Validationf("jobs %d and %d must both be open to reorder", a.ID, b.ID)
	}
	if a.ID == b.ID || a.Priority == b.Priority {
		return nil
	}

	pa, pb := a.Priority, b.Priority
	// a is parked on a rank no open job can hold so every statement keeps ranks unique.
	if err := l.store.SetPriority(ctx, tx, a.ID, parkedRank(a.ID)); err != nil {
		return err
	}
	if err := l.store.SetPriority(ctx, tx, b.ID, pa); err != nil {
		return err
	}
	if err := l.store.SetPriority(ctx, tx, a.ID, pb); err != nil {
		return err
	}
	a.Priority, b.Priority = pb, pa
	return nil
}

// Compact re-ranks the open jobs of scope to 1..N, keeping their (priority, id) order.
// It is a maintenance operation; normal traffic never needs it.
func (l *Ledger) Compact(ctx context.Context, tx core.Tx, scope model.ScopeKey) (model.CompactResult, error) {
	res := model.CompactResult{Scope: scope}
	if scope == "" {
		return res, apperrors.Validation("scope is required")
	}

	// Rows first in id order, as reorders and edits lock them, then the scope, then
	// re-read what the lock now protects.
	if _, err := l.store.OpenRanks(ctx, tx, scope, true); err != nil {
		return res, err
	}
	if err := l.store.LockScopes(ctx, tx, scope); err != nil {
		return res, err
	}
	ranks, err := l.store.OpenRanks(ctx, tx, scope, true)
	if err != nil {
		return res, err
	}
	res.Open = len(ranks)

	var moved []model.JobRank
	for i, r := range ranks {
		if want := i + 1; r.Priority != want {
			moved = append(moved, model.JobRank{ID: r.ID, Priority: want})
		}
	}
	if len(moved) == 0 {
		return res, nil
	}

	for _, m := range moved {
		if err := l.store.SetPriority(ctx, tx, m.ID, parkedRank(m.ID)); err != nil {
			return res, err
		}
	}
	for _, m := range moved {
		if err := l.store.SetPriority(ctx, tx, m.ID, m.Priority); err != nil {
			return res, err
		}
	}
	res.Changed = len(moved)

	l.logger.InfoContext(ctx, "scope compacted", "scope", scope, "open", res.Open, "changed", res.Changed)
	return res, nil
}

// Verify reports whether the open ranks of scope are exactly 1..N. It takes no locks.
func (l *Ledger) Verify(ctx context.Context, q core.Tx, scope model.ScopeKey) (model.ScopeHealth, error) {
	if scope == "" {
		return model.ScopeHealth{}, apperrors.Validation("scope is required")
	}
	ranks, err := l.store.OpenRanks(ctx, q, scope, false)
	if err != nil {
		return model.ScopeHealth{Scope: scope}, err
	}
	priorities := make([]int, len(ranks))
	for i, r := range ranks {
		priorities[i] = r.Priority
	}
	return model.NewScopeHealth(scope, priorities), nil
}

// parkedRank is a temporary rank unique to the job: ids are positive and live ranks are
// never below 1.
func parkedRank(id int64) int {
	return int(-id)
}
