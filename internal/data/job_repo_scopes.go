package data

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"math"
	"slices"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/domain/model"
)

// Two-arg pg_advisory_xact_lock(major, minor) keeps scope locks in their own namespace.
// Major key 2001 is reserved for scope tail locks.
const advisoryLockScopeMajor int64 = 2001

func advisoryLockScopeMinor(scope model.ScopeKey) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(scope))
	hashValue := h.Sum32()
	maxInt32 := uint32(math.MaxInt32)
	if hashValue > maxInt32 {
		hashValue &= maxInt32
	}
	return int64(hashValue)
}

// LockScopes takes the tail lock of every given scope, held until the transaction ends.
// Two writers that both append to a scope are serialized here, so the tail one of them
// reads afterwards is never stale.
func (r *JobRepo) LockScopes(ctx context.Context, tx core.Tx, scopes ...model.ScopeKey) error {
	keys := uniqueSortedScopes(scopes)
	if len(keys) == 0 {
		return nil
	}

	switch r.dialect {
	case database.Postgres:
		return r.lockScopesAdvisory(ctx, tx, keys)
	case database.MySQL:
		return r.lockScopesRows(ctx, tx, keys)
	default:
		// SQLite transactions begin IMMEDIATE and already own the database write lock.
		return nil
	}
}

func (r *JobRepo) lockScopesAdvisory(ctx context.Context, tx core.Tx, keys []model.ScopeKey) error {
	// Locks are taken in minor-key order; two keys sharing a hash share a lock.
	minors := make([]int64, 0, len(keys))
	for _, k := range keys {
		minors = append(minors, advisoryLockScopeMinor(k))
	}
	slices.Sort(minors)
	minors = slices.Compact(minors)

	q := r.dialect.Rebind("SELECT pg_advisory_xact_lock(?::integer, ?::integer)")
	for _, minor := range minors {
		if _, err := tx.ExecContext(ctx, q, advisoryLockScopeMajor, minor); err != nil {
			return fmt.Errorf("acquire scope lock: %w", err)
		}
	}
	return nil
}

func (r *JobRepo) lockScopesRows(ctx context.Context, tx core.Tx, keys []model.ScopeKey) error {
	now := r.timeProvider.Now().UTC()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO job_scopes (scope_key, created_at) VALUES (?, ?) ON DUPLICATE KEY UPDATE scope_key = scope_key",
			string(k), now,
		); err != nil {
			return fmt.Errorf("register scope %q: %w", k, err)
		}
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = string(k)
	}
	rows, err := tx.QueryContext(ctx,
		"SELECT scope_key FROM job_scopes WHERE scope_key IN ("+database.Placeholders(len(keys))+") ORDER BY scope_key FOR UPDATE",
		args...,
	)
	if err != nil {
		return fmt.Errorf("lock scopes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	locked := 0
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("scan scope lock: %w", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock scopes: %w", err)
	}
	if locked != len(keys) {
		return fmt.Errorf("lock scopes: locked %d of %d", locked, len(keys))
	}
	return nil
}

// ScopeStats counts the open jobs of a scope and reads its highest rank.
func (r *JobRepo) ScopeStats(ctx context.Context, tx core.Tx, scope model.ScopeKey) (model.ScopeStats, error) {
	stats := model.ScopeStats{Scope: scope}
	err := tx.QueryRowContext(ctx,
		r.dialect.Rebind("SELECT COUNT(*), COALESCE(MAX(priority), 0) FROM jobs WHERE active_scope = ?"),
		string(scope),
	).Scan(&stats.OpenCount, &stats.MaxPriority)
	if err != nil {
		return stats, fmt.Errorf("scope stats %q: %w", scope, err)
	}
	return stats, nil
}

const openRanksSQL = "SELECT id, priority FROM jobs WHERE active_scope = ? ORDER BY priority, id"

// lockRanksQuery locks rows through the primary key in ascending id order, the order
// LockByIDs uses, so a compaction and a reorder over the same rows never wait on each
// other in a cycle.
func lockRanksQuery(d database.Dialect, n int) string {
	return d.Rebind("SELECT id, priority FROM jobs WHERE id IN (" + database.Placeholders(n) +
		") AND active_scope = ? ORDER BY id" + d.ForUpdate())
}

// OpenRanks returns the open jobs of a scope ordered by (priority, id). With forUpdate
// the returned rows are also locked until the transaction ends.
func (r *JobRepo) OpenRanks(ctx context.Context, tx core.Tx, scope model.ScopeKey, forUpdate bool) ([]model.JobRank, error) {
	ranks, err := r.queryRanks(ctx, tx, r.dialect.Rebind(openRanksSQL), string(scope))
	if err != nil || !forUpdate || len(ranks) == 0 {
		return ranks, err
	}

	ids := make([]int64, len(ranks))
	for i, jr := range ranks {
		ids[i] = jr.ID
	}
	slices.Sort(ids)
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, string(scope))

	// Rows that left the scope before the lock was granted drop out here.
	locked, err := r.queryRanks(ctx, tx, lockRanksQuery(r.dialect, len(ranks)), args...)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(locked, func(a, b model.JobRank) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.ID, b.ID))
	})
	return locked, nil
}

func (r *JobRepo) queryRanks(ctx context.Context, tx core.Tx, q string, args ...any) ([]model.JobRank, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("open ranks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ranks []model.JobRank
	for rows.Next() {
		var jr model.JobRank
		if err := rows.Scan(&jr.ID, &jr.Priority); err != nil {
			return nil, fmt.Errorf("scan rank: %w", err)
		}
		ranks = append(ranks, jr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranks: %w", err)
	}
	return ranks, nil
}

const (
	defaultScopeListLimit = 1000
	maxScopeListLimit     = 10000
)

// ListScopes returns every scope holding at least one open job, ordered by key.
func (r *JobRepo) ListScopes(ctx context.Context, limit int) ([]model.ScopeStats, error) {
	if limit <= 0 {
		limit = defaultScopeListLimit
	}
	limit = min(limit, maxScopeListLimit)

	rows, err := r.DB.QueryContext(ctx, r.dialect.Rebind(`
		SELECT active_scope, COUNT(*), MAX(priority)
		FROM jobs
		WHERE active_scope IS NOT NULL
		GROUP BY active_scope
		ORDER BY active_scope
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.ScopeStats
	for rows.Next() {
		var (
			s     model.ScopeStats
			scope sql.NullString
		)
		if err := rows.Scan(&scope, &s.OpenCount, &s.MaxPriority); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		s.Scope = model.ScopeKey(scope.String)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scopes: %w", err)
	}
	return out, nil
}

func uniqueSortedScopes(scopes []model.ScopeKey) []model.ScopeKey {
	out := make([]model.ScopeKey, 0, len(scopes))
	for _, s := range scopes {
		if s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
