// Package testutil provides database, redis and time helpers shared by the jobdesk tests.
//
// SQLite databases are always available. Postgres, MySQL and Redis helpers skip the
// calling test when their server is unreachable, unless TEST_REQUIRE_<NAME> or
// TEST_REQUIRE_INFRA is truthy, in which case they fail it.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/migrate"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// TestTime is the fixed clock reading used across service tests.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// Int64Ptr returns &i.
func Int64Ptr(i int64) *int64 { return &i }

// StringPtr returns &s.
func StringPtr(s string) *string { return &s }

// TimePtr returns &t.
func TimePtr(t time.Time) *time.Time { return &t }

// ScopeRanks returns the open ranks of a scope as (id, priority) pairs in rank order.
func ScopeRanks(t TestingTB, db *sql.DB, d database.Dialect, scope string) [][2]int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx,
		d.Rebind(`SELECT id, priority FROM jobs WHERE active_scope = ? ORDER BY priority, id`), scope)
	if err != nil {
		t.Fatalf("query ranks of %s: %v", scope, err)
	}
	defer closeAndLog(t, "rank rows", rows)

	var out [][2]int64
	for rows.Next() {
		var id, priority int64
		if err = rows.Scan(&id, &priority); err != nil {
			t.Fatalf("scan rank: %v", err)
		}
		out = append(out, [2]int64{id, priority})
	}
	if err = rows.Err(); err != nil {
		t.Fatalf("iterate ranks: %v", err)
	}
	return out
}

// ConcurrentTestRunner fans functions out onto goroutines and collects their errors.
type ConcurrentTestRunner struct {
	t TestingTB
}

// NewConcurrentTestRunner creates a runner reporting to t.
func NewConcurrentTestRunner(t TestingTB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t}
}

// RunConcurrent starts every function at once and returns their errors in completion order.
func (r *ConcurrentTestRunner) RunConcurrent(funcs ...func() error) []error {
	r.t.Helper()
	start := make(chan struct{})
	results := make(chan error, len(funcs))
	for _, fn := range funcs {
		go func() {
			<-start
			results <- fn()
		}()
	}
	close(start)

	errs := make([]error, 0, len(funcs))
	for range funcs {
		errs = append(errs, <-results)
	}
	return errs
}

// AssertNoErrors fails the test on the first non-nil error.
func (r *ConcurrentTestRunner) AssertNoErrors(errs []error) {
	r.t.Helper()
	for i, err := range errs {
		if err != nil {
			r.t.Fatalf("concurrent operation %d failed: %v", i, err)
		}
	}
}

func migrateFresh(t TestingTB, db *sql.DB, d database.Dialect) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrate.Run(ctx, db, d); err != nil {
		closeAndLog(t, string(d)+" DB", db)
		t.Fatalf("migrate %s test database: %v", d, err)
	}
}

func skipOrFail(t TestingTB, fail bool, args ...any) {
	t.Helper()
	if fail {
		t.Fatal(args...)
	}
	t.Skip(args...)
}

func closeAndLog(t TestingTB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("warning: failed to close %s: %v", name, err)
	}
}

func registerCleanup(t TestingTB, fn func()) {
	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(fn)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	return slices.Contains([]string{"1", "true", "yes", "y"}, strings.ToLower(os.Getenv(key)))
}

// required reports whether a missing backend should fail rather than skip.
func required(name string) bool {
	return envBool("TEST_REQUIRE_"+name) || envBool("TEST_REQUIRE_INFRA")
}
