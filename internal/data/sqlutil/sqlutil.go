// Package sqlutil holds database/sql transaction helpers shared by the repositories.
package sqlutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/target/jobdesk-api/internal/data/database"
)

// SQLTxConfig groups parameters for WithSQLTx to keep parameter count ≤ 3.
type SQLTxConfig struct {
	Opts *sql.TxOptions
	Fn   func(*sql.Tx) error
}

// WithSQLTx runs the given function within a database/sql transaction. The transaction
// is rolled back when Fn fails, panics or ctx is canceled before commit.
func WithSQLTx(ctx context.Context, db *sql.DB, cfg SQLTxConfig) (err error) {
	tx, err := db.BeginTx(ctx, cfg.Opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = cfg.Fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TxOptions returns the transaction options used for ordering work on dialect d.
// PostgreSQL and MySQL run READ COMMITTED so that a tail read issued after a scope lock
// sees every rank committed by the previous lock holder; MySQL's REPEATABLE READ default
// would read from an older snapshot. SQLite serializes writers and keeps its default.
func TxOptions(d database.Dialect) *sql.TxOptions {
	switch d {
	case database.Postgres, database.MySQL:
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	default:
		return nil
	}
}

// IsoLevelName renders an isolation level for logs.
func IsoLevelName(opts *sql.TxOptions) string {
	if opts == nil || opts.Isolation == sql.LevelDefault {
		return "default"
	}
	return opts.Isolation.String()
}
