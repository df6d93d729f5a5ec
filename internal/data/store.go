package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/data/sqlutil"
)

// StoreConfig holds configuration options for Store.
type StoreConfig struct {
	Dialect database.Dialect
	// LockTimeout bounds lock waits inside each transaction. Zero keeps the server default.
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// Store opens transactions on the relational store and implements core.Transactor.
type Store struct {
	DB          *sql.DB
	dialect     database.Dialect
	lockTimeout time.Duration
	txOpts      *sql.TxOptions
	logger      *slog.Logger
}

// NewStore creates a Store for db speaking the configured dialect.
func NewStore(db *sql.DB, cfg StoreConfig) *Store {
	d := cfg.Dialect
	if d == "" {
		d = database.Postgres
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		DB:          db,
		dialect:     d,
		lockTimeout: cfg.LockTimeout,
		txOpts:      sqlutil.TxOptions(d),
		logger:      logger.With("component", "store", "dialect", string(d)),
	}
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() database.Dialect { return s.dialect }

// WithTx runs fn inside one transaction. It commits when fn returns nil and rolls back
// otherwise; a canceled ctx aborts the transaction.
func (s *Store) WithTx(ctx context.Context, fn core.TxFunc) error {
	return sqlutil.WithSQLTx(ctx, s.DB, sqlutil.SQLTxConfig{
		Opts: s.txOpts,
		Fn: func(tx *sql.Tx) error {
			if stmt := s.dialect.LockTimeoutStatement(s.lockTimeout); stmt != "" {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("set lock timeout: %w", err)
				}
			}
			return fn(ctx, tx)
		},
	})
}

// Ping verifies the connection, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

var _ core.Transactor = (*Store)(nil)
