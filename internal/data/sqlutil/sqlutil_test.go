package sqlutil

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/target/jobdesk-api/internal/data/database"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE t (v INTEGER)`)
	require.NoError(t, err)
	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithSQLTx_Commits(t *testing.T) {
	db := openDB(t)
	err := WithSQLTx(context.Background(), db, SQLTxConfig{Fn: func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO t (v) VALUES (1)`)
		return err
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))
}

func TestWithSQLTx_RollsBackOnError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")
	err := WithSQLTx(context.Background(), db, SQLTxConfig{Fn: func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO t (v) VALUES (1)`); err != nil {
			return err
		}
		return boom
	}})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db))
}

func TestWithSQLTx_CanceledContext(t *testing.T) {
	db := openDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithSQLTx(ctx, db, SQLTxConfig{Fn: func(*sql.Tx) error { return nil }})
	require.Error(t, err)
	assert.Equal(t, 0, count(t, db))
}

func TestTxOptions(t *testing.T) {
	assert.Equal(t, sql.LevelReadCommitted, TxOptions(database.Postgres).Isolation)
	assert.Equal(t, sql.LevelReadCommitted, TxOptions(database.MySQL).Isolation)
	assert.Nil(t, TxOptions(database.SQLite))
	assert.Equal(t, "default", IsoLevelName(nil))
	assert.Equal(t, "Read Committed", IsoLevelName(TxOptions(database.MySQL)))
}
