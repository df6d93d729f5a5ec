package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"pgx":        Postgres,
		"mysql":      MySQL,
		" sqlite ":   SQLite,
		"sqlite3":    SQLite,
	} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}

func TestDialect_Rebind(t *testing.T) {
	q := "UPDATE jobs SET priority = ? WHERE id = ? AND note <> 'why?'"
	assert.Equal(t, "UPDATE jobs SET priority = $1 WHERE id = $2 AND note <> 'why?'", Postgres.Rebind(q))
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
}

func TestDialect_Features(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", Postgres.ForUpdate())
	assert.Equal(t, " FOR UPDATE", MySQL.ForUpdate())
	assert.Empty(t, SQLite.ForUpdate())

	assert.True(t, Postgres.SupportsReturning())
	assert.True(t, SQLite.SupportsReturning())
	assert.False(t, MySQL.SupportsReturning())

	assert.Equal(t, "pgx", Postgres.DriverName())
	assert.Equal(t, "mysql", MySQL.DriverName())
	assert.Equal(t, "sqlite", SQLite.DriverName())

	assert.Equal(t, "migrations/mysql", MySQL.MigrationsDir())
}

func TestDialect_QuoteIdent(t *testing.T) {
	assert.Equal(t, `"jobs"."scope_key"`, Postgres.QuoteIdent("jobs.scope_key"))
	assert.Equal(t, "`jobs`.`scope_key`", MySQL.QuoteIdent("jobs.scope_key"))
	assert.Equal(t, `"we""ird"`, SQLite.QuoteIdent(`we"ird`))
}

func TestDialect_LockTimeoutStatement(t *testing.T) {
	assert.Equal(t, "SET LOCAL lock_timeout = '1500ms'", Postgres.LockTimeoutStatement(1500*time.Millisecond))
	assert.Equal(t, "SET SESSION innodb_lock_wait_timeout = 1", MySQL.LockTimeoutStatement(200*time.Millisecond))
	assert.Equal(t, "SET SESSION innodb_lock_wait_timeout = 5", MySQL.LockTimeoutStatement(5*time.Second))
	assert.Empty(t, SQLite.LockTimeoutStatement(time.Second))
	assert.Empty(t, Postgres.LockTimeoutStatement(0))
}

func TestPlaceholders(t *testing.T) {
	assert.Empty(t, Placeholders(0))
	assert.Equal(t, "?", Placeholders(1))
	assert.Equal(t, "?, ?, ?", Placeholders(3))
}
