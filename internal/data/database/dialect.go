// Package database holds the SQL dialect seam and the list query builder shared by the repositories.
package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Dialect identifies the SQL flavour spoken by the connected store.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database dialect %q", s)
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "pgx"
	}
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax. Question marks inside
// single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ForUpdate returns the row-locking suffix for SELECT statements. SQLite has no row locks;
// its transactions are opened IMMEDIATE and already hold the database write lock.
func (d Dialect) ForUpdate() string {
	if d == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// SupportsReturning reports whether INSERT ... RETURNING is available.
func (d Dialect) SupportsReturning() bool {
	return d == Postgres || d == SQLite
}

// QuoteIdent quotes a possibly qualified identifier ("table.column").
func (d Dialect) QuoteIdent(ident string) string {
	parts := strings.Split(ident, ".")
	if d == Postgres {
		return pgx.Identifier(parts).Sanitize()
	}
	q := `"`
	if d == MySQL {
		q = "`"
	}
	for i, p := range parts {
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

// Placeholders returns n comma separated '?' placeholders.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// LockTimeoutStatement returns the statement that bounds lock waits for the current
// transaction, or "" when the dialect has no such setting or timeout is zero.
func (d Dialect) LockTimeoutStatement(timeout time.Duration) string {
	if timeout <= 0 {
		return ""
	}
	switch d {
	case Postgres:
		return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())
	case MySQL:
		secs := int64(timeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", secs)
	default:
		return ""
	}
}

// MigrationsDir names the embedded directory holding the dialect's migrations.
func (d Dialect) MigrationsDir() string {
	return "migrations/" + string(d)
}
