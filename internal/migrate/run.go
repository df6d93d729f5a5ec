// Package migrate applies the embedded, per-dialect SQL schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/target/jobdesk-api/internal/data/database"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema file. Version is the file name without ".sql".
type Migration struct {
	Version string
	File    string
}

// List returns the migration file names embedded for dialect d, in apply order.
func List(d database.Dialect) ([]string, error) {
	names, err := fs.Glob(migrationsFS, path.Join(d.MigrationsDir(), "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, len(names))
	for i, n := range names {
		files[i] = path.Base(n)
	}
	slices.Sort(files)
	return files, nil
}

// Run applies every pending migration for dialect d, each in its own transaction.
// Applied versions are skipped, so it is safe to call on every start.
func Run(ctx context.Context, db *sql.DB, d database.Dialect) error {
	pending, err := Pending(ctx, db, d)
	if err != nil {
		return err
	}
	logger := slog.Default().With("component", "migrations", "dialect", string(d))
	for _, m := range pending {
		logger.InfoContext(ctx, "applying migration", "version", m.Version)
		if err = apply(ctx, db, d, m); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the embedded migrations not yet recorded in schema_migrations,
// creating that table when it is missing.
func Pending(ctx context.Context, db *sql.DB, d database.Dialect) ([]Migration, error) {
	if _, err := db.ExecContext(ctx, schemaMigrationsDDL(d)); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	files, err := List(d)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, f := range files {
		version := strings.TrimSuffix(f, ".sql")
		if !applied[version] {
			pending = append(pending, Migration{Version: version, File: f})
		}
	}
	return pending, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err = rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func schemaMigrationsDDL(d database.Dialect) string {
	versionType, appliedType, now := "TEXT", "TIMESTAMPTZ", "now()"
	switch d {
	case database.MySQL:
		versionType, appliedType, now = "VARCHAR(255)", "TIMESTAMP", "CURRENT_TIMESTAMP"
	case database.SQLite:
		appliedType, now = "DATETIME", "CURRENT_TIMESTAMP"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_migrations (
	version %s PRIMARY KEY,
	applied_at %s NOT NULL DEFAULT %s
)`, versionType, appliedType, now)
}

func apply(ctx context.Context, db *sql.DB, d database.Dialect, m Migration) (err error) {
	src, err := migrationsFS.ReadFile(path.Join(d.MigrationsDir(), m.File))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.File, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.File, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback migration %s: %w", m.File, rbErr))
			}
		}
	}()

	for _, stmt := range statements(d, string(src)) {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration %s: %w", m.File, err)
		}
	}
	if _, err = tx.ExecContext(ctx, d.Rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), m.Version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.File, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.File, err)
	}
	return nil
}

// statements splits a migration file into executable statements. Postgres takes the whole
// file in one Exec. The MySQL driver rejects multi-statement strings, so the other
// dialects split on lines ending in ';'.
func statements(d database.Dialect, src string) []string {
	if d == database.Postgres {
		return []string{src}
	}
	var out []string
	var cur strings.Builder
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" && stmt != ";" {
			out = append(out, stmt)
		}
		cur.Reset()
	}
	for line := range strings.SplitSeq(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()
	return out
}
