package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/target/jobdesk-api/internal/data/database"
)

// TestDBConfig addresses the Postgres server used by integration tests.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* variables. The port defaults to 55432, the
// docker-compose test profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "jobdesk"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "jobdesk"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "jobdesk"),
	}
}

func buildBaseDSN(cfg TestDBConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.User, cfg.Password, net.JoinHostPort(cfg.Host, cfg.Port), cfg.DBName,
		getEnvOrDefault("DB_SSL_MODE", "disable"))
}

// SetupAutoDB returns a migrated Postgres database isolated in a fresh schema that is
// dropped when the test ends.
func SetupAutoDB(t TestingTB) *sql.DB {
	t.Helper()

	admin, err := sql.Open("pgx", buildBaseDSN(DefaultTestDBConfig()))
	if err != nil {
		t.Fatal("open postgres:", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = admin.PingContext(ctx); err != nil {
		closeAndLog(t, "admin DB", admin)
		skipOrFail(t, required("DB"), "postgres not available:", err)
		return nil
	}

	schema := "t_" + strings.ToLower(rand.Text()[:10])
	if _, err = admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		closeAndLog(t, "admin DB", admin)
		t.Fatalf("create schema %s: %v", schema, err)
	}

	db, err := openInSchema(ctx, schema)
	if err != nil {
		closeAndLog(t, "admin DB", admin)
		t.Fatal(err)
	}
	registerCleanup(t, func() {
		closeAndLog(t, "schema DB", db)
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		if _, derr := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); derr != nil {
			t.Logf("warning: drop schema %s: %v", schema, derr)
		}
		closeAndLog(t, "admin DB", admin)
	})

	migrateFresh(t, db, database.Postgres)
	return db
}

func openInSchema(ctx context.Context, schema string) (*sql.DB, error) {
	u, err := url.Parse(buildBaseDSN(DefaultTestDBConfig()))
	if err != nil {
		return nil, fmt.Errorf("parse test DSN: %w", err)
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()

	db, err := sql.Open("pgx", u.String())
	if err != nil {
		return nil, fmt.Errorf("open schema %s: %w", schema, err)
	}
	db.SetMaxOpenConns(10)
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping schema %s: %w", schema, err)
	}
	return db, nil
}
