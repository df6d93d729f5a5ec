package testutil

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/target/jobdesk-api/internal/data/database"
)

// SetupMySQLTestDB opens the MySQL database named by TEST_MYSQL_DSN, migrates it and
// empties the ledger tables. Seeded lookup values are kept.
func SetupMySQLTestDB(t TestingTB) *sql.DB {
	t.Helper()

	raw := os.Getenv("TEST_MYSQL_DSN")
	if raw == "" {
		skipOrFail(t, required("MYSQL"), "TEST_MYSQL_DSN not set")
		return nil
	}
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		t.Fatal("invalid TEST_MYSQL_DSN:", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		t.Fatal("build mysql connector:", err)
	}
	db := sql.OpenDB(connector)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		closeAndLog(t, "mysql DB", db)
		skipOrFail(t, required("MYSQL"), "mysql not available:", err)
		return nil
	}
	migrateFresh(t, db, database.MySQL)
	truncateLedger(t, db)
	registerCleanup(t, func() {
		truncateLedger(t, db)
		closeAndLog(t, "mysql DB", db)
	})
	return db
}

func truncateLedger(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, table := range []string{"jobs", "job_scopes", "clients"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clear %s: %v", table, err)
		}
	}
}
