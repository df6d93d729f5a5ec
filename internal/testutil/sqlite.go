package testutil

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/target/jobdesk-api/internal/data/database"
)

const sqliteTestParams = "?_txlock=immediate&_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// SetupSQLiteDB opens a migrated SQLite database in a per-test temp directory.
func SetupSQLiteDB(t TestingTB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+filepath.Join(tempDir(t), "jobdesk.db")+sqliteTestParams)
	if err != nil {
		t.Fatal("open sqlite database:", err)
	}
	// One connection serializes writers the same way production does.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	migrateFresh(t, db, database.SQLite)
	registerCleanup(t, func() { closeAndLog(t, "sqlite DB", db) })
	return db
}

func tempDir(t TestingTB) string {
	if td, ok := any(t).(interface{ TempDir() string }); ok {
		return td.TempDir()
	}
	dir, err := os.MkdirTemp("", "jobdesk-test-*")
	if err != nil {
		t.Fatal("create temp dir:", err)
	}
	registerCleanup(t, func() { _ = os.RemoveAll(dir) })
	return dir
}
