// Package testhelpers builds data-layer fixtures for tests outside the data package.
package testhelpers

import (
	"database/sql"

	"github.com/target/jobdesk-api/internal/data"
	"github.com/target/jobdesk-api/internal/data/database"
)

// NewJobRepoWithTimeProvider creates a JobRepo with the provided TimeProvider for tests.
func NewJobRepoWithTimeProvider(db *sql.DB, cfg data.RepoConfig, tp data.TimeProvider) *data.JobRepo {
	cfg.TimeProvider = tp
	return data.NewJobRepo(db, cfg)
}

// NewSQLiteStack wires a store and repositories over a migrated SQLite database.
func NewSQLiteStack(db *sql.DB, tp data.TimeProvider) (*data.Store, *data.JobRepo, *data.LookupRepo) {
	store := data.NewStore(db, data.StoreConfig{Dialect: database.SQLite})
	repo := NewJobRepoWithTimeProvider(db, data.RepoConfig{Dialect: database.SQLite}, tp)
	return store, repo, data.NewLookupRepo(db, database.SQLite)
}
