package data

import (
	"context"
	"database/sql"

	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/migrate"
)

// RunMigrations executes database migrations to set up the required schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB, d database.Dialect) error {
	return migrate.Run(ctx, db, d)
}
