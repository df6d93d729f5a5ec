package auditor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/testutil"
)

func TestNewRunner_RequiresDB(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestRunner_AuditsSQLite(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)

	r, err := NewRunner(RunnerOptions{
		DB:      db,
		Dialect: database.SQLite,
		Config:  config.AuditConfig{Interval: time.Hour, BatchSize: 10},
	})
	require.NoError(t, err)

	report, err := r.Service().RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, r.Run(ctx))
}
