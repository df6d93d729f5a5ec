package config

import (
	"time"

	"github.com/target/jobdesk-api/internal/domain/model"
)

// LedgerConfig controls how jobs are grouped into ordering scopes.
type LedgerConfig struct {
	// ScopeBy selects the scope policy: technician, status, or technician_status.
	ScopeBy model.ScopePolicy `env:"LEDGER_SCOPE_BY" envDefault:"technician"`

	// LockTimeout bounds how long a transaction waits for row and scope locks.
	// Applied per transaction on PostgreSQL and MySQL; zero leaves the server default.
	LockTimeout time.Duration `env:"LEDGER_LOCK_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to ledger configuration values.
func (l *LedgerConfig) Sanitize() {
	if !l.ScopeBy.Valid() {
		l.ScopeBy = model.ScopeByTechnician
	}
	if l.LockTimeout < 0 {
		l.LockTimeout = 0
	}
}

// AuditConfig contains scope auditor service configuration.
type AuditConfig struct {
	// Interval is the auditor tick interval.
	Interval time.Duration `env:"AUDIT_INTERVAL" envDefault:"10m"`

	// Repair compacts drifted scopes instead of only reporting them.
	Repair bool `env:"AUDIT_REPAIR" envDefault:"false"`

	// BatchSize is the maximum number of scopes verified per tick.
	BatchSize int `env:"AUDIT_BATCH_SIZE" envDefault:"500"`
}

// Sanitize applies guardrails to auditor configuration values.
func (a *AuditConfig) Sanitize() {
	// Enforce a minimum interval to prevent excessive database load
	if a.Interval < 30*time.Second {
		a.Interval = 30 * time.Second
	}
	if a.BatchSize < 1 {
		a.BatchSize = 1
	}
	if a.BatchSize > 10000 {
		a.BatchSize = 10000
	}
}
