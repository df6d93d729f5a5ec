package config

import (
	"strings"
	"time"
)

// DBDriver names a supported relational store.
type DBDriver string

const (
	// DBDriverPostgres selects PostgreSQL through the pgx stdlib driver.
	DBDriverPostgres DBDriver = "postgres"
	// DBDriverMySQL selects MySQL through go-sql-driver/mysql.
	DBDriverMySQL DBDriver = "mysql"
	// DBDriverSQLite selects an embedded SQLite database (modernc.org/sqlite).
	DBDriverSQLite DBDriver = "sqlite"
)

// Valid reports whether the driver is supported.
func (d DBDriver) Valid() bool {
	return d == DBDriverPostgres || d == DBDriverMySQL || d == DBDriverSQLite
}

// DBConfig contains relational database configuration.
type DBConfig struct {
	Driver   DBDriver `env:"DRIVER"   envDefault:"postgres"`
	Host     string   `env:"HOST"     envDefault:"localhost"`
	Port     int      `env:"PORT"     envDefault:"5432"`
	User     string   `env:"USER"     envDefault:"jobdesk"`
	Password string   `env:"PASSWORD" envDefault:"jobdesk"`
	Name     string   `env:"NAME"     envDefault:"jobdesk"`
	SSLMode  string   `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production

	// Path is the SQLite database file. ":memory:" keeps everything in process.
	Path string `env:"PATH" envDefault:"jobdesk.db"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"     envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"  envDefault:"5m"`

	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to database configuration values.
func (d *DBConfig) Sanitize() {
	d.Driver = DBDriver(strings.ToLower(strings.TrimSpace(string(d.Driver))))
	if d.Driver == "" || d.Driver == "pgx" || d.Driver == "postgresql" {
		d.Driver = DBDriverPostgres
	}
	if d.MaxOpenConns < 1 {
		d.MaxOpenConns = 1
	}
	if d.MaxIdleConns < 0 {
		d.MaxIdleConns = 0
	}
	if d.MaxIdleConns > d.MaxOpenConns {
		d.MaxIdleConns = d.MaxOpenConns
	}
	if strings.TrimSpace(d.Path) == "" {
		d.Path = "jobdesk.db"
	}
	// SQLite allows a single writer; a larger pool only produces BUSY errors.
	if d.Driver == DBDriverSQLite {
		d.MaxOpenConns = 1
		d.MaxIdleConns = 1
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	// Enabled turns on the Redis-backed lookup cache. When false no Redis connection is made.
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// CacheConfig contains cache configuration (Redis-based).
type CacheConfig struct {
	// LookupTTL is the TTL for cached job form lookup values.
	LookupTTL time.Duration `env:"CACHE_LOOKUP_TTL" envDefault:"10m"`
	// KeyPrefix namespaces cache keys when Redis is shared.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"jobdesk"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.LookupTTL < 0 {
		c.LookupTTL = 0
	}
	c.KeyPrefix = strings.Trim(strings.TrimSpace(c.KeyPrefix), ":")
}
