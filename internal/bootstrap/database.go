package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	// Register the pure-Go sqlite driver for database/sql.
	_ "modernc.org/sqlite"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/data"
	"github.com/target/jobdesk-api/internal/data/database"
)

const (
	connectTimeout = 5 * time.Second
	// applicationName tags Postgres sessions so pg_stat_activity shows which locks are ours.
	applicationName = "jobdesk"
)

// sqliteParams serialize writers at BEGIN and keep timestamps in a sortable text form.
const sqliteParams = "_txlock=immediate&_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// Dialect returns the SQL dialect of the configured driver.
func Dialect(cfg config.DBConfig) (database.Dialect, error) {
	return database.ParseDialect(string(cfg.Driver))
}

// ConnectDB opens and verifies a connection to the configured relational store.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	dialect, err := Dialect(cfg.DBConfig)
	if err != nil {
		return nil, err
	}

	db, err := openDB(dialect, cfg.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DBConfig.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DBConfig.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConfig.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		attrs := []any{"driver", string(dialect)}
		if dialect == database.SQLite {
			attrs = append(attrs, "path", cfg.DBConfig.Path)
		} else {
			attrs = append(attrs,
				"host", cfg.DBConfig.Host,
				"port", cfg.DBConfig.Port,
				"database", cfg.DBConfig.Name,
			)
		}
		cfg.Logger.Info("database connected", attrs...)
	}

	return db, nil
}

func openDB(d database.Dialect, cfg config.DBConfig) (*sql.DB, error) {
	switch d {
	case database.MySQL:
		connector, err := mysql.NewConnector(mysqlConfig(cfg))
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	case database.SQLite:
		return sql.Open(d.DriverName(), sqliteDSN(cfg.Path))
	default:
		pgCfg, err := pgx.ParseConfig(postgresDSN(cfg))
		if err != nil {
			return nil, err
		}
		pgCfg.RuntimeParams["application_name"] = applicationName
		return stdlib.OpenDB(*pgCfg), nil
	}
}

// postgresDSN builds the DSN using url.URL to safely handle special characters in credentials.
func postgresDSN(cfg config.DBConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// mysqlConfig returns driver settings the repositories rely on: DATETIME columns scan
// into time.Time, and UPDATE reports matched rather than changed rows.
func mysqlConfig(cfg config.DBConfig) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	if mode := strings.ToLower(cfg.SSLMode); mode != "" && mode != "disable" {
		mc.TLSConfig = "true"
	}
	return mc
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?" + sqliteParams
	}
	return "file:" + path + "?" + sqliteParams
}

// ConnectRedis establishes a connection to Redis. Sentinel and cluster deployments go
// through redis.UniversalOptions; a plain URI may be a redis:// URL or host:port.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	client, addrDesc, err := newRedisClient(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", addrDesc)
	}

	return client, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	switch {
	case cfg.UseCluster:
		addrs := normalizeAddrs(cfg.ClusterNodes)
		if len(addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		return redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrs, Password: cfg.Password}),
			"cluster:" + strings.Join(addrs, ","), nil
	case cfg.UseSentinel:
		addrs := normalizeAddrs(cfg.SentinelNodes)
		if len(addrs) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    addrs,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		}), "sentinel:" + cfg.SentinelMasterName, nil
	}

	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		// Log the address only; the URL may carry credentials.
		return redis.NewClient(opt), opt.Addr, nil
	}
	return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password}), uri, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// RunMigrations runs database migrations for the connected dialect.
func RunMigrations(ctx context.Context, db *sql.DB, d database.Dialect, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db, d); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "dialect", string(d))
	}

	return nil
}
