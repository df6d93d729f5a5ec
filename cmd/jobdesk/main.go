// Command jobdesk serves the job ledger API and, when enabled, the background scope auditor.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/bootstrap"
	"github.com/target/jobdesk-api/internal/data/database"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "jobdesk exited", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context) error {
	bootstrap.InitLogger(false)
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLogger(cfg.IsDev)

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "starting jobdesk service", startupAttrs(&cfg)...)

	infra, err := openInfra(&cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.ErrorContext(ctx, "release infrastructure", "error", cerr)
		}
	}()

	if cfg.DB.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, infra.db, infra.dialect, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          infra.db,
		Dialect:     infra.dialect,
		RedisClient: infra.redis,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		DB:       infra.db,
		Logger:   logger,
	})
}

// startupAttrs describes where this process stores its ledger without leaking credentials.
func startupAttrs(cfg *config.AppConfig) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("db_driver", string(cfg.DB.Driver)),
		slog.String("scope_by", string(cfg.Ledger.ScopeBy)),
		slog.Any("enabled_services", bootstrap.GetEnabledServices(cfg)),
		slog.Bool("lookup_cache", cfg.Redis.Enabled),
	}
	if cfg.DB.Driver == config.DBDriverSQLite {
		return append(attrs, slog.String("db_path", cfg.DB.Path))
	}
	return append(attrs, slog.Group("db",
		slog.String("host", cfg.DB.Host),
		slog.Int("port", cfg.DB.Port),
		slog.String("name", cfg.DB.Name),
	))
}

type serverInfra struct {
	db      *sql.DB
	dialect database.Dialect
	redis   redis.UniversalClient
}

func (i *serverInfra) Close() error {
	var errs []error
	if i.redis != nil {
		errs = append(errs, i.redis.Close())
	}
	if i.db != nil {
		errs = append(errs, i.db.Close())
	}
	return errors.Join(errs...)
}

// openInfra connects the database and, when the lookup cache is enabled, redis.
func openInfra(cfg *config.AppConfig, logger *slog.Logger) (*serverInfra, error) {
	dialect, err := bootstrap.Dialect(cfg.DB)
	if err != nil {
		return nil, err
	}
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg.DB, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	infra := &serverInfra{db: db, dialect: dialect}
	if !cfg.Redis.Enabled {
		return infra, nil
	}

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect redis: %w", err), infra.Close())
	}
	infra.redis = client
	return infra, nil
}
