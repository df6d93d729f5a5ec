package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/jobdesk-api/internal/bootstrap"
	"github.com/target/jobdesk-api/internal/data/database"
)

// adminInfra holds the connections a command works with.
type adminInfra struct {
	DB      *sql.DB
	Dialect database.Dialect
	Redis   redis.UniversalClient
}

func (i *adminInfra) Close() error {
	var closeErr error
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

// connectInfra opens the configured database, plus Redis when wantRedis is set and the
// cache is enabled.
func connectInfra(cmdCtx *commandContext, wantRedis bool) (*adminInfra, error) {
	dialect, err := bootstrap.Dialect(cmdCtx.Config.DB)
	if err != nil {
		return nil, err
	}
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.DB,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	infra := &adminInfra{DB: db, Dialect: dialect}

	if wantRedis && cmdCtx.Config.Redis.Enabled {
		client, redisErr := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
			RedisConfig: cmdCtx.Config.Redis,
			Logger:      cmdCtx.Logger,
		})
		if redisErr != nil {
			return nil, errors.Join(fmt.Errorf("connect redis: %w", redisErr), infra.Close())
		}
		infra.Redis = client
	}
	return infra, nil
}

func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *adminInfra) error,
) error {
	return withInfra(cmdCtx, timeout, false, f)
}

func withInfra(
	cmdCtx *commandContext,
	timeout time.Duration,
	wantRedis bool,
	f func(context.Context, *adminInfra) error,
) error {
	ctx, cancel := commandTimeoutContext(cmdCtx.Ctx, timeout)
	defer cancel()

	infra, err := connectInfra(cmdCtx, wantRedis)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close connections failed", "error", cerr)
		}
	}()

	return f(ctx, infra)
}

// withServices wires the ledger services over the command's connections.
func withServices(
	cmdCtx *commandContext,
	wantRedis bool,
	f func(context.Context, bootstrap.ServiceContainer) error,
) error {
	return withInfra(cmdCtx, defaultCommandTimeout, wantRedis, func(ctx context.Context, infra *adminInfra) error {
		services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
			Config:      &cmdCtx.Config,
			DB:          infra.DB,
			Dialect:     infra.Dialect,
			RedisClient: infra.Redis,
			Logger:      cmdCtx.Logger,
		})
		if err != nil {
			return fmt.Errorf("wire services: %w", err)
		}
		return f(ctx, services)
	})
}
