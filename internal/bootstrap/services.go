package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/redis/go-redis/v9"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/domain/ledger"
	"github.com/target/jobdesk-api/internal/observability/statsd"
	"github.com/target/jobdesk-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Store   *data.Store
	Jobs    *service.JobService
	Reorder *service.ReorderService
	Lookups *service.LookupService
	Audit   *service.ScopeAuditService
	Metrics statsd.Sink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	Dialect     database.Dialect
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// Metrics overrides the sink built from the observability config (tests).
	Metrics statsd.Sink
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Store   *data.Store
	Jobs    *data.JobRepo
	Lookups *data.LookupRepo
	Cache   core.CacheRepository
}

// buildMetricsSink returns a statsd client when metrics are enabled, or nil.
func buildMetricsSink(logger *slog.Logger, cfg config.ObservabilityMetricsConfig, d database.Dialect) statsd.Sink {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    true,
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		Logger:     logger,
		GlobalTags: metricsTags(cfg.Tags, d),
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// metricsTags merges the configured global tags over the service defaults.
func metricsTags(configured map[string]string, d database.Dialect) map[string]string {
	tags := map[string]string{"service": "jobdesk", "dialect": string(d)}
	maps.Copy(tags, configured)
	return tags
}

// closeMetricsSink releases the statsd socket, if the sink holds one.
func closeMetricsSink(sink statsd.Sink, logger *slog.Logger) {
	closer, ok := sink.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("close metrics sink", "error", err)
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(deps *ServiceDeps, logger *slog.Logger) *serviceRepositories {
	cfg := deps.Config
	repos := &serviceRepositories{
		Store: data.NewStore(deps.DB, data.StoreConfig{
			Dialect:     deps.Dialect,
			LockTimeout: cfg.Ledger.LockTimeout,
			Logger:      logger,
		}),
		Jobs:    data.NewJobRepo(deps.DB, data.RepoConfig{Dialect: deps.Dialect, Logger: logger}),
		Lookups: data.NewLookupRepo(deps.DB, deps.Dialect),
	}
	if deps.RedisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(deps.RedisClient, cfg.Cache.KeyPrefix)
	}
	return repos
}

// NewServices wires the ledger services over the connected store.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("service deps require config and database")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Dialect == "" {
		d, err := Dialect(deps.Config.DB)
		if err != nil {
			return ServiceContainer{}, err
		}
		deps.Dialect = d
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = buildMetricsSink(logger, deps.Config.Observability.Metrics, deps.Dialect)
	}
	repos := buildRepositories(deps, logger)
	led, err := ledger.New(ledger.Options{Store: repos.Jobs, Logger: logger})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("ledger: %w", err)
	}

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Tx:      repos.Store,
		Repo:    repos.Jobs,
		Ledger:  led,
		ScopeBy: deps.Config.Ledger.ScopeBy,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("job service: %w", err)
	}
	reorder, err := service.NewReorderService(service.ReorderServiceOptions{
		Tx:      repos.Store,
		Repo:    repos.Jobs,
		Ledger:  led,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("reorder service: %w", err)
	}
	lookups, err := service.NewLookupService(service.LookupServiceOptions{
		Repo:     repos.Lookups,
		Cache:    repos.Cache,
		CacheTTL: deps.Config.Cache.LookupTTL,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("lookup service: %w", err)
	}
	audit, err := service.NewScopeAuditService(service.ScopeAuditServiceOptions{
		Tx:      repos.Store,
		Repo:    repos.Jobs,
		Ledger:  led,
		Config:  deps.Config.Audit,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("scope audit service: %w", err)
	}

	return ServiceContainer{
		Store:   repos.Store,
		Jobs:    jobs,
		Reorder: reorder,
		Lookups: lookups,
		Audit:   audit,
		Metrics: metrics,
	}, nil
}
