package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the jobdesk process configuration, populated from the
// environment by github.com/caarlos0/env. Each field group lives in its own file.
type AppConfig struct {
	// IsDev switches on debug logging. APP_ENV=development has the same effect.
	IsDev bool `env:"DEV" envDefault:"false"`

	DB    DBConfig    `envPrefix:"DB_"`
	Redis RedisConfig `envPrefix:"REDIS_"`
	Cache CacheConfig
	HTTP  HTTPConfig

	// Services is the comma-separated list of components this process runs.
	Services string `env:"SERVICES" envDefault:"http"`

	Ledger LedgerConfig
	Audit  AuditConfig

	Observability ObservabilityConfig
}

// Sanitize clamps and normalises every field group. Call it once after env.Parse.
func (c *AppConfig) Sanitize() {
	for _, s := range []interface{ Sanitize() }{
		&c.DB, &c.HTTP, &c.Cache, &c.Ledger, &c.Audit, &c.Observability,
	} {
		s.Sanitize()
	}

	if !c.IsDev {
		switch strings.ToLower(os.Getenv("APP_ENV")) {
		case "development", "dev":
			c.IsDev = true
		}
	}
}

// Validate reports configuration that would prevent the process from starting.
func (c *AppConfig) Validate() error {
	var errs []error
	if _, err := c.EnabledServices(); err != nil {
		errs = append(errs, fmt.Errorf("SERVICES: %w", err))
	}
	if !c.DB.Driver.Valid() {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
	}
	return errors.Join(errs...)
}

// EnabledServices parses the Services field.
func (c *AppConfig) EnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// ServiceEnabled reports whether mode is listed in Services. A malformed list enables nothing.
func (c *AppConfig) ServiceEnabled(mode ServiceMode) bool {
	services, err := c.EnabledServices()
	return err == nil && services[mode]
}

// IsHTTPServerEnabled reports whether the HTTP API should be served.
func (c *AppConfig) IsHTTPServerEnabled() bool { return c.ServiceEnabled(ServiceModeHTTP) }

// IsScopeAuditorEnabled reports whether the background scope auditor should run.
func (c *AppConfig) IsScopeAuditorEnabled() bool { return c.ServiceEnabled(ServiceModeScopeAuditor) }
