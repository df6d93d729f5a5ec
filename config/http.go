package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// RequestTimeout bounds each request, including the transaction it opens.
	// Zero disables the timeout.
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`

	// AdminEnabled exposes the scope maintenance endpoints under /api/admin.
	AdminEnabled bool `env:"HTTP_ADMIN_ENABLED" envDefault:"false"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.RequestTimeout < 0 {
		h.RequestTimeout = 0
	}
}
