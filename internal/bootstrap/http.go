package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/target/jobdesk-api/config"
	httpx "github.com/target/jobdesk-api/internal/http"
)

const (
	defaultHTTPAddr     = ":8080"
	httpShutdownTimeout = 10 * time.Second
)

// BuildHTTPHandler wires the router for the given services.
func BuildHTTPHandler(services ServiceContainer, httpCfg config.HTTPConfig, logger *slog.Logger) http.Handler {
	rs := httpx.RouterServices{
		Jobs:           services.Jobs,
		Reorder:        services.Reorder,
		Lookups:        services.Lookups,
		Audit:          services.Audit,
		AdminEnabled:   httpCfg.AdminEnabled,
		RequestTimeout: httpCfg.RequestTimeout,
		Logger:         logger,
	}
	if services.Store != nil {
		rs.DB = services.Store.DB
	}
	if httpCfg.AdminEnabled {
		logger.Info("admin scope endpoints enabled")
	}
	return httpx.NewRouter(rs)
}

func newHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	addr := cfg.Addr
	if addr == "" {
		addr = defaultHTTPAddr
	}
	// WriteTimeout leaves room for RequestTimeout plus encoding.
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      max(30*time.Second, cfg.RequestTimeout+5*time.Second),
		IdleTimeout:       120 * time.Second,
	}
}

// serveHTTP serves until ctx ends, then drains in-flight requests for up to
// httpShutdownTimeout. A nil ln listens on srv.Addr.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if ln != nil {
			logger.Info("starting HTTP server", "addr", ln.Addr().String())
			serveErr <- srv.Serve(ln)
			return
		}
		logger.Info("starting HTTP server", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
