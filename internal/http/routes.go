package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/target/jobdesk-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs    *service.JobService
	Reorder *service.ReorderService
	Lookups *service.LookupService
	// Optional: scope maintenance endpoints, registered only when AdminEnabled is set.
	Audit        *service.ScopeAuditService
	AdminEnabled bool
	// Optional: store used by /readyz. When nil, readiness mirrors liveness.
	DB             Pinger
	RequestTimeout time.Duration
	Logger         *slog.Logger // Logger for request and handler errors (optional)
}

// NewRouter creates and configures a new HTTP router wrapped in the standard middleware
// chain.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	registerJobRoutes(mux, &JobHandlers{
		Jobs:    services.Jobs,
		Reorder: services.Reorder,
		Lookups: services.Lookups,
		Logger:  logger.With("component", "http_jobs"),
	})
	if services.AdminEnabled && services.Audit != nil {
		registerAdminRoutes(mux, &AdminHandlers{
			Audit:  services.Audit,
			Logger: logger.With("component", "http_admin"),
		})
	}

	// GET patterns also match HEAD.
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.DB, logger))

	return Chain(mux,
		RequestID(),
		Logging(logger),
		Recover(logger),
		Timeout(services.RequestTimeout),
	)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/jobs/create", h.CreateJob)
	mux.HandleFunc("POST /api/jobs/edit", h.EditJobInfo)
	mux.HandleFunc("POST /api/jobs/reopen", h.ReopenJob)
	mux.HandleFunc("POST /api/jobs/order", h.EditOrderPriority)
	mux.HandleFunc("POST /api/jobs/list", h.ListJobs)
	mux.HandleFunc("GET /api/jobs/init-state", h.InitState)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers) {
	mux.HandleFunc("GET /api/admin/scopes", h.ListScopes)
	mux.HandleFunc("GET /api/admin/scopes/verify", h.VerifyScope)
	mux.HandleFunc("POST /api/admin/scopes/compact", h.CompactScope)
}
