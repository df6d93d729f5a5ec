package httpx

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
	"github.com/target/jobdesk-api/internal/service"
)

const defaultScopeListLimit = 100

// AdminHandlers exposes scope maintenance. Routes are registered only when the admin
// surface is enabled.
type AdminHandlers struct {
	Audit  *service.ScopeAuditService
	Logger *slog.Logger
}

type compactScopeRequest struct {
	Scope string `json:"scope"`
}

// CompactScope handles POST /api/admin/scopes/compact.
func (h *AdminHandlers) CompactScope(w http.ResponseWriter, r *http.Request) {
	var req compactScopeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Audit.CompactScope(r.Context(), model.ScopeKey(strings.TrimSpace(req.Scope)))
	if err != nil {
		h.fail(w, "compact", err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// VerifyScope handles GET /api/admin/scopes/verify?scope=.
func (h *AdminHandlers) VerifyScope(w http.ResponseWriter, r *http.Request) {
	scope := strings.TrimSpace(r.URL.Query().Get("scope"))
	health, err := h.Audit.VerifyScope(r.Context(), model.ScopeKey(scope))
	if err != nil {
		h.fail(w, "verify", err)
		return
	}
	WriteJSON(w, http.StatusOK, health)
}

// ListScopes handles GET /api/admin/scopes?limit=.
func (h *AdminHandlers) ListScopes(w http.ResponseWriter, r *http.Request) {
	limit := defaultScopeListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteAppError(w, apperrors.ValidationField("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}
	scopes, err := h.Audit.ListScopes(r.Context(), limit)
	if err != nil {
		h.fail(w, "list_scopes", err)
		return
	}
	if scopes == nil {
		scopes = []model.ScopeStats{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"scopes": scopes})
}

func (h *AdminHandlers) fail(w http.ResponseWriter, op string, err error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !apperrors.IsValidation(err) {
		logger.Error("admin scope operation failed", slog.String("op", op), slog.Any("error", err))
	}
	WriteAppError(w, err)
}
