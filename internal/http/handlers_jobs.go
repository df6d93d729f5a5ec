package httpx

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/target/jobdesk-api/internal/domain/model"
	apperrors "github.com/target/jobdesk-api/internal/errors"
	"github.com/target/jobdesk-api/internal/service"
)

// JobHandlers serves the job ledger endpoints used by the job board.
type JobHandlers struct {
	Jobs    *service.JobService
	Reorder *service.ReorderService
	Lookups *service.LookupService
	Logger  *slog.Logger
}

func (h *JobHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// CreateJob handles POST /api/jobs/create.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !h.decodeLegacy(w, r, "create", &req) {
		return
	}
	id, err := h.Jobs.CreateJob(r.Context(), &req)
	if err == nil {
		h.logger().Debug("job created", slog.Int64("job_id", id))
	}
	h.sendStatus(w, r, "create", err)
}

// EditJobInfo handles POST /api/jobs/edit.
func (h *JobHandlers) EditJobInfo(w http.ResponseWriter, r *http.Request) {
	var req model.EditJobRequest
	if !h.decodeLegacy(w, r, "edit", &req) {
		return
	}
	h.sendStatus(w, r, "edit", h.Jobs.EditJobInfo(r.Context(), &req))
}

// ReopenJob handles POST /api/jobs/reopen.
func (h *JobHandlers) ReopenJob(w http.ResponseWriter, r *http.Request) {
	var req model.ReopenJobRequest
	if !h.decodeLegacy(w, r, "reopen", &req) {
		return
	}
	h.sendStatus(w, r, "reopen", h.Jobs.ReopenJob(r.Context(), req.JobID))
}

// EditOrderPriority handles POST /api/jobs/order.
func (h *JobHandlers) EditOrderPriority(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderRequest
	if !h.decodeLegacy(w, r, "reorder", &req) {
		return
	}
	h.sendStatus(w, r, "reorder", h.Reorder.EditOrderPriority(r.Context(), req.Start, req.End))
}

// ListJobs handles POST /api/jobs/list. Any failure, including an unreadable body,
// yields an empty list.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	var sel model.JobListSelector
	if err := decodeBody(w, r, &sel, false); err != nil {
		h.logger().Debug("list body rejected", slog.Any("error", err))
		WriteJSON(w, http.StatusOK, model.EmptyJobList())
		return
	}
	WriteJSON(w, http.StatusOK, h.Jobs.GetListJobs(r.Context(), sel))
}

// InitState handles GET /api/jobs/init-state.
func (h *JobHandlers) InitState(w http.ResponseWriter, r *http.Request) {
	if h.Lookups == nil {
		WriteJSON(w, http.StatusOK, model.InitPageState{Items: []model.InitStateItem{}})
		return
	}
	WriteJSON(w, http.StatusOK, h.Lookups.GetUserInfoInitState(r.Context()))
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteAppError(w, apperrors.ValidationField("id", "job id must be a positive integer"))
		return
	}
	job, err := h.Jobs.GetJob(r.Context(), id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.logRequestError(r, "get", err)
		}
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// decodeLegacy reads a mutation body. Unknown fields are tolerated because board
// clients post whole rows. A body that does not decode, including a mistyped field or
// an unknown status, is a validation failure and gets the same bare 500 as any other.
func (h *JobHandlers) decodeLegacy(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := decodeBody(w, r, dst, false); err != nil {
		h.sendStatus(w, r, op, apperrors.Wrap(err, apperrors.ErrCodeValidation, "request body rejected"))
		return false
	}
	return true
}

// sendStatus answers a core mutation with a bare status. Error detail goes to the log
// only.
func (h *JobHandlers) sendStatus(w http.ResponseWriter, r *http.Request, op string, err error) {
	if err != nil {
		h.logRequestError(r, op, err)
		WriteStatus(w, http.StatusInternalServerError)
		return
	}
	WriteStatus(w, http.StatusOK)
}

func (h *JobHandlers) logRequestError(r *http.Request, op string, err error) {
	attrs := []any{
		slog.String("op", op),
		slog.String("code", string(apperrors.GetCode(err))),
		slog.Any("error", err),
	}
	if id, ok := GetRequestIDFromContext(r.Context()); ok {
		attrs = append(attrs, slog.String("request_id", id))
	}
	h.logger().Warn("job request failed", attrs...)
}
