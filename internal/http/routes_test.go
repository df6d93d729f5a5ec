package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobdesk-api/config"
	"github.com/target/jobdesk-api/internal/data"
	"github.com/target/jobdesk-api/internal/data/testhelpers"
	"github.com/target/jobdesk-api/internal/domain/model"
	"github.com/target/jobdesk-api/internal/service"
	"github.com/target/jobdesk-api/internal/testutil"
)

func newSQLiteRouter(t *testing.T, admin bool) http.Handler {
	t.Helper()
	db := testutil.SetupSQLiteDB(t)
	store, repo, lookups := testhelpers.NewSQLiteStack(db, data.NewFixedTimeProvider(testutil.TestTime()))

	return NewRouter(RouterServices{
		Jobs:    service.MustNewJobService(service.JobServiceOptions{Tx: store, Repo: repo}),
		Reorder: service.MustNewReorderService(service.ReorderServiceOptions{Tx: store, Repo: repo}),
		Lookups: service.MustNewLookupService(service.LookupServiceOptions{Repo: lookups}),
		Audit: service.MustNewScopeAuditService(service.ScopeAuditServiceOptions{
			Tx: store, Repo: repo, Config: config.AuditConfig{BatchSize: 100},
		}),
		AdminEnabled: admin,
		DB:           db,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func listOwner(t *testing.T, h http.Handler, owner int64) []model.Job {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/jobs/list",
		model.JobListSelector{Type: model.JobSelectorMe, Identifier: strconv.FormatInt(owner, 10)})
	require.Equal(t, http.StatusOK, w.Code)
	var list model.JobList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	return list.Jobs
}

func TestRouter_JobLifecycle(t *testing.T) {
	h := newSQLiteRouter(t, false)

	for range 3 {
		w := do(t, h, http.MethodPost, "/api/jobs/create", map[string]any{
			"userId": 4, "userIdClient": 1, "equipmentType": "chiller",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	jobs := listOwner(t, h, 4)
	require.Len(t, jobs, 3)
	first, second := jobs[0], jobs[1]
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, 2, second.Priority)

	w := do(t, h, http.MethodPost, "/api/jobs/order", model.ReorderRequest{
		Start: model.RowRef{ID: second.ID, Priority: second.Priority},
		End:   model.RowRef{ID: first.ID, Priority: first.Priority},
	})
	require.Equal(t, http.StatusOK, w.Code)

	jobs = listOwner(t, h, 4)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)

	done := model.JobStatusCompleted
	w = do(t, h, http.MethodPost, "/api/jobs/edit", model.EditJobRequest{ID: first.ID, Status: &done})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/jobs/reopen", model.ReopenJobRequest{JobID: second.ID})
	assert.Equal(t, http.StatusInternalServerError, w.Code, "reopening an open job fails")

	w = do(t, h, http.MethodPost, "/api/jobs/reopen", model.ReopenJobRequest{JobID: first.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/jobs/"+strconv.FormatInt(first.ID, 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reopened model.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reopened))
	assert.Equal(t, model.JobStatusReopened, reopened.Status)
	assert.Equal(t, 4, reopened.Priority)
}

func TestRouter_InitStateIsNotShadowedByJobID(t *testing.T) {
	h := newSQLiteRouter(t, false)

	w := do(t, h, http.MethodGet, "/api/jobs/init-state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var state model.InitPageState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.NotEmpty(t, state.Items)
}

func TestRouter_AdminRoutes(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		h := newSQLiteRouter(t, false)
		w := do(t, h, http.MethodGet, "/api/admin/scopes", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("verify and compact", func(t *testing.T) {
		h := newSQLiteRouter(t, true)
		for range 3 {
			require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/jobs/create",
				map[string]any{"userId": 9, "userIdClient": 1}).Code)
		}
		jobs := listOwner(t, h, 9)
		done := model.JobStatusCompleted
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/jobs/edit",
			model.EditJobRequest{ID: jobs[0].ID, Status: &done}).Code)

		w := do(t, h, http.MethodGet, "/api/admin/scopes/verify?scope=technician:9", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var health model.ScopeHealth
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
		assert.False(t, health.Consistent)
		assert.Equal(t, []int{1}, health.Gaps)

		w = do(t, h, http.MethodPost, "/api/admin/scopes/compact", map[string]string{"scope": "technician:9"})
		require.Equal(t, http.StatusOK, w.Code)
		var res model.CompactResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, model.CompactResult{Scope: "technician:9", Open: 2, Changed: 2}, res)

		w = do(t, h, http.MethodGet, "/api/admin/scopes", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"technician:9"`)

		w = do(t, h, http.MethodPost, "/api/admin/scopes/compact", map[string]string{"scope": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, h, http.MethodGet, "/api/admin/scopes?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	h := newSQLiteRouter(t, false)

	w := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
