package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/jobdesk-api/internal/errors"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", apperrors.Validation("bad"), http.StatusBadRequest},
		{"not found", apperrors.NotFoundf("job %d not found", 1), http.StatusNotFound},
		{"already open", apperrors.AlreadyOpenf("job %d is open", 1), http.StatusConflict},
		{"scope mismatch", apperrors.ScopeMismatchf("a vs b"), http.StatusConflict},
		{"conflict", apperrors.Conflict("deadlock"), http.StatusConflict},
		{"timeout", apperrors.MapDBError(context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestWriteAppError_HidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAppError(w, apperrors.Wrap(errors.New("pq: relation jobs"), apperrors.ErrCodeInternal, "could not load job"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal", body["error"])
	assert.Equal(t, "could not load job", body["message"])
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestWriteAppError_Field(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAppError(w, apperrors.ValidationField("id", "job id must be a positive integer"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "id", body["field"])
}
