package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/target/jobdesk-api/internal/errors"
)

var errTrailingData = errors.New("unexpected data after JSON body")

// StatusForError maps an application error to its HTTP status code. Errors that are not
// AppErrors are treated as internal.
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey,
		apperrors.ErrCodeScopeMismatch, apperrors.ErrCodeAlreadyOpen:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		// Client closed the request; nginx's 499 has no net/http constant.
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err as a JSON error. Only the AppError message is exposed; causes
// stay in the logs.
func WriteAppError(w http.ResponseWriter, err error) {
	code := StatusForError(err)
	errCode := string(apperrors.GetCode(err))
	if errCode == "" {
		errCode = string(apperrors.ErrCodeInternal)
	}

	WriteJSON(w, code, errorBody{
		Error:   errCode,
		Message: publicMessage(err, code),
		Field:   apperrors.GetField(err),
	})
}

func publicMessage(err error, code int) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return http.StatusText(code)
}
