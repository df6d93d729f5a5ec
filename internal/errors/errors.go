// Package errors defines the application error type shared by the ledger, services and
// HTTP layer. Every error a service returns is either an *AppError or a store error that
// MapDBError did not recognize.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound: the job (or other row) does not exist.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict covers unique violations and lock contention (deadlock,
	// serialization failure, lock timeout, SQLite busy).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation: the request was rejected before any write.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeForeignKey: a referenced client or user does not exist.
	ErrCodeForeignKey ErrorCode = "foreign_key"
	ErrCodeInternal   ErrorCode = "internal"
	ErrCodeTimeout    ErrorCode = "timeout"
	ErrCodeCanceled   ErrorCode = "canceled"
	// ErrCodeScopeMismatch: a swap named two jobs from different scopes.
	ErrCodeScopeMismatch ErrorCode = "scope_mismatch"
	// ErrCodeAlreadyOpen: reopen was called on a job that is still open.
	ErrCodeAlreadyOpen ErrorCode = "already_open"
)

// AppError carries a code, a message safe to show callers, the optional underlying
// cause and, for validation errors, the offending request field.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Field   string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New builds an AppError with no cause.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func NotFound(message string) *AppError { return New(ErrCodeNotFound, message) }

func NotFoundf(format string, args ...any) *AppError {
	return Newf(ErrCodeNotFound, format, args...)
}

func Conflict(message string) *AppError { return New(ErrCodeConflict, message) }

func Validation(message string) *AppError { return New(ErrCodeValidation, message) }

func Validationf(format string, args ...any) *AppError {
	return Newf(ErrCodeValidation, format, args...)
}

// ValidationField is a validation error tied to one request field.
func ValidationField(field, message string) *AppError {
	e := New(ErrCodeValidation, message)
	e.Field = field
	return e
}

func ForeignKey(message string) *AppError { return New(ErrCodeForeignKey, message) }

func ScopeMismatchf(format string, args ...any) *AppError {
	return Newf(ErrCodeScopeMismatch, format, args...)
}

func AlreadyOpenf(format string, args ...any) *AppError {
	return Newf(ErrCodeAlreadyOpen, format, args...)
}

func Internal(message string) *AppError { return New(ErrCodeInternal, message) }

func Internalf(format string, args ...any) *AppError {
	return Newf(ErrCodeInternal, format, args...)
}

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := asAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool      { return HasCode(err, ErrCodeNotFound) }
func IsConflict(err error) bool      { return HasCode(err, ErrCodeConflict) }
func IsValidation(err error) bool    { return HasCode(err, ErrCodeValidation) }
func IsForeignKey(err error) bool    { return HasCode(err, ErrCodeForeignKey) }
func IsInternal(err error) bool      { return HasCode(err, ErrCodeInternal) }
func IsTimeout(err error) bool       { return HasCode(err, ErrCodeTimeout) }
func IsCanceled(err error) bool      { return HasCode(err, ErrCodeCanceled) }
func IsScopeMismatch(err error) bool { return HasCode(err, ErrCodeScopeMismatch) }
func IsAlreadyOpen(err error) bool   { return HasCode(err, ErrCodeAlreadyOpen) }

// IsStoreFailure reports whether err belongs to the store failure family
// (internal, conflict, timeout, canceled) or is not an AppError at all.
func IsStoreFailure(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeInternal, ErrCodeConflict, ErrCodeTimeout, ErrCodeCanceled, "":
		return true
	}
	return false
}

// GetCode returns the code of the outermost AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// GetField returns the offending field of a validation error, or "".
func GetField(err error) string {
	if appErr, ok := asAppError(err); ok {
		return appErr.Field
	}
	return ""
}
