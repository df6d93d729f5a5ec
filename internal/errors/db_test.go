package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// sqliteErr mimics the driver error of modernc.org/sqlite, which exposes Code() int.
type sqliteErr struct {
	code int
	msg  string
}

func (e *sqliteErr) Error() string { return e.msg }
func (e *sqliteErr) Code() int     { return e.code }

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	app := ScopeMismatchf("jobs %d and %d are in different scopes", 1, 2)
	if got := MapDBError(fmt.Errorf("swap: %w", app)); !IsScopeMismatch(got) {
		t.Errorf("AppError should pass through, got %v", GetCode(got))
	}

	plain := errors.New("boom")
	if got := MapDBError(plain); !errors.Is(got, plain) || GetCode(got) != "" {
		t.Errorf("unrecognized errors should be returned as is, got %v", got)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("begin tx: %w", context.Canceled), wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !HasCode(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	for _, e := range []error{sql.ErrNoRows, pgx.ErrNoRows, fmt.Errorf("get job: %w", sql.ErrNoRows)} {
		if err := MapDBError(e); !IsNotFound(err) {
			t.Errorf("MapDBError(%v) should be NotFound, got %v", e, GetCode(err))
		}
	}
}

func TestMapDBError_Postgres(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantCode  ErrorCode
		wantField string
	}{
		{
			name:      "unique violation with column name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "name"},
			wantCode:  ErrCodeConflict,
			wantField: "name",
		},
		{
			name: "unique violation with detail",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (active_scope, priority)=(technician:1, 2) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "active_scope, priority",
		},
		{
			name:      "unique violation on ordering constraint",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uq_jobs_scope_priority"},
			wantCode:  ErrCodeConflict,
			wantField: "priority",
		},
		{
			name:     "serialization failure",
			pgErr:    &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			wantCode: ErrCodeConflict,
		},
		{
			name:     "deadlock",
			pgErr:    &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			wantCode: ErrCodeConflict,
		},
		{
			name:     "lock not available",
			pgErr:    &pgconn.PgError{Code: pgerrcode.LockNotAvailable},
			wantCode: ErrCodeConflict,
		},
		{
			name:     "query canceled",
			pgErr:    &pgconn.PgError{Code: pgerrcode.QueryCanceled},
			wantCode: ErrCodeTimeout,
		},
		{
			name:      "not null",
			pgErr:     &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "owner_id"},
			wantCode:  ErrCodeValidation,
			wantField: "owner_id",
		},
		{
			name:     "check",
			pgErr:    &pgconn.PgError{Code: pgerrcode.CheckViolation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "foreign key",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "jobs"},
			wantCode: ErrCodeForeignKey,
		},
		{
			name:     "other",
			pgErr:    &pgconn.PgError{Code: pgerrcode.DiskFull},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(fmt.Errorf("exec: %w", tt.pgErr))
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if !errors.Is(err, tt.pgErr) {
				t.Errorf("mapped error should wrap the driver error")
			}
		})
	}
}

func TestMapDBError_MySQL(t *testing.T) {
	tests := []struct {
		name      string
		myErr     *mysql.MySQLError
		wantCode  ErrorCode
		wantField string
	}{
		{
			name: "duplicate ordering rank",
			myErr: &mysql.MySQLError{
				Number:  1062,
				Message: "Duplicate entry 'technician:1-2' for key 'jobs.uq_jobs_scope_priority'",
			},
			wantCode:  ErrCodeConflict,
			wantField: "priority",
		},
		{name: "deadlock", myErr: &mysql.MySQLError{Number: 1213}, wantCode: ErrCodeConflict},
		{name: "lock wait timeout", myErr: &mysql.MySQLError{Number: 1205}, wantCode: ErrCodeConflict},
		{name: "not null", myErr: &mysql.MySQLError{Number: 1048}, wantCode: ErrCodeValidation},
		{
			name:     "missing parent",
			myErr:    &mysql.MySQLError{Number: 1452, Message: "a foreign key constraint fails (`fk_jobs_client`)"},
			wantCode: ErrCodeForeignKey,
		},
		{name: "other", myErr: &mysql.MySQLError{Number: 1040}, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.myErr)
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_SQLite(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{
			name:      "unique",
			err:       &sqliteErr{code: 2067, msg: "UNIQUE constraint failed: jobs.active_scope, jobs.priority"},
			wantCode:  ErrCodeConflict,
			wantField: "priority",
		},
		{name: "busy", err: &sqliteErr{code: 5, msg: "database is locked"}, wantCode: ErrCodeConflict},
		{name: "busy snapshot", err: &sqliteErr{code: 517, msg: "database is locked"}, wantCode: ErrCodeConflict},
		{
			name:      "not null",
			err:       &sqliteErr{code: 1299, msg: "NOT NULL constraint failed: jobs.scope_key"},
			wantCode:  ErrCodeValidation,
			wantField: "scope_key",
		},
		{name: "foreign key", err: &sqliteErr{code: 787, msg: "FOREIGN KEY constraint failed"}, wantCode: ErrCodeForeignKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}

	// Unknown codes are left untouched.
	unknown := &sqliteErr{code: 1, msg: "SQL logic error"}
	if got := MapDBError(unknown); GetCode(got) != "" {
		t.Errorf("unknown sqlite code should not be mapped, got %v", GetCode(got))
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := map[string]string{
		"":                       "",
		"clients_name_key":       "name",
		"clients_lower_key":      "",
		"uq_jobs_scope_priority": "priority",
		"a_b_c_d":                "",
	}
	for in, want := range tests {
		if got := inferFieldFromConstraint(in); got != want {
			t.Errorf("inferFieldFromConstraint(%q) = %q, want %q", in, got, want)
		}
	}
}
