package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Regular expressions for parsing driver error messages.
var (
	// reKeyField extracts field name from a PostgreSQL unique violation detail: "Key (field)=(value) already exists.".
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// reMySQLKey extracts the index name from a MySQL duplicate entry: "Duplicate entry 'x' for key 'jobs.uq_jobs_scope_priority'".
	reMySQLKey = regexp.MustCompile(`for key '([^']+)'`)
	// reSQLiteColumns extracts the columns from "UNIQUE constraint failed: jobs.active_scope, jobs.priority".
	reSQLiteColumns = regexp.MustCompile(`constraint failed: ([^()]+)`)
)

// MySQL server error numbers handled by MapDBError.
const (
	mysqlDuplicateEntry    = 1062
	mysqlNotNull           = 1048
	mysqlRowIsReferenced   = 1451
	mysqlNoReferencedRow   = 1452
	mysqlLockWaitTimeout   = 1205
	mysqlDeadlock          = 1213
	mysqlCheckViolation    = 3819
	mysqlQueryInterrupted  = 3024
	mysqlLockNowaitTimeout = 3572
)

// SQLite result codes handled by MapDBError.
const (
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteConstraint = 19

	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

const (
	msgDatabase = "A database error occurred. Please try again."
	msgConflict = "The record was changed by another request. Please retry."
	msgUnique   = "This value already exists. Please choose a different one."
	msgRequired = "Required field is missing. Please check your input."
	msgInvalid  = "Invalid data. Please check your input."
)

// MapDBError maps database errors to AppError instances.
// It handles common database error patterns for PostgreSQL, MySQL and SQLite:
// - sql.ErrNoRows / pgx.ErrNoRows → NotFound
// - Unique constraint violations → Conflict
// - Serialization failures, deadlocks, lock timeouts, busy databases → Conflict
// - Foreign key violations → ForeignKey
// - Check and NOT NULL violations → Validation
// - Context timeouts/cancellations → Timeout/Canceled
//
// AppErrors pass through unchanged. Any other error is returned as is.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "Resource not found",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mapMySQLError(myErr)
	}

	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		if mapped := mapSQLiteError(err, coder.Code()); mapped != nil {
			return mapped
		}
	}

	return err
}

// mapPgError maps PostgreSQL-specific errors to AppError instances.
func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return uniqueViolation(pgErr, pgUniqueField(pgErr))
	case pgerrcode.ForeignKeyViolation:
		return foreignKeyViolation(pgErr, pgErr.TableName, pgErr.ConstraintName)
	case pgerrcode.CheckViolation:
		return validationViolation(pgErr, pgErr.ColumnName, "This field has an invalid value.", msgInvalid)
	case pgerrcode.NotNullViolation:
		return validationViolation(pgErr, pgErr.ColumnName, "This field is required.", msgRequired)
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return &AppError{Code: ErrCodeConflict, Message: msgConflict, Cause: pgErr}
	case pgerrcode.QueryCanceled:
		// statement_timeout / lock_timeout expiry surfaces as query_canceled.
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: pgErr}
	default:
		return &AppError{Code: ErrCodeInternal, Message: msgDatabase, Cause: pgErr}
	}
}

// pgUniqueField resolves the offending column of a unique violation.
func pgUniqueField(pgErr *pgconn.PgError) string {
	// Prefer ColumnName metadata when available (most reliable)
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			return m[1]
		}
	}
	return inferFieldFromConstraint(pgErr.ConstraintName)
}

// mapMySQLError maps MySQL server errors to AppError instances.
func mapMySQLError(myErr *mysql.MySQLError) error {
	switch myErr.Number {
	case mysqlDuplicateEntry:
		field := ""
		if m := reMySQLKey.FindStringSubmatch(myErr.Message); len(m) == 2 {
			idx := m[1]
			if i := strings.LastIndex(idx, "."); i >= 0 {
				idx = idx[i+1:]
			}
			field = inferFieldFromConstraint(idx)
		}
		return uniqueViolation(myErr, field)
	case mysqlRowIsReferenced, mysqlNoReferencedRow:
		return foreignKeyViolation(myErr, "", myErr.Message)
	case mysqlNotNull:
		return validationViolation(myErr, "", "", msgRequired)
	case mysqlCheckViolation:
		return validationViolation(myErr, "", "", msgInvalid)
	case mysqlDeadlock, mysqlLockWaitTimeout, mysqlLockNowaitTimeout:
		return &AppError{Code: ErrCodeConflict, Message: msgConflict, Cause: myErr}
	case mysqlQueryInterrupted:
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: myErr}
	default:
		return &AppError{Code: ErrCodeInternal, Message: msgDatabase, Cause: myErr}
	}
}

// mapSQLiteError maps SQLite result codes to AppError instances. It returns nil when
// the code is not an SQLite code this package knows about.
func mapSQLiteError(err error, code int) error {
	switch code {
	case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
		return uniqueViolation(err, sqliteField(err))
	case sqliteConstraintForeignKey:
		return foreignKeyViolation(err, "", "")
	case sqliteConstraintNotNull:
		return validationViolation(err, sqliteField(err), "This field is required.", msgRequired)
	case sqliteConstraintCheck:
		return validationViolation(err, "", "", msgInvalid)
	}

	switch code & 0xff {
	case sqliteBusy, sqliteLocked:
		return &AppError{Code: ErrCodeConflict, Message: msgConflict, Cause: err}
	case sqliteConstraint:
		return validationViolation(err, "", "", msgInvalid)
	}
	return nil
}

// sqliteField returns the last column named in a constraint message, without its table prefix.
func sqliteField(err error) string {
	m := reSQLiteColumns.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return ""
	}
	cols := strings.Split(m[1], ",")
	col := strings.TrimSpace(cols[len(cols)-1])
	if i := strings.LastIndex(col, "."); i >= 0 {
		col = col[i+1:]
	}
	return col
}

func uniqueViolation(cause error, field string) error {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: msgUnique,
		Field:   field,
		Cause:   cause,
	}
}

func validationViolation(cause error, field, fieldMessage, message string) error {
	if field != "" && fieldMessage != "" {
		return &AppError{Code: ErrCodeValidation, Message: fieldMessage, Field: field, Cause: cause}
	}
	return &AppError{Code: ErrCodeValidation, Message: message, Cause: cause}
}

// foreignKeyViolation maps foreign key violations using whatever table or constraint hint
// the driver exposes.
func foreignKeyViolation(cause error, table, constraint string) error {
	message := "Cannot complete operation because a referenced record does not exist."
	if table != "" {
		message = "Cannot complete operation because this item is in use by " + mapTableToDomain(table) + "."
	} else if hint := inferForeignKeyMessage(constraint); hint != "" {
		message = hint
	}
	return &AppError{
		Code:    ErrCodeForeignKey,
		Message: message,
		Cause:   cause,
	}
}

// inferFieldFromConstraint attempts to infer the field name from a constraint name.
// e.g., "clients_name_key" → "name"
// e.g., "uq_jobs_scope_priority" → "priority"
// Returns empty string if inference fails.
func inferFieldFromConstraint(constraintName string) string {
	if constraintName == "" {
		return ""
	}
	if strings.HasSuffix(constraintName, "_scope_priority") {
		return "priority"
	}

	parts := strings.Split(constraintName, "_")
	// Multi-column or expression constraints are ambiguous.
	if len(parts) != 3 {
		return ""
	}
	if isFunctionName(parts[1]) {
		return ""
	}
	return parts[1]
}

// mapTableToDomain maps internal table names to user-friendly domain names.
func mapTableToDomain(tableName string) string {
	tableName = strings.ToLower(strings.TrimSpace(tableName))

	domainMap := map[string]string{
		"jobs":          "Job",
		"job_scopes":    "Job scope",
		"clients":       "Client",
		"lookup_values": "Lookup value",
	}
	if domainName, ok := domainMap[tableName]; ok {
		return domainName
	}
	return capitalizeFirst(strings.ReplaceAll(tableName, "_", " "))
}

// capitalizeFirst capitalizes the first letter of each word in a string.
func capitalizeFirst(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if word[0] >= 'a' && word[0] <= 'z' {
			words[i] = string(word[0]-32) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// inferForeignKeyMessage infers a user-friendly message from a constraint name or driver message.
func inferForeignKeyMessage(hint string) string {
	hint = strings.ToLower(hint)
	switch {
	case strings.Contains(hint, "client"):
		return "Cannot complete operation because the referenced Client does not exist."
	case strings.Contains(hint, "job"):
		return "Cannot complete operation because the referenced Job does not exist."
	}
	return ""
}

// isFunctionName checks if a string looks like a common SQL function name
// used in expression indexes (e.g., lower, upper, trim, etc.)
func isFunctionName(s string) bool {
	switch strings.ToLower(s) {
	case "lower", "upper", "trim", "ltrim", "rtrim", "md5", "sha1", "sha256":
		return true
	}
	return false
}
