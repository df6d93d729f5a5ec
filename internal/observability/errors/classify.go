// Package errors turns arbitrary errors into short class names for metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/target/jobdesk-api/internal/errors"
)

const unknownClass = "unknown"

// Classify returns a low-cardinality tag value for err, or "" for nil.
//
//	app_<code>        application errors
//	timeout/canceled  context termination
//	pg_<sqlstate>     postgres server errors
//	mysql_<number>    mysql server errors
//	<pkg>_<type>      anything else, by innermost concrete type
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case apperrors.GetCode(err) != "":
		return "app_" + string(apperrors.GetCode(err))
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && pgErr.Code != "" {
		return "pg_" + strings.ToLower(pgErr.Code)
	}
	var myErr *mysql.MySQLError
	if goerrors.As(err, &myErr) {
		return "mysql_" + strconv.Itoa(int(myErr.Number))
	}
	return typeClass(innermost(err))
}

func innermost(err error) error {
	for next := goerrors.Unwrap(err); next != nil; next = goerrors.Unwrap(err) {
		err = next
	}
	return err
}

func typeClass(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return unknownClass
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}
