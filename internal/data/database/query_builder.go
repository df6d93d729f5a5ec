package database

import (
	"fmt"
	"reflect"
	"strings"
)

// ConditionType is the comparison a Condition applies to its field.
type ConditionType string

// Supported comparisons.
const (
	Equal     ConditionType = "="
	NotEqual  ConditionType = "!="
	In        ConditionType = "IN"
	IsNull    ConditionType = "IS NULL"
	IsNotNull ConditionType = "IS NOT NULL"
)

// unset marks an absent LIMIT or OFFSET so that zero stays expressible.
const unset = -1

// Condition is one AND-ed predicate of a list query.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond builds a predicate on field. For In, value must be a slice.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

type orderTerm struct {
	column string
	dir    string
	raw    bool
}

// ListQueryOptions describes a single-table SELECT.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    []orderTerm
	Limit      int
	Offset     int
}

// ListQueryOption mutates ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions selects every column of table with no limit until options say otherwise.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	o := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithColumns sets the select list. Columns are emitted verbatim.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition appends an AND-ed predicate.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy appends a quoted ordering column. Directions other than ASC/DESC are dropped.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = append(o.OrderBy, orderTerm{column: column, dir: strings.ToUpper(direction)})
	}
}

// WithOrderByExpr appends a raw ordering expression, emitted without quoting.
func WithOrderByExpr(expr string) ListQueryOption {
	return func(o *ListQueryOptions) { o.OrderBy = append(o.OrderBy, orderTerm{column: expr, raw: true}) }
}

// WithLimit caps the row count; negative values are ignored.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset skips rows; negative values are ignored.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// listQuery accumulates SQL text with '?' placeholders and its arguments.
type listQuery struct {
	d    Dialect
	sql  strings.Builder
	args []any
}

func (q *listQuery) selectFrom(o *ListQueryOptions) {
	cols := "*"
	if len(o.Columns) > 0 {
		cols = strings.Join(o.Columns, ", ")
	}
	fmt.Fprintf(&q.sql, "SELECT %s FROM %s", cols, q.d.QuoteIdent(o.Table))
}

func (q *listQuery) where(conds []Condition) {
	for i, c := range conds {
		if i == 0 {
			q.sql.WriteString(" WHERE ")
		} else {
			q.sql.WriteString(" AND ")
		}
		field := q.d.QuoteIdent(c.Field)
		switch c.Type {
		case IsNull, IsNotNull:
			fmt.Fprintf(&q.sql, "%s %s", field, c.Type)
		case In:
			values := expandSlice(c.Value)
			if len(values) == 0 {
				q.sql.WriteString("1 = 0")
				continue
			}
			fmt.Fprintf(&q.sql, "%s IN (%s)", field, Placeholders(len(values)))
			q.args = append(q.args, values...)
		default:
			fmt.Fprintf(&q.sql, "%s %s ?", field, c.Type)
			q.args = append(q.args, c.Value)
		}
	}
}

func (q *listQuery) orderBy(terms []orderTerm) {
	for i, t := range terms {
		if i == 0 {
			q.sql.WriteString(" ORDER BY ")
		} else {
			q.sql.WriteString(", ")
		}
		if t.raw {
			q.sql.WriteString(t.column)
			continue
		}
		q.sql.WriteString(q.d.QuoteIdent(t.column))
		if t.dir == "ASC" || t.dir == "DESC" {
			q.sql.WriteString(" " + t.dir)
		}
	}
}

// page writes LIMIT/OFFSET. MySQL and SQLite only accept OFFSET after a LIMIT, so an
// offset alone gets that dialect's "no limit" value.
func (q *listQuery) page(limit, offset int) {
	switch {
	case limit != unset:
		q.sql.WriteString(" LIMIT ?")
		q.args = append(q.args, limit)
	case offset != unset && q.d == MySQL:
		q.sql.WriteString(" LIMIT 18446744073709551615")
	case offset != unset && q.d == SQLite:
		q.sql.WriteString(" LIMIT -1")
	}
	if offset != unset {
		q.sql.WriteString(" OFFSET ?")
		q.args = append(q.args, offset)
	}
}

// BuildListQuery renders options for dialect d. Identifiers are quoted and placeholders
// rebound to the dialect's style.
//
//	q, args := BuildListQuery(Postgres, NewListQueryOptions("jobs",
//		WithColumns("id", "priority"),
//		WithCondition(WhereCond("owner_id", Equal, 7)),
//		WithOrderBy("priority", "ASC"),
//		WithLimit(50),
//	))
func BuildListQuery(d Dialect, options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}
	q := &listQuery{d: d}
	q.selectFrom(options)
	q.where(options.Conditions)
	q.orderBy(options.OrderBy)
	q.page(options.Limit, options.Offset)
	return d.Rebind(q.sql.String()), q.args
}

func expandSlice(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
