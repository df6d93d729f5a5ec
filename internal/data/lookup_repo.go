package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/jobdesk-api/internal/core"
	"github.com/target/jobdesk-api/internal/data/database"
	"github.com/target/jobdesk-api/internal/domain/model"
)

// LookupRepo reads job form reference data: lookup values and active clients.
type LookupRepo struct {
	DB      *sql.DB
	dialect database.Dialect
}

// NewLookupRepo creates a new LookupRepo.
func NewLookupRepo(db *sql.DB, d database.Dialect) *LookupRepo {
	if d == "" {
		d = database.Postgres
	}
	return &LookupRepo{DB: db, dialect: d}
}

var _ core.LookupRepository = (*LookupRepo)(nil)

// ListValues returns the lookup values of the given domains ordered by domain, sort order and id.
func (r *LookupRepo) ListValues(ctx context.Context, domains []model.LookupDomain) ([]model.LookupValue, error) {
	opts := database.NewListQueryOptions("lookup_values",
		database.WithColumns("id", "domain", "code", "label", "sort_order"),
		database.WithCondition(database.WhereCond("domain", database.In, domainStrings(domains))),
		database.WithOrderBy("domain", "ASC"),
		database.WithOrderBy("sort_order", "ASC"),
		database.WithOrderBy("id", "ASC"),
	)
	q, args := database.BuildListQuery(r.dialect, opts)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list lookup values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.LookupValue
	for rows.Next() {
		var v model.LookupValue
		if err := rows.Scan(&v.ID, &v.Domain, &v.Code, &v.Label, &v.SortOrder); err != nil {
			return nil, fmt.Errorf("scan lookup value: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup values: %w", err)
	}
	return out, nil
}

// ListClients returns the active clients ordered by name.
func (r *LookupRepo) ListClients(ctx context.Context) ([]model.ClientRef, error) {
	opts := database.NewListQueryOptions("clients",
		database.WithColumns("id", "name"),
		database.WithCondition(database.WhereCond("active", database.Equal, true)),
		database.WithOrderBy("name", "ASC"),
		database.WithOrderBy("id", "ASC"),
	)
	q, args := database.BuildListQuery(r.dialect, opts)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.ClientRef
	for rows.Next() {
		var c model.ClientRef
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

func domainStrings(domains []model.LookupDomain) []string {
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = string(d)
	}
	return out
}
