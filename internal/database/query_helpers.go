// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package database

import (
	"context"
	"database/sql"
	"strings"
)

// queryBuilder appends AND-ed filters to a base query that already has a
// WHERE clause.
type queryBuilder struct {
	baseQuery string
	args      []interface{}
	filters   []string
}

// newQueryBuilder creates a new query builder with a base query.
func newQueryBuilder(baseQuery string) *queryBuilder {
	return &queryBuilder{
		baseQuery: baseQuery,
		args:      make([]interface{}, 0, 4),
		filters:   make([]string, 0, 4),
	}
}

// addPropertyTypeFilter restricts to one property type; empty means all.
func (qb *queryBuilder) addPropertyTypeFilter(propertyType string) *queryBuilder {
	if propertyType != "" {
		qb.addFilter("property_type = ?", propertyType)
	}
	return qb
}

// addSectorFilter restricts to one sector; empty means all.
func (qb *queryBuilder) addSectorFilter(sector string) *queryBuilder {
	if sector != "" {
		qb.addFilter("sector = ?", sector)
	}
	return qb
}

// addMaxBedroomsFilter keeps rows with at most n bedrooms; n <= 0 means no
// limit.
func (qb *queryBuilder) addMaxBedroomsFilter(n int) *queryBuilder {
	if n > 0 {
		qb.addFilter("bedrooms <= ?", n)
	}
	return qb
}

// addFilter adds a custom filter condition
func (qb *queryBuilder) addFilter(condition string, args ...interface{}) {
	qb.filters = append(qb.filters, condition)
	qb.args = append(qb.args, args...)
}

// build constructs the final query and returns it with args
func (qb *queryBuilder) build(suffix string) (string, []interface{}) {
	query := qb.baseQuery
	if len(qb.filters) > 0 {
		query += " AND " + strings.Join(qb.filters, " AND ")
	}
	if suffix != "" {
		query += " " + suffix
	}
	return query, qb.args
}

// scanFunc is a function that scans a single row into a result type
type scanFunc[T any] func(*sql.Rows) (T, error)

// queryAndScan executes a query and scans all rows using the provided scan function
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
