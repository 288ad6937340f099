// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/estatemap/internal/predict"
)

// FrameValues reads the sorted distinct values of every categorical column
// of the model frame plus the bedroom range.
func (db *DB) FrameValues(ctx context.Context) (result *predict.FrameValues, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("frame_values", start, err) }(time.Now())

	if err := db.requireTable(ctx, tableModelFrame); err != nil {
		return nil, err
	}

	v := &predict.FrameValues{}
	text := []struct {
		column string
		dst    *[]string
	}{
		{"sector", &v.Sectors},
		{"balcony", &v.Balconies},
		{"age_possession", &v.AgePossession},
		{"furnishing_type", &v.FurnishingTypes},
		{"luxury_category", &v.LuxuryCategories},
		{"floor_category", &v.FloorCategories},
	}
	for _, c := range text {
		if *c.dst, err = db.distinctText(ctx, c.column); err != nil {
			return nil, err
		}
	}

	//nolint:gosec // constant query
	bathrooms, err := queryAndScan(ctx, db.conn,
		"SELECT DISTINCT bathroom FROM model_frame WHERE bathroom IS NOT NULL ORDER BY bathroom", nil,
		func(rows *sql.Rows) (float64, error) {
			var f float64
			err := rows.Scan(&f)
			return f, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query bathroom values: %w", err)
	}
	v.Bathrooms = bathrooms

	var lo, hi sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT MIN(bedrooms), MAX(bedrooms) FROM model_frame").Scan(&lo, &hi); err != nil {
		return nil, fmt.Errorf("failed to query bedroom range: %w", err)
	}
	if lo.Valid && hi.Valid {
		v.BedroomMin = int(math.Floor(lo.Float64))
		v.BedroomMax = int(math.Floor(hi.Float64))
	}
	return v, nil
}

// distinctText lists the sorted distinct non-null values of a model frame
// column.
func (db *DB) distinctText(ctx context.Context, column string) ([]string, error) {
	//nolint:gosec // column comes from a fixed list above
	query := fmt.Sprintf("SELECT DISTINCT %s FROM model_frame WHERE %s IS NOT NULL ORDER BY %s", column, column, column)
	values, err := queryAndScan(ctx, db.conn, query, nil, func(rows *sql.Rows) (string, error) {
		var s string
		err := rows.Scan(&s)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s values: %w", column, err)
	}
	return values, nil
}
