// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/estatemap/internal/artifacts"
	"github.com/tomtom215/estatemap/internal/logging"
	"github.com/tomtom215/estatemap/internal/metrics"
)

const (
	tableListings   = "listings"
	tableModelFrame = "model_frame"
)

// listingColumns are the data_viz1.csv columns the analytics read.
var listingColumns = []string{
	"sector", "property_type", "price", "price_per_sqft",
	"built_up_area", "bedRoom", "latitude", "longitude",
}

// frameColumns are the df.csv columns the predictor options read.
var frameColumns = []string{
	"sector", "bedRoom", "bathroom", "balcony", "agePossession",
	"furnishing_type", "luxury_category", "floor_category",
}

// IngestListings replaces the listings table with the rows of path. Prices
// arrive in lakhs and are stored in crores.
func (db *DB) IngestListings(ctx context.Context, path string) (int64, error) {
	selectSQL := `
		SELECT
			row_number() OVER () AS row_id,
			CAST(sector AS VARCHAR) AS sector,
			CAST(property_type AS VARCHAR) AS property_type,
			TRY_CAST(price AS DOUBLE) / 100 AS price,
			TRY_CAST(price_per_sqft AS DOUBLE) AS price_per_sqft,
			TRY_CAST(built_up_area AS DOUBLE) AS built_up_area,
			TRY_CAST("bedRoom" AS DOUBLE) AS bedrooms,
			TRY_CAST(latitude AS DOUBLE) AS latitude,
			TRY_CAST(longitude AS DOUBLE) AS longitude
		FROM ` + csvSource(path)
	return db.ingest(ctx, tableListings, path, listingColumns, selectSQL)
}

// IngestModelFrame replaces the model_frame table with the rows of path.
// Categorical columns are stored as text whatever type the CSV sniffer
// picks.
func (db *DB) IngestModelFrame(ctx context.Context, path string) (int64, error) {
	selectSQL := `
		SELECT
			CAST(sector AS VARCHAR) AS sector,
			TRY_CAST("bedRoom" AS DOUBLE) AS bedrooms,
			TRY_CAST(bathroom AS DOUBLE) AS bathroom,
			CAST(balcony AS VARCHAR) AS balcony,
			CAST("agePossession" AS VARCHAR) AS age_possession,
			CAST(furnishing_type AS VARCHAR) AS furnishing_type,
			CAST(luxury_category AS VARCHAR) AS luxury_category,
			CAST(floor_category AS VARCHAR) AS floor_category
		FROM ` + csvSource(path)
	return db.ingest(ctx, tableModelFrame, path, frameColumns, selectSQL)
}

func (db *DB) ingest(ctx context.Context, table, path string, required []string, selectSQL string) (rows int64, err error) {
	if _, err := artifacts.Resolve(path); err != nil {
		return 0, err
	}

	db.ingestMu.Lock()
	defer db.ingestMu.Unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { observe("ingest_"+table, start, err) }()

	if err := db.checkColumns(ctx, path, required); err != nil {
		return 0, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin ingest of %s: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	//nolint:gosec // table is a package constant and the path is escaped
	if _, err = tx.ExecContext(ctx, "CREATE OR REPLACE TABLE "+table+" AS "+selectSQL); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", artifacts.ErrMalformed, path, err)
	}
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&rows); err != nil { //nolint:gosec // constant table
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingest of %s: %w", table, err)
	}

	metrics.DBRowsIngested.WithLabelValues(table).Set(float64(rows))
	logging.Ctx(ctx).Info().
		Str("table", table).
		Str("path", path).
		Int64("rows", rows).
		Dur("duration", time.Since(start)).
		Msg("CSV ingested")
	return rows, nil
}

// checkColumns fails with ErrMissingColumns naming every absent column.
func (db *DB) checkColumns(ctx context.Context, path string, required []string) error {
	cols, err := queryAndScan(ctx, db.conn, "DESCRIBE SELECT * FROM "+csvSource(path), nil,
		func(r *sql.Rows) (string, error) {
			var name, typ string
			var null, key, def, extra any
			err := r.Scan(&name, &typ, &null, &key, &def, &extra)
			return name, err
		})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", artifacts.ErrMalformed, path, err)
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[strings.ToLower(c)] = true
	}
	var absent []string
	for _, c := range required {
		if !have[strings.ToLower(c)] {
			absent = append(absent, c)
		}
	}
	if len(absent) > 0 {
		sort.Strings(absent)
		return fmt.Errorf("%w: %w: %s: %s", artifacts.ErrMalformed, ErrMissingColumns, path, strings.Join(absent, ", "))
	}
	return nil
}

// csvSource renders a read_csv_auto call with path as an escaped literal.
func csvSource(path string) string {
	return "read_csv_auto('" + strings.ReplaceAll(path, "'", "''") + "', header = true)"
}
