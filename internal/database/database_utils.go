// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/estatemap/internal/metrics"
)

// ensureContext creates a context with 30-second timeout if none provided
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	if err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// GetRecordCounts returns the row counts of both tables, 0 for a table not
// yet ingested.
func (db *DB) GetRecordCounts(ctx context.Context) (listings int64, frame int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if listings, err = db.countRows(ctx, tableListings); err != nil {
		return 0, 0, err
	}
	if frame, err = db.countRows(ctx, tableModelFrame); err != nil {
		return listings, 0, err
	}
	return listings, frame, nil
}

func (db *DB) countRows(ctx context.Context, table string) (int64, error) {
	ok, err := db.tableExists(ctx, table)
	if err != nil || !ok {
		return 0, err
	}
	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil { //nolint:gosec // table is a package constant
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (db *DB) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?", table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// observe records query latency and errors under op.
func observe(op string, start time.Time, err error) {
	metrics.RecordDBQuery(op, time.Since(start), err)
}
