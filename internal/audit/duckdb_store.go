// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/estatemap/internal/logging"
)

// DuckDBStore implements Store on the reload_events table. The table lives
// next to the listings table but is never replaced by an ingest.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore wraps db. Call CreateTable before the first Save.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates reload_events and its index if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reload_events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			trigger TEXT NOT NULL,
			outcome TEXT NOT NULL,
			snapshot_id TEXT NOT NULL,
			duration_ms BIGINT NOT NULL,
			features TEXT NOT NULL,
			request_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reload_events_timestamp ON reload_events(timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	logging.Debug().Msg("Reload events table created/verified")
	return nil
}

// Save inserts one event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	features, err := json.Marshal(event.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reload_events (id, timestamp, trigger, outcome, snapshot_id, duration_ms, features, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp, event.Trigger, string(event.Outcome),
		event.SnapshotID, event.DurationMs, string(features), nullString(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("failed to save reload event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	where, args := buildConditions(filter)
	query := `SELECT id, timestamp, trigger, outcome, snapshot_id, duration_ms, features, request_id
		FROM reload_events` + where + fmt.Sprintf(" ORDER BY timestamp DESC, id DESC LIMIT %d", filter.limit())

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reload events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			outcome   string
			features  string
			requestID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Trigger, &outcome, &e.SnapshotID, &e.DurationMs, &features, &requestID); err != nil {
			return nil, fmt.Errorf("failed to scan reload event: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.RequestID = requestID.String
		if err := json.Unmarshal([]byte(features), &e.Features); err != nil {
			logging.Warn().Err(err).Str("event_id", e.ID).Msg("Unreadable feature results in reload event")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reload events: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildConditions(filter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reload_events"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reload events: %w", err)
	}
	return n, nil
}

// Delete removes events older than olderThan.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, "DELETE FROM reload_events WHERE timestamp < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old reload events: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return n, nil
}

func buildConditions(filter QueryFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.Trigger != "" {
		conditions = append(conditions, "trigger = ?")
		args = append(args, filter.Trigger)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
