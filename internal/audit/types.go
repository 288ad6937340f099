// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package audit keeps a history of artifact reloads: who or what triggered
// each one, which snapshot it published and which features it left
// disabled. Events are written asynchronously to a Store.
package audit

import (
	"context"
	"time"
)

// Outcome summarizes a reload.
type Outcome string

const (
	OutcomeSuccess Outcome = "success" // every feature loaded
	OutcomePartial Outcome = "partial" // some features disabled
	OutcomeFailure Outcome = "failure" // nothing loaded
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomePartial, OutcomeFailure:
		return true
	}
	return false
}

// FeatureResult is the load result of one feature group.
type FeatureResult struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Event is one recorded reload.
type Event struct {
	ID         string                   `json:"id"`
	Timestamp  time.Time                `json:"timestamp"`
	Trigger    string                   `json:"trigger"`
	Outcome    Outcome                  `json:"outcome"`
	SnapshotID string                   `json:"snapshot_id"`
	DurationMs int64                    `json:"duration_ms"`
	Features   map[string]FeatureResult `json:"features"`

	// RequestID is set for reloads requested over the API.
	RequestID string `json:"request_id,omitempty"`
}

// OutcomeOf derives the outcome from per-feature results.
func OutcomeOf(features map[string]FeatureResult) Outcome {
	ready := 0
	for _, f := range features {
		if f.Ready {
			ready++
		}
	}
	switch {
	case ready == len(features):
		return OutcomeSuccess
	case ready == 0:
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

// Store persists reload events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than olderThan and returns how many.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter narrows a query. Zero fields match everything.
type QueryFilter struct {
	Trigger string
	Outcome Outcome
	Since   time.Time
	Limit   int
}

// DefaultQueryLimit caps a query that sets no limit.
const DefaultQueryLimit = 50

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

func (f QueryFilter) matches(e *Event) bool {
	if f.Trigger != "" && e.Trigger != f.Trigger {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
