// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/estatemap/internal/testinfra"
)

func TestDuckDBStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := testinfra.NewDuckDB(t)
	store := NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	// idempotent
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("second CreateTable() error = %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := event("startup", OutcomeSuccess, base)
	first.ID = "e1"
	second := event("api", OutcomePartial, base.Add(time.Minute))
	second.ID = "e2"
	second.RequestID = "req-42"
	second.DurationMs = 17
	for _, e := range []*Event{first, second} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save(%s) error = %v", e.ID, err)
		}
	}

	events, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 2 || events[0].ID != "e2" {
		t.Fatalf("events = %+v, want e2 first", events)
	}
	got := events[0]
	if got.RequestID != "req-42" || got.DurationMs != 17 || got.Outcome != OutcomePartial {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if pred := got.Features["predictor"]; pred.Ready || pred.Error != "pipeline.json missing" {
		t.Errorf("predictor result = %+v", pred)
	}
	if events[1].RequestID != "" {
		t.Errorf("empty request id should stay empty, got %q", events[1].RequestID)
	}

	filtered, err := store.Query(ctx, QueryFilter{Trigger: "startup"})
	if err != nil || len(filtered) != 1 || filtered[0].ID != "e1" {
		t.Errorf("trigger filter = %+v, %v", filtered, err)
	}
	if n, err := store.Count(ctx, QueryFilter{Since: base.Add(30 * time.Second)}); err != nil || n != 1 {
		t.Errorf("Count(since) = %d, %v", n, err)
	}

	removed, err := store.Delete(ctx, base.Add(30*time.Second))
	if err != nil || removed != 1 {
		t.Errorf("Delete() = %d, %v", removed, err)
	}
	if n, _ := store.Count(ctx, QueryFilter{}); n != 1 {
		t.Errorf("remaining = %d, want 1", n)
	}
}
