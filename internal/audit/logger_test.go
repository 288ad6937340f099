// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package audit

import (
	"context"
	"testing"
	"time"
)

func event(trigger string, outcome Outcome, at time.Time) *Event {
	return &Event{
		Trigger:    trigger,
		Outcome:    outcome,
		Timestamp:  at,
		SnapshotID: "snap-" + trigger,
		Features: map[string]FeatureResult{
			"analytics": {Ready: true},
			"predictor": {Ready: outcome == OutcomeSuccess, Error: "pipeline.json missing"},
		},
	}
}

func TestOutcomeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		features map[string]FeatureResult
		want     Outcome
	}{
		{"all ready", map[string]FeatureResult{"a": {Ready: true}, "b": {Ready: true}}, OutcomeSuccess},
		{"some ready", map[string]FeatureResult{"a": {Ready: true}, "b": {}}, OutcomePartial},
		{"none ready", map[string]FeatureResult{"a": {}, "b": {}}, OutcomeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := OutcomeOf(tt.features); got != tt.want {
				t.Errorf("OutcomeOf() = %s, want %s", got, tt.want)
			}
		})
	}

	if !OutcomePartial.Valid() || Outcome("maybe").Valid() {
		t.Error("Valid() mismatch")
	}
}

func TestLogger_WritesAsyncAndFlushesOnClose(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	l := NewLogger(store, &Config{BufferSize: 8})

	l.Log(&Event{Trigger: "api", Outcome: OutcomeSuccess})
	l.Log(&Event{Trigger: "watch", Outcome: OutcomePartial})
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	events, err := l.Query(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.ID == "" || e.Timestamp.IsZero() {
			t.Errorf("ID and Timestamp must be filled in: %+v", e)
		}
	}
}

func TestMemoryStore_QueryFilterAndOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore(3)
	for i, trigger := range []string{"startup", "api", "watch", "api"} {
		outcome := OutcomeSuccess
		if trigger == "watch" {
			outcome = OutcomePartial
		}
		if err := store.Save(ctx, event(trigger, outcome, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}
	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want oldest evicted to 3", store.Len())
	}

	all, _ := store.Query(ctx, QueryFilter{})
	if len(all) != 3 || all[0].Trigger != "api" || all[2].Trigger != "api" || all[1].Trigger != "watch" {
		t.Errorf("newest-first order wrong: %+v", all)
	}

	api, _ := store.Query(ctx, QueryFilter{Trigger: "api", Limit: 1})
	if len(api) != 1 || !api[0].Timestamp.Equal(base.Add(3*time.Minute)) {
		t.Errorf("api limit 1 = %+v", api)
	}

	if n, _ := store.Count(ctx, QueryFilter{Outcome: OutcomePartial}); n != 1 {
		t.Errorf("partial count = %d, want 1", n)
	}

	removed, _ := store.Delete(ctx, base.Add(2*time.Minute))
	if removed != 1 || store.Len() != 2 {
		t.Errorf("Delete removed %d, left %d", removed, store.Len())
	}
}

func TestLogger_Cleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	store := NewMemoryStore(10)
	_ = store.Save(ctx, event("startup", OutcomeSuccess, now.AddDate(0, 0, -40)))
	_ = store.Save(ctx, event("api", OutcomeSuccess, now.AddDate(0, 0, -1)))

	l := NewLogger(store, &Config{RetentionDays: 30, CleanupInterval: time.Hour})
	defer l.Close()

	l.cleanup(ctx, now)
	if store.Len() != 1 {
		t.Errorf("Len() after cleanup = %d, want 1", store.Len())
	}
}
