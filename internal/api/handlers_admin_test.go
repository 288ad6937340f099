// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/estatemap/internal/audit"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/testinfra"
)

// waitForHistory blocks until the async audit writer has stored n events.
func waitForHistory(t *testing.T, store *audit.MemoryStore, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for store.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("history has %d events, want %d", store.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAdminReloadHistory(t *testing.T) {
	t.Parallel()
	dir := testinfra.WriteArtifacts(t)
	s := newTestServer(t, dir, false, func(c *config.Config) { c.Security.RateLimitDisabled = true })

	store := audit.NewMemoryStore(0)
	history := audit.NewLogger(store, nil)
	t.Cleanup(func() { _ = history.Close() })
	s.loader.SetAudit(history)

	if _, err := s.loader.Reload(context.Background(), catalog.TriggerStartup); err != nil {
		t.Fatalf("startup reload: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, testinfra.PipelineFile)); err != nil {
		t.Fatal(err)
	}
	rec, _ := s.do(t, http.MethodPost, "/api/v1/admin/reload", nil)
	checkStatus(t, rec, http.StatusOK)
	reloadRequestID := rec.Header().Get("X-Request-ID")
	waitForHistory(t, store, 2)

	t.Run("newest first", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/admin/reloads", nil)
		checkStatus(t, rec, http.StatusOK)
		var events []audit.Event
		decodeData(t, env, &events)
		if len(events) != 2 {
			t.Fatalf("events = %+v", events)
		}
		if events[0].Trigger != catalog.TriggerAPI || events[0].Outcome != audit.OutcomePartial {
			t.Errorf("latest = %s/%s, want api/partial", events[0].Trigger, events[0].Outcome)
		}
		if events[0].RequestID != reloadRequestID {
			t.Errorf("request id = %q, want %q", events[0].RequestID, reloadRequestID)
		}
		if env.Meta == nil || env.Meta.SnapshotID != s.loader.Current().ID {
			t.Errorf("meta = %+v", env.Meta)
		}
	})

	t.Run("filters", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/admin/reloads?trigger=startup", nil)
		checkStatus(t, rec, http.StatusOK)
		var events []audit.Event
		decodeData(t, env, &events)
		if len(events) != 1 || events[0].Outcome != audit.OutcomeSuccess {
			t.Errorf("startup events = %+v", events)
		}

		rec, env = s.do(t, http.MethodGet, "/api/v1/admin/reloads?outcome=failure", nil)
		checkStatus(t, rec, http.StatusOK)
		if string(env.Data) != "[]" {
			t.Errorf("failure events = %s, want []", env.Data)
		}

		rec, env = s.do(t, http.MethodGet, "/api/v1/admin/reloads?limit=1", nil)
		checkStatus(t, rec, http.StatusOK)
		decodeData(t, env, &events)
		if len(events) != 1 || events[0].Trigger != catalog.TriggerAPI {
			t.Errorf("limit=1 events = %+v", events)
		}
	})

	t.Run("invalid parameters", func(t *testing.T) {
		for _, target := range []string{
			"/api/v1/admin/reloads?limit=0",
			"/api/v1/admin/reloads?limit=500",
			"/api/v1/admin/reloads?limit=ten",
			"/api/v1/admin/reloads?trigger=cron",
			"/api/v1/admin/reloads?outcome=meh",
		} {
			rec, env := s.do(t, http.MethodGet, target, nil)
			checkStatus(t, rec, http.StatusBadRequest)
			checkErrorCode(t, env, ErrCodeValidationFailed)
		}
	})
}

func TestAdminReloadHistoryDisabled(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, t.TempDir(), false)

	rec, env := s.do(t, http.MethodGet, "/api/v1/admin/reloads", nil)
	checkStatus(t, rec, http.StatusServiceUnavailable)
	checkErrorCode(t, env, ErrCodeServiceUnavailable)
}
