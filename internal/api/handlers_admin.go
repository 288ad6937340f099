// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/estatemap/internal/audit"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/logging"
	"github.com/tomtom215/estatemap/internal/validation"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// ReloadResult is the body of a reload response.
type ReloadResult struct {
	SnapshotID string                             `json:"snapshot_id"`
	Features   map[catalog.Feature]catalog.Status `json:"features"`
}

// AdminReload re-reads every artifact from disk and swaps the snapshot in.
// A feature that fails to load is reported disabled; the request itself
// fails only when nothing loaded.
func (h *Handler) AdminReload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	// A client hanging up must not leave half the features disabled
	snap, err := h.loader.Reload(context.WithoutCancel(r.Context()), catalog.TriggerAPI)
	result := ReloadResult{SnapshotID: snap.ID, Features: snap.Status()}
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Reload finished with disabled features")
	}
	if !snap.Ready() {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeArtifactUnavailable, "No feature could be loaded", result)
		return
	}
	rw.SuccessWithMeta(result, &APIMeta{SnapshotID: snap.ID})
}

// AdminReloadHistory lists recorded reloads, newest first.
//
// Query parameters: limit (1-200, default 20), trigger (startup, api or
// watch) and outcome (success, partial or failure).
func (h *Handler) AdminReloadHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	history := h.loader.Audit()
	if history == nil {
		rw.ServiceUnavailable("Reload history is disabled")
		return
	}

	filter, verr := historyFilter(r)
	if verr != nil {
		respondValidation(rw, verr)
		return
	}
	events, err := history.Query(r.Context(), filter)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to query reload history")
		rw.Error(http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to query reload history")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	rw.SuccessList(events, len(events), h.loader.Current().ID)
}

func historyFilter(r *http.Request) (audit.QueryFilter, *validation.RequestValidationError) {
	limit, verr := intQuery(r, "limit", defaultHistoryLimit)
	if verr != nil {
		return audit.QueryFilter{}, verr
	}
	if limit < 1 || limit > maxHistoryLimit {
		return audit.QueryFilter{}, validation.NewFieldError("limit", "range", "1-200", limit, "limit must be between 1 and 200")
	}

	filter := audit.QueryFilter{Limit: limit}
	if trigger := strings.TrimSpace(r.URL.Query().Get("trigger")); trigger != "" {
		switch trigger {
		case catalog.TriggerStartup, catalog.TriggerAPI, catalog.TriggerWatch:
			filter.Trigger = trigger
		default:
			return audit.QueryFilter{}, validation.NewFieldError("trigger", "oneof", "startup api watch",
				sanitizeLogValue(trigger), "trigger must be one of startup, api, watch")
		}
	}
	if outcome := audit.Outcome(strings.TrimSpace(r.URL.Query().Get("outcome"))); outcome != "" {
		if !outcome.Valid() {
			return audit.QueryFilter{}, validation.NewFieldError("outcome", "oneof", "success partial failure",
				sanitizeLogValue(string(outcome)), "outcome must be one of success, partial, failure")
		}
		filter.Outcome = outcome
	}
	return filter, nil
}
