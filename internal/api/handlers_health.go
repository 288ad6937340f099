// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/logging"
)

// ReadinessStatus is the body of /health/ready.
type ReadinessStatus struct {
	Status            string                             `json:"status"`
	DatabaseConnected bool                               `json:"database_connected"`
	SnapshotID        string                             `json:"snapshot_id,omitempty"`
	LoadedAt          *time.Time                         `json:"loaded_at,omitempty"`
	Features          map[catalog.Feature]catalog.Status `json:"features"`
	PredictorCircuit  string                             `json:"predictor_circuit,omitempty"`
	Rows              *TableRows                         `json:"rows,omitempty"`
	AnalyticsCache    *analytics.CacheStatus             `json:"analytics_cache,omitempty"`
	Uptime            float64                            `json:"uptime_seconds"`
}

// TableRows counts the ingested rows; 0 means the table was never loaded.
type TableRows struct {
	Listings   int64 `json:"listings"`
	ModelFrame int64 `json:"model_frame"`
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of artifacts.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// The server is ready while the database answers and at least one feature
// group is loaded; disabled features are listed with their load error.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	snap := h.loader.Current()

	status := ReadinessStatus{
		Status:            "ready",
		DatabaseConnected: h.db != nil && h.db.Ping(r.Context()) == nil,
		SnapshotID:        snap.ID,
		Features:          snap.Status(),
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if !snap.LoadedAt.IsZero() {
		loadedAt := snap.LoadedAt
		status.LoadedAt = &loadedAt
	}
	if p, _, err := snap.Predictor(); err == nil {
		status.PredictorCircuit = p.State()
	}
	if status.DatabaseConnected {
		listings, frame, err := h.db.GetRecordCounts(r.Context())
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to count ingested rows")
		} else {
			status.Rows = &TableRows{Listings: listings, ModelFrame: frame}
		}
	}
	if h.analytics != nil {
		cacheStatus := h.analytics.CacheStatus()
		status.AnalyticsCache = &cacheStatus
	}

	if !status.DatabaseConnected || !snap.Ready() {
		status.Status = "not_ready"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", status)
		return
	}
	rw.Success(status)
}
