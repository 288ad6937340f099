// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"time"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/database"
)

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_health.go: liveness and readiness
//   - handlers_analytics.go: chart data
//   - handlers_predict.go: price estimates
//   - handlers_recommend.go: locations, radius search, similar apartments
//   - handlers_admin.go: artifact reload
type Handler struct {
	loader    *catalog.Loader
	analytics *analytics.Service
	db        *database.DB
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a new API handler. Every request reads the loader's
// current snapshot, so a reload takes effect on the next request.
func NewHandler(loader *catalog.Loader, db *database.DB, cfg *config.Config) *Handler {
	return &Handler{
		loader:    loader,
		analytics: loader.Analytics(),
		db:        db,
		config:    cfg,
		startTime: time.Now(),
	}
}
