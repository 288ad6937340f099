// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/validation"
)

// analyticsReady writes a 503 naming the load failure when the analytics
// feature is disabled.
func (h *Handler) analyticsReady(rw *ResponseWriter, r *http.Request) (string, bool) {
	snap := h.loader.Current()
	if err := snap.Analytics(); err != nil {
		respondServiceError(rw, r, err)
		return "", false
	}
	return snap.ID, true
}

// AnalyticsSectorGeomap returns per-sector mean price, price per sqft, area
// and coordinates for the map view.
func (h *Handler) AnalyticsSectorGeomap(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.analyticsReady(rw, r)
	if !ok {
		return
	}
	rows, err := h.analytics.SectorGeomap(r.Context())
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessList(rows, len(rows), id)
}

// AnalyticsAreaPrice returns built-up area against price for one property
// type (?property_type=flat|house, default flat).
func (h *Handler) AnalyticsAreaPrice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.analyticsReady(rw, r)
	if !ok {
		return
	}
	propertyType := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("property_type")))
	if propertyType == "" {
		propertyType = "flat"
	}
	points, err := h.analytics.AreaPrice(r.Context(), propertyType)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessList(points, len(points), id)
}

// AnalyticsBedroomShare returns the bedroom pie for ?sector= (default
// overall), small slices merged into Others.
func (h *Handler) AnalyticsBedroomShare(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.analyticsReady(rw, r)
	if !ok {
		return
	}
	slices, err := h.analytics.BedroomShare(r.Context(), r.URL.Query().Get("sector"))
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessList(slices, len(slices), id)
}

// AnalyticsSectors lists the sector choices for the bedroom pie.
func (h *Handler) AnalyticsSectors(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.analyticsReady(rw, r)
	if !ok {
		return
	}
	sectors, err := h.analytics.Sectors(r.Context())
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessList(sectors, len(sectors), id)
}

// AnalyticsBHKPriceBox returns price box plot statistics per bedroom count.
func (h *Handler) AnalyticsBHKPriceBox(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.analyticsReady(rw, r)
	if !ok {
		return
	}
	boxes, err := h.analytics.BHKPriceBox(r.Context())
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessList(boxes, len(boxes), id)
}

// AnalyticsPriceDistribution returns price density histograms per property
// type (?bins=, default from config).
func (h *Handler) AnalyticsPriceDistribution(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.analyticsReady(rw, r)
	if !ok {
		return
	}
	bins, verr := intQuery(r, "bins", 0)
	if verr != nil {
		respondValidation(rw, verr)
		return
	}
	hist, err := h.analytics.PriceDistribution(r.Context(), bins)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessWithMeta(hist, &APIMeta{SnapshotID: id})
}

// AnalyticsWordCloud returns feature word frequencies (?limit= trims the
// list further).
func (h *Handler) AnalyticsWordCloud(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.analyticsReady(rw, r)
	if !ok {
		return
	}
	limit, verr := intQuery(r, "limit", 0)
	if verr == nil && limit < 0 {
		verr = validation.NewFieldError("limit", "gte", "0", limit, "limit must be 0 or greater")
	}
	if verr != nil {
		respondValidation(rw, verr)
		return
	}
	words, err := h.analytics.WordCloud(r.Context())
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	if limit > 0 && limit < len(words) {
		words = words[:limit]
	}
	if words == nil {
		words = []analytics.WordCount{}
	}
	rw.SuccessList(words, len(words), id)
}
