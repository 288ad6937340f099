// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/tomtom215/estatemap/internal/metrics"
	"github.com/tomtom215/estatemap/internal/recommend"
	"github.com/tomtom215/estatemap/internal/validation"
)

// Recommendation kinds, used as metric labels.
const (
	kindSimilar = "similar"
	kindNearby  = "nearby"
)

// RecommendationItem is one similar apartment. Score and MatchPercent are
// null when the similarity matrices hold no value for the pair.
type RecommendationItem struct {
	Name         string   `json:"name"`
	Score        *float64 `json:"score"`
	MatchPercent *float64 `json:"match_percent"`
}

// recommendResult maps a scorer error onto a metric result label.
func recommendResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, recommend.ErrEntityNotFound), errors.Is(err, recommend.ErrLocationNotFound):
		return "not_found"
	case errors.Is(err, recommend.ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}

// Locations lists the reference locations usable in radius search.
func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	snap := h.loader.Current()
	scorer, err := snap.Recommender()
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	locations := scorer.Locations()
	rw.SuccessList(locations, len(locations), snap.ID)
}

// Apartments lists every apartment that can be recommended from.
func (h *Handler) Apartments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	snap := h.loader.Current()
	scorer, err := snap.Recommender()
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	apartments := scorer.Apartments()
	rw.SuccessList(apartments, len(apartments), snap.ID)
}

// NearbyApartments returns apartments strictly within ?radius_km= of the
// location, nearest first.
func (h *Handler) NearbyApartments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	start := time.Now()
	snap := h.loader.Current()
	scorer, err := snap.Recommender()
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}

	radius, verr := floatQuery(r, "radius_km", -1)
	if verr == nil {
		verr = h.checkRadius(radius, r.URL.Query().Has("radius_km"))
	}
	if verr != nil {
		metrics.RecordRecommendation(kindNearby, "invalid", 0, 0)
		respondValidation(rw, verr)
		return
	}

	results, err := scorer.Nearby(r.Context(), pathParam(r, "location"), radius)
	metrics.RecordRecommendation(kindNearby, recommendResult(err), time.Since(start), len(results))
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	if results == nil {
		results = []recommend.NearbyResult{}
	}
	rw.SuccessList(results, len(results), snap.ID)
}

func (h *Handler) checkRadius(radius float64, present bool) *validation.RequestValidationError {
	maxKm := h.config.Recommend.MaxRadiusKm
	switch {
	case !present:
		return validation.NewFieldError("radius_km", "required", "", nil, "radius_km is required")
	case radius < 0:
		return validation.NewFieldError("radius_km", "gte", "0", radius, "radius_km must be 0 or greater")
	case maxKm > 0 && radius > maxKm:
		return validation.NewFieldError("radius_km", "lte", fmt.Sprint(maxKm), radius,
			fmt.Sprintf("radius_km must be %v or less", maxKm))
	}
	return nil
}

// ApartmentRecommendations returns the ?top_n= apartments most similar to
// the named one, best first, never including the apartment itself.
func (h *Handler) ApartmentRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	start := time.Now()
	snap := h.loader.Current()
	scorer, err := snap.Recommender()
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}

	cfg := h.config.Recommend
	topN, verr := intQuery(r, "top_n", cfg.DefaultTopN)
	if verr == nil && cfg.MaxTopN > 0 && topN > cfg.MaxTopN {
		verr = validation.NewFieldError("top_n", "lte", fmt.Sprint(cfg.MaxTopN), topN,
			fmt.Sprintf("top_n must be %d or less", cfg.MaxTopN))
	}
	if verr != nil {
		metrics.RecordRecommendation(kindSimilar, "invalid", 0, 0)
		respondValidation(rw, verr)
		return
	}

	recs, err := scorer.Recommend(r.Context(), pathParam(r, "name"), topN)
	metrics.RecordRecommendation(kindSimilar, recommendResult(err), time.Since(start), len(recs))
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}

	items := lo.Map(recs, func(rec recommend.Recommendation, _ int) RecommendationItem {
		return RecommendationItem{
			Name:         rec.Name,
			Score:        floatOrNil(rec.Score),
			MatchPercent: floatOrNil(rec.MatchPercent),
		}
	})
	rw.SuccessList(items, len(items), snap.ID)
}
