// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/middleware"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	cfg           *config.Config
}

// NewRouter creates a new router for handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFrom(cfg.Security)),
		cfg:           cfg,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.Compression)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	h := router.handler

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAnalytics())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.requestTimeout())

		r.Get("/sector-geomap", h.AnalyticsSectorGeomap)
		r.Get("/area-price", h.AnalyticsAreaPrice)
		r.Get("/sectors", h.AnalyticsSectors)
		r.Get("/bedroom-share", h.AnalyticsBedroomShare)
		r.Get("/bhk-price-box", h.AnalyticsBHKPriceBox)
		r.Get("/price-distribution", h.AnalyticsPriceDistribution)
		r.Get("/wordcloud", h.AnalyticsWordCloud)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.requestTimeout())

		r.Get("/api/v1/predict/options", h.PredictOptions)
		r.Post("/api/v1/predict", h.Predict)

		r.Get("/api/v1/locations", h.Locations)
		r.Get("/api/v1/locations/{location}/nearby", h.NearbyApartments)
		r.Get("/api/v1/apartments", h.Apartments)
		r.Get("/api/v1/apartments/{name}/recommendations", h.ApartmentRecommendations)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAdmin())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Post("/reload", h.AdminReload)
		r.Get("/reloads", h.AdminReloadHistory)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestTimeout cancels request contexts after the server timeout.
func (router *Router) requestTimeout() func(http.Handler) http.Handler {
	if router.cfg.Server.Timeout <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimiddleware.Timeout(router.cfg.Server.Timeout)
}
