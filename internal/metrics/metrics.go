// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package metrics holds the Prometheus instruments for Estatemap. All
// collectors register with the default registry through promauto and are
// served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	DBRowsIngested = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "duckdb_rows_ingested",
			Help: "Rows loaded into each table by the last ingest",
		},
		[]string{"table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Analytics cache
	AnalyticsCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Analytics results served from cache",
		},
		[]string{"query"},
	)

	AnalyticsCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Analytics results computed because the cache had no entry",
		},
		[]string{"query"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Recommendation and radius search requests",
		},
		[]string{"kind", "result"}, // kind: similar, nearby; result: success, not_found, invalid, error
	)

	RecommendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_latency_seconds",
			Help:    "Time to rank candidates",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"kind"},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results_count",
			Help:    "Number of apartments returned per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Price predictions by outcome",
		},
		[]string{"result"}, // success, invalid, inference_failed, rejected
	)

	PredictionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Time spent inside the price pipeline",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.25, 1},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Artifact Metrics
	ArtifactLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_loads_total",
			Help: "Feature group artifact loads by outcome",
		},
		[]string{"feature", "result"}, // feature: analytics, predictor, recommender
	)

	ArtifactFeatureReady = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "artifact_feature_ready",
			Help: "1 when the feature group loaded its artifacts, 0 otherwise",
		},
		[]string{"feature"},
	)

	ArtifactReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_reloads_total",
			Help: "Artifact reloads by trigger",
		},
		[]string{"trigger"}, // startup, api, watch
	)

	ArtifactLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artifact_load_duration_seconds",
			Help:    "Time to load all artifacts",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup counts an analytics cache hit or miss.
func RecordCacheLookup(query string, hit bool) {
	if hit {
		AnalyticsCacheHits.WithLabelValues(query).Inc()
		return
	}
	AnalyticsCacheMisses.WithLabelValues(query).Inc()
}

// RecordRecommendation records one recommendation or radius search.
func RecordRecommendation(kind, result string, duration time.Duration, returned int) {
	RecommendRequests.WithLabelValues(kind, result).Inc()
	if result == "success" {
		RecommendLatency.WithLabelValues(kind).Observe(duration.Seconds())
		RecommendResults.Observe(float64(returned))
	}
}

// RecordPrediction records one prediction outcome.
func RecordPrediction(result string, duration time.Duration) {
	PredictionsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		PredictionLatency.Observe(duration.Seconds())
	}
}

// RecordArtifactLoad records whether a feature group loaded.
func RecordArtifactLoad(feature string, err error) {
	if err != nil {
		ArtifactLoads.WithLabelValues(feature, "failure").Inc()
		ArtifactFeatureReady.WithLabelValues(feature).Set(0)
		return
	}
	ArtifactLoads.WithLabelValues(feature, "success").Inc()
	ArtifactFeatureReady.WithLabelValues(feature).Set(1)
}

// RecordReload records a full artifact reload.
func RecordReload(trigger string, duration time.Duration) {
	ArtifactReloads.WithLabelValues(trigger).Inc()
	ArtifactLoadDuration.Observe(duration.Seconds())
}
