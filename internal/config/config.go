// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package config loads Estatemap configuration.
//
// Loading order (Koanf v2), later layers win:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML (config.yaml, /etc/estatemap/config.yaml, or CONFIG_PATH)
//  3. Environment variables: explicit mappings in envTransformFunc
//
// Config is immutable after LoadWithKoanf and safe for concurrent reads.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Recommend RecommendConfig `koanf:"recommend"`
	Predict   PredictConfig   `koanf:"predict"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Audit     AuditConfig     `koanf:"audit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ArtifactsConfig locates the precomputed datasets and model files.
// File names are relative to Dir unless absolute.
type ArtifactsConfig struct {
	Dir              string   `koanf:"dir"`
	Listings         string   `koanf:"listings"`
	FeatureText      string   `koanf:"feature_text"`
	ModelFrame       string   `koanf:"model_frame"`
	Pipeline         string   `koanf:"pipeline"`
	PipelineArchive  string   `koanf:"pipeline_archive"`
	LocationDistance string   `koanf:"location_distance"`
	Similarity       []string `koanf:"similarity"` // exactly three: description, price/size, location

	// Watch reloads artifacts when files in Dir change.
	Watch         bool          `koanf:"watch"`
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// Path resolves an artifact file name against Dir.
func (a ArtifactsConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Dir, name)
}

// RecommendConfig holds the similarity weights and result limits.
type RecommendConfig struct {
	WeightDescription float64 `koanf:"weight_description"`
	WeightPriceSize   float64 `koanf:"weight_price_size"`
	WeightLocation    float64 `koanf:"weight_location"`
	DefaultTopN       int     `koanf:"default_top_n"`
	MaxTopN           int     `koanf:"max_top_n"`
	MaxRadiusKm       float64 `koanf:"max_radius_km"`
}

// PredictConfig holds the price band and the inference circuit breaker settings.
type PredictConfig struct {
	PriceBand          float64       `koanf:"price_band"` // crores either side of the point estimate
	Timeout            time.Duration `koanf:"timeout"`
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	BreakerFailures    uint32        `koanf:"breaker_failures"` // consecutive failures before opening
}

// AnalyticsConfig holds chart data settings.
type AnalyticsConfig struct {
	OthersThreshold float64       `koanf:"others_threshold"` // percent; shares at or below are merged
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	DefaultBins     int           `koanf:"default_bins"`
	MaxBins         int           `koanf:"max_bins"`
	WordLimit       int           `koanf:"word_limit"`
	Stopwords       []string      `koanf:"stopwords"`
	MaxBedrooms     int           `koanf:"max_bedrooms"` // upper bound for the BHK price box plot
}

// DatabaseConfig holds DuckDB settings. The analytics tables are rebuilt from
// the listings CSV on every load, so an in-memory database is the default.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = DuckDB default
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AuditConfig controls the reload history kept in DuckDB.
type AuditConfig struct {
	Enabled       bool `koanf:"enabled"`
	RetentionDays int  `koanf:"retention_days"` // 0 keeps events forever
	BufferSize    int  `koanf:"buffer_size"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
