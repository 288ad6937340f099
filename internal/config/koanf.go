// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/estatemap/config.yaml",
	"/etc/estatemap/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration without reading a file or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			Dir:              "datasets",
			Listings:         "data_viz1.csv",
			FeatureText:      "feature_text.txt",
			ModelFrame:       "df.csv",
			Pipeline:         "pipeline.json",
			PipelineArchive:  "pipeline.zip",
			LocationDistance: "location_distance.csv",
			Similarity:       []string{"cosine_sim1.csv", "cosine_sim2.csv", "cosine_sim3.csv"},
			Watch:            false,
			WatchDebounce:    2 * time.Second,
		},
		Recommend: RecommendConfig{
			WeightDescription: 0.5,
			WeightPriceSize:   0.8,
			WeightLocation:    1.0,
			DefaultTopN:       5,
			MaxTopN:           100,
			MaxRadiusKm:       100,
		},
		Predict: PredictConfig{
			PriceBand:          0.22,
			Timeout:            5 * time.Second,
			BreakerMaxRequests: 1,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     30 * time.Second,
			BreakerFailures:    5,
		},
		Analytics: AnalyticsConfig{
			OthersThreshold: 2.0,
			CacheTTL:        5 * time.Minute,
			DefaultBins:     30,
			MaxBins:         200,
			WordLimit:       150,
			Stopwords:       []string{"s"},
			MaxBedrooms:     4,
		},
		Database: DatabaseConfig{
			Path:      ":memory:",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Port:            8501,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Audit: AuditConfig{
			Enabled:       true,
			RetentionDays: 30,
			BufferSize:    64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// environment variables, in that order, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"artifacts.similarity",
	"analytics.stopwords",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"artifacts_dir":               "artifacts.dir",
	"artifacts_listings":          "artifacts.listings",
	"artifacts_feature_text":      "artifacts.feature_text",
	"artifacts_model_frame":       "artifacts.model_frame",
	"artifacts_pipeline":          "artifacts.pipeline",
	"artifacts_pipeline_archive":  "artifacts.pipeline_archive",
	"artifacts_location_distance": "artifacts.location_distance",
	"artifacts_similarity":        "artifacts.similarity",
	"artifacts_watch":             "artifacts.watch",
	"artifacts_watch_debounce":    "artifacts.watch_debounce",

	"recommend_weight_description": "recommend.weight_description",
	"recommend_weight_price_size":  "recommend.weight_price_size",
	"recommend_weight_location":    "recommend.weight_location",
	"recommend_default_top_n":      "recommend.default_top_n",
	"recommend_max_top_n":          "recommend.max_top_n",
	"recommend_max_radius_km":      "recommend.max_radius_km",

	"predict_price_band":           "predict.price_band",
	"predict_timeout":              "predict.timeout",
	"predict_breaker_max_requests": "predict.breaker_max_requests",
	"predict_breaker_interval":     "predict.breaker_interval",
	"predict_breaker_timeout":      "predict.breaker_timeout",
	"predict_breaker_failures":     "predict.breaker_failures",

	"analytics_others_threshold": "analytics.others_threshold",
	"analytics_cache_ttl":        "analytics.cache_ttl",
	"analytics_default_bins":     "analytics.default_bins",
	"analytics_max_bins":         "analytics.max_bins",
	"analytics_word_limit":       "analytics.word_limit",
	"analytics_stopwords":        "analytics.stopwords",
	"analytics_max_bedrooms":     "analytics.max_bedrooms",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"audit_enabled":        "audit.enabled",
	"audit_retention_days": "audit.retention_days",
	"audit_buffer_size":    "audit.buffer_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
//	ARTIFACTS_DIR -> artifacts.dir
//	PREDICT_PRICE_BAND -> predict.price_band
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
