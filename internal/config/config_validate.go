// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package config

import (
	"fmt"
	"math"
	"time"
)

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validatePredict(); err != nil {
		return err
	}
	if err := c.validateAnalytics(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateArtifacts() error {
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("ARTIFACTS_DIR is required")
	}
	if len(c.Artifacts.Similarity) != 3 {
		return fmt.Errorf("ARTIFACTS_SIMILARITY must list exactly 3 matrices, got %d", len(c.Artifacts.Similarity))
	}
	if c.Artifacts.Watch && c.Artifacts.WatchDebounce < 0 {
		return fmt.Errorf("ARTIFACTS_WATCH_DEBOUNCE must not be negative")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	for name, w := range map[string]float64{
		"RECOMMEND_WEIGHT_DESCRIPTION": c.Recommend.WeightDescription,
		"RECOMMEND_WEIGHT_PRICE_SIZE":  c.Recommend.WeightPriceSize,
		"RECOMMEND_WEIGHT_LOCATION":    c.Recommend.WeightLocation,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%s must be a finite non-negative number", name)
		}
	}
	if c.Recommend.DefaultTopN < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_TOP_N must be at least 1")
	}
	if c.Recommend.MaxTopN < c.Recommend.DefaultTopN {
		return fmt.Errorf("RECOMMEND_MAX_TOP_N must be >= RECOMMEND_DEFAULT_TOP_N")
	}
	if c.Recommend.MaxRadiusKm <= 0 {
		return fmt.Errorf("RECOMMEND_MAX_RADIUS_KM must be positive")
	}
	return nil
}

func (c *Config) validatePredict() error {
	if c.Predict.PriceBand < 0 || math.IsNaN(c.Predict.PriceBand) {
		return fmt.Errorf("PREDICT_PRICE_BAND must not be negative")
	}
	if c.Predict.Timeout <= 0 {
		return fmt.Errorf("PREDICT_TIMEOUT must be positive")
	}
	if c.Predict.BreakerFailures == 0 {
		return fmt.Errorf("PREDICT_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	if c.Analytics.OthersThreshold < 0 || c.Analytics.OthersThreshold >= 100 {
		return fmt.Errorf("ANALYTICS_OTHERS_THRESHOLD must be in [0, 100)")
	}
	if c.Analytics.DefaultBins < 1 || c.Analytics.DefaultBins > c.Analytics.MaxBins {
		return fmt.Errorf("ANALYTICS_DEFAULT_BINS must be between 1 and ANALYTICS_MAX_BINS (%d)", c.Analytics.MaxBins)
	}
	if c.Analytics.WordLimit < 1 {
		return fmt.Errorf("ANALYTICS_WORD_LIMIT must be at least 1")
	}
	if c.Analytics.MaxBedrooms < 1 {
		return fmt.Errorf("ANALYTICS_MAX_BEDROOMS must be at least 1")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateAudit() error {
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
