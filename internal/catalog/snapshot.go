// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package catalog loads every artifact into an immutable Snapshot and swaps
// it in atomically on reload. Each feature group (analytics, predictor,
// recommender) loads independently so a missing file disables only the
// feature that needs it.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/estatemap/internal/predict"
	"github.com/tomtom215/estatemap/internal/recommend"
)

// Feature names a group of artifacts that load together.
type Feature string

const (
	FeatureAnalytics   Feature = "analytics"
	FeaturePredictor   Feature = "predictor"
	FeatureRecommender Feature = "recommender"
)

// Features lists every feature in reporting order.
var Features = []Feature{FeatureAnalytics, FeaturePredictor, FeatureRecommender}

// ErrFeatureUnavailable wraps the load error of a disabled feature.
var ErrFeatureUnavailable = errors.New("feature unavailable")

// errNotLoaded is the cause reported before the first reload.
var errNotLoaded = errors.New("artifacts not loaded yet")

// Status is the load outcome of one feature.
type Status struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Snapshot is one consistent set of loaded artifacts. It is never mutated
// after the Loader publishes it.
type Snapshot struct {
	ID       string
	LoadedAt time.Time

	// Extracted lists the files this load wrote by unpacking archives.
	Extracted []string

	scorer       *recommend.Scorer
	recommendErr error

	predictor  *predict.Predictor
	options    *predict.Options
	predictErr error

	analyticsErr error
}

// emptySnapshot reports every feature as not loaded.
func emptySnapshot() *Snapshot {
	return &Snapshot{
		recommendErr: errNotLoaded,
		predictErr:   errNotLoaded,
		analyticsErr: errNotLoaded,
	}
}

// NewSnapshot assembles a snapshot from already loaded parts. A nil part
// must come with its error.
func NewSnapshot(id string, scorer *recommend.Scorer, recommendErr error,
	predictor *predict.Predictor, options *predict.Options, predictErr error,
	analyticsErr error,
) *Snapshot {
	if scorer == nil && recommendErr == nil {
		recommendErr = errNotLoaded
	}
	if (predictor == nil || options == nil) && predictErr == nil {
		predictErr = errNotLoaded
	}
	return &Snapshot{
		ID:           id,
		LoadedAt:     time.Now(),
		scorer:       scorer,
		recommendErr: recommendErr,
		predictor:    predictor,
		options:      options,
		predictErr:   predictErr,
		analyticsErr: analyticsErr,
	}
}

func unavailable(f Feature, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrFeatureUnavailable, f, cause)
}

// Recommender returns the scorer or an ErrFeatureUnavailable error.
func (s *Snapshot) Recommender() (*recommend.Scorer, error) {
	if s.recommendErr != nil {
		return nil, unavailable(FeatureRecommender, s.recommendErr)
	}
	return s.scorer, nil
}

// Predictor returns the predictor and its form options or an
// ErrFeatureUnavailable error.
func (s *Snapshot) Predictor() (*predict.Predictor, *predict.Options, error) {
	if s.predictErr != nil {
		return nil, nil, unavailable(FeaturePredictor, s.predictErr)
	}
	return s.predictor, s.options, nil
}

// Analytics returns nil when the listings and feature text loaded.
func (s *Snapshot) Analytics() error {
	if s.analyticsErr != nil {
		return unavailable(FeatureAnalytics, s.analyticsErr)
	}
	return nil
}

// Err returns the load error of f, nil when ready.
func (s *Snapshot) Err(f Feature) error {
	switch f {
	case FeatureAnalytics:
		return s.analyticsErr
	case FeaturePredictor:
		return s.predictErr
	case FeatureRecommender:
		return s.recommendErr
	default:
		return fmt.Errorf("unknown feature %q", f)
	}
}

// Status reports every feature.
func (s *Snapshot) Status() map[Feature]Status {
	out := make(map[Feature]Status, len(Features))
	for _, f := range Features {
		err := s.Err(f)
		st := Status{Ready: err == nil}
		if err != nil {
			st.Error = err.Error()
		}
		out[f] = st
	}
	return out
}

// Ready reports whether at least one feature loaded.
func (s *Snapshot) Ready() bool {
	for _, f := range Features {
		if s.Err(f) == nil {
			return true
		}
	}
	return false
}
