// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/artifacts"
	"github.com/tomtom215/estatemap/internal/audit"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/database"
	"github.com/tomtom215/estatemap/internal/logging"
	"github.com/tomtom215/estatemap/internal/metrics"
	"github.com/tomtom215/estatemap/internal/predict"
	"github.com/tomtom215/estatemap/internal/recommend"
)

// Reload triggers, used as metric labels.
const (
	TriggerStartup = "startup"
	TriggerAPI     = "api"
	TriggerWatch   = "watch"
)

// Loader builds snapshots from the configured artifact files and publishes
// them. Reloads are serialised; readers never block.
type Loader struct {
	cfg       *config.Config
	db        *database.DB
	analytics *analytics.Service
	audit     *audit.Logger

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewLoader creates a Loader whose Current snapshot reports every feature
// as not loaded until the first Reload.
func NewLoader(cfg *config.Config, db *database.DB, svc *analytics.Service) *Loader {
	l := &Loader{cfg: cfg, db: db, analytics: svc}
	l.current.Store(emptySnapshot())
	return l
}

// Current returns the published snapshot. It is never nil.
func (l *Loader) Current() *Snapshot {
	return l.current.Load()
}

// Analytics returns the analytics service the loader refreshes.
func (l *Loader) Analytics() *analytics.Service {
	return l.analytics
}

// SetAudit records every later reload in a. Call it before serving.
func (l *Loader) SetAudit(a *audit.Logger) {
	l.audit = a
}

// Audit returns the reload history logger, or nil when history is off.
func (l *Loader) Audit() *audit.Logger {
	return l.audit
}

// Reload loads every feature, publishes the new snapshot and returns it. A
// feature that fails to load is disabled in the snapshot; the returned
// error joins those failures for logging and is nil when all loaded.
func (l *Loader) Reload(ctx context.Context, trigger string) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	id := uuid.NewString()
	start := time.Now()
	logger := logging.Ctx(ctx).With().Str("snapshot_id", id).Logger()
	logger.Info().Str("trigger", trigger).Str("dir", l.cfg.Artifacts.Dir).Msg("Reloading artifacts")

	analyticsErr := l.loadAnalytics(ctx)
	metrics.RecordArtifactLoad(string(FeatureAnalytics), analyticsErr)

	var predictor *predict.Predictor
	var options *predict.Options
	extracted, predictErr := l.extractPipeline(ctx)
	if predictErr == nil {
		predictor, options, predictErr = l.loadPredictor(ctx)
	}
	metrics.RecordArtifactLoad(string(FeaturePredictor), predictErr)

	scorer, recommendErr := l.loadRecommender(ctx)
	metrics.RecordArtifactLoad(string(FeatureRecommender), recommendErr)

	snap := NewSnapshot(id, scorer, recommendErr, predictor, options, predictErr, analyticsErr)
	snap.Extracted = extracted
	l.current.Store(snap)
	metrics.RecordReload(trigger, time.Since(start))

	var errs []error
	for _, f := range Features {
		if err := snap.Err(f); err != nil {
			logger.Warn().Err(err).Str("feature", string(f)).Msg("Feature disabled")
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	elapsed := time.Since(start)
	logger.Info().
		Str("trigger", trigger).
		Dur("duration", elapsed).
		Int("disabled_features", len(errs)).
		Msg("Artifacts reloaded")

	if l.audit != nil {
		l.audit.Log(reloadEvent(ctx, trigger, snap, elapsed))
	}
	return snap, errors.Join(errs...)
}

func (l *Loader) loadAnalytics(ctx context.Context) error {
	a := l.cfg.Artifacts
	return l.analytics.Load(ctx, a.Path(a.Listings), a.Path(a.FeatureText))
}

// extractPipeline unpacks the pipeline archive when the pipeline file is
// absent and returns the paths it wrote.
func (l *Loader) extractPipeline(ctx context.Context) ([]string, error) {
	a := l.cfg.Artifacts
	pipelinePath := a.Path(a.Pipeline)

	extracted, err := artifacts.EnsureExtracted(pipelinePath, a.Path(a.PipelineArchive))
	if err != nil || !extracted {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("path", pipelinePath).Msg("Pipeline extracted from archive")
	return []string{pipelinePath}, nil
}

func (l *Loader) loadPredictor(ctx context.Context) (*predict.Predictor, *predict.Options, error) {
	a := l.cfg.Artifacts
	pipeline, err := predict.LoadPipeline(a.Path(a.Pipeline))
	if err != nil {
		return nil, nil, err
	}
	if _, err := l.db.IngestModelFrame(ctx, a.Path(a.ModelFrame)); err != nil {
		return nil, nil, err
	}
	values, err := l.db.FrameValues(ctx)
	if err != nil {
		return nil, nil, err
	}

	p := l.cfg.Predict
	predictor := predict.NewPredictor(pipeline, p.PriceBand, p.Timeout, predict.BreakerSettings{
		Name:        "price-pipeline",
		MaxRequests: p.BreakerMaxRequests,
		Interval:    p.BreakerInterval,
		Timeout:     p.BreakerTimeout,
		Failures:    p.BreakerFailures,
	})
	logging.Ctx(ctx).Info().
		Strs("columns", pipeline.Columns()).
		Int("sectors", len(values.Sectors)).
		Msg("Price predictor ready")
	return predictor, predict.NewOptions(values), nil
}

func (l *Loader) loadRecommender(ctx context.Context) (*recommend.Scorer, error) {
	a := l.cfg.Artifacts
	table, err := artifacts.LoadDistanceTable(a.Path(a.LocationDistance))
	if err != nil {
		return nil, err
	}
	if len(a.Similarity) != 3 {
		return nil, fmt.Errorf("expected 3 similarity matrices, configured %d", len(a.Similarity))
	}
	var sims [3]*artifacts.Matrix
	for i, name := range a.Similarity {
		if sims[i], err = artifacts.LoadSimilarityMatrix(a.Path(name)); err != nil {
			return nil, err
		}
	}

	r := l.cfg.Recommend
	weights := recommend.Weights{
		Description: r.WeightDescription,
		PriceSize:   r.WeightPriceSize,
		Location:    r.WeightLocation,
	}
	return recommend.NewScorer(table, sims, weights, *logging.Ctx(ctx))
}

func reloadEvent(ctx context.Context, trigger string, snap *Snapshot, elapsed time.Duration) *audit.Event {
	features := make(map[string]audit.FeatureResult, len(Features))
	for f, st := range snap.Status() {
		features[string(f)] = audit.FeatureResult{Ready: st.Ready, Error: st.Error}
	}
	return &audit.Event{
		Timestamp:  snap.LoadedAt.UTC(),
		Trigger:    trigger,
		Outcome:    audit.OutcomeOf(features),
		SnapshotID: snap.ID,
		DurationMs: elapsed.Milliseconds(),
		Features:   features,
		RequestID:  logging.RequestIDFromContext(ctx),
	}
}
