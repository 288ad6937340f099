// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/estatemap/internal/logging"
	"github.com/tomtom215/estatemap/internal/metrics"
)

// ErrInferenceFailed wraps any failure inside the pipeline, including
// panics, timeouts and an open circuit.
var ErrInferenceFailed = errors.New("inference failed")

// DefaultPriceBand is the half-width of the estimate range in crores.
const DefaultPriceBand = 0.22

// Estimate is a predicted price range in crores.
type Estimate struct {
	LogPrice  float64 `json:"log_price"`
	BasePrice float64 `json:"base_price"`
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Unit      string  `json:"unit"`
}

// PriceRange converts a log1p prediction into a range of +/- band.
func PriceRange(logPrice, band float64) Estimate {
	base := math.Expm1(logPrice)
	return Estimate{
		LogPrice:  logPrice,
		BasePrice: round2(base),
		Low:       round2(base - band),
		High:      round2(base + band),
		Unit:      "Cr",
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BreakerSettings tune the circuit around the pipeline.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // probes allowed while half-open
	Interval    time.Duration // closed-state count reset
	Timeout     time.Duration // open duration before probing
	Failures    uint32        // consecutive failures that open the circuit
}

// DefaultBreakerSettings opens after 5 consecutive failures and probes
// again after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "price-pipeline",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		Failures:    5,
	}
}

// Predictor guards a Pipeline with a timeout, panic recovery and a circuit
// breaker.
type Predictor struct {
	pipeline Pipeline
	band     float64
	timeout  time.Duration
	cb       *gobreaker.CircuitBreaker[float64]
	name     string
}

// NewPredictor wraps p. A band of 0 yields point estimates; a negative or
// NaN band uses DefaultPriceBand. timeout <= 0 disables the per-call deadline.
func NewPredictor(p Pipeline, band float64, timeout time.Duration, bs BreakerSettings) *Predictor {
	if band < 0 || math.IsNaN(band) {
		band = DefaultPriceBand
	}
	if bs.Name == "" {
		bs.Name = DefaultBreakerSettings().Name
	}
	failures := bs.Failures
	if failures == 0 {
		failures = DefaultBreakerSettings().Failures
	}

	metrics.CircuitBreakerState.WithLabelValues(bs.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        bs.Name,
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		// A caller hanging up says nothing about the pipeline
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= failures
			if trip {
				logging.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening price pipeline circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Predictor{pipeline: p, band: band, timeout: timeout, cb: cb, name: bs.Name}
}

// Band returns the configured half-width.
func (p *Predictor) Band() float64 { return p.band }

// State returns the breaker state as a string for health output.
func (p *Predictor) State() string { return stateToString(p.cb.State()) }

// Estimate runs the pipeline and converts the result to a price range. The
// input must already be validated.
func (p *Predictor) Estimate(ctx context.Context, in *Input) (Estimate, error) {
	start := time.Now()

	logPrice, err := p.cb.Execute(func() (float64, error) {
		return p.run(ctx, in)
	})
	if err != nil {
		result := "inference_failed"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "failure").Inc()
		}
		metrics.RecordPrediction(result, time.Since(start))
		logging.Ctx(ctx).Warn().Err(err).Str("sector", in.Sector).Msg("Price prediction failed")
		if errors.Is(err, ErrInferenceFailed) {
			return Estimate{}, err
		}
		return Estimate{}, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(p.name, "success").Inc()
	metrics.RecordPrediction("success", time.Since(start))

	est := PriceRange(logPrice, p.band)
	logging.Ctx(ctx).Debug().
		Str("property_type", in.PropertyType).
		Str("sector", in.Sector).
		Float64("base_price", est.BasePrice).
		Msg("Price predicted")
	return est, nil
}

// run calls the pipeline on its own goroutine so a stuck model cannot
// outlive the deadline, and turns panics into errors.
func (p *Predictor) run(ctx context.Context, in *Input) (float64, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	type outcome struct {
		v   float64
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: panic: %v", ErrInferenceFailed, r)}
			}
		}()
		v, err := p.pipeline.Predict(ctx, in)
		done <- outcome{v: v, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			if errors.Is(o.err, ErrInferenceFailed) {
				return 0, o.err
			}
			return 0, fmt.Errorf("%w: %v", ErrInferenceFailed, o.err)
		}
		return o.v, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %w", ErrInferenceFailed, ctx.Err())
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
