// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package recommend ranks apartments by a weighted blend of three
// precomputed similarity matrices and answers radius searches over the
// apartment-to-location distance table.
//
// A Scorer is immutable after NewScorer and safe for concurrent use.
package recommend

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/estatemap/internal/artifacts"
	"github.com/tomtom215/estatemap/internal/logging"
)

// Scorer serves recommendations and radius searches from one set of
// artifacts.
type Scorer struct {
	table    *artifacts.DistanceTable
	combined *artifacts.Matrix
	weights  Weights
	logger   zerolog.Logger

	apartments []string
	locations  []string
}

// NewScorer validates that the matrices share the table's row index and
// precomputes the combined matrix.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScorer(table *artifacts.DistanceTable, sims [3]*artifacts.Matrix, weights Weights, logger zerolog.Logger) (*Scorer, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil distance table", ErrInvalidArgument)
	}
	for i, m := range sims {
		if m == nil {
			return nil, fmt.Errorf("%w: similarity matrix %d is nil", ErrInvalidArgument, i+1)
		}
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if err := artifacts.ValidateAlignment(table, sims[:]...); err != nil {
		return nil, err
	}

	start := time.Now()
	combined, err := artifacts.Weighted(sims[:], weights.slice())
	if err != nil {
		return nil, err
	}

	s := &Scorer{
		table:      table,
		combined:   combined,
		weights:    weights,
		logger:     logger.With().Str("component", "recommend").Logger(),
		apartments: sortedCopy(table.Rows),
		locations:  sortedCopy(table.Columns),
	}
	s.logger.Info().
		Int("apartments", table.Len()).
		Int("locations", len(table.Columns)).
		Dur("combine_time", time.Since(start)).
		Msg("recommendation index ready")
	return s, nil
}

// Weights returns the weights the combined matrix was built with.
func (s *Scorer) Weights() Weights { return s.weights }

// Apartments returns every apartment name, sorted.
func (s *Scorer) Apartments() []string { return slices.Clone(s.apartments) }

// Locations returns every reference location, sorted.
func (s *Scorer) Locations() []string { return slices.Clone(s.locations) }

// HasApartment reports whether name is indexed.
func (s *Scorer) HasApartment(name string) bool {
	_, ok := s.table.RowIndex(name)
	return ok
}

// Recommend returns up to n apartments most similar to name, best first.
// n == 0 means DefaultTopN. The target itself is never returned. Equal
// scores keep index order. Asking for more than exist returns all of them.
func (s *Scorer) Recommend(ctx context.Context, name string, n int) ([]Recommendation, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: top_n must not be negative, got %d", ErrInvalidArgument, n)
	}
	if n == 0 {
		n = DefaultTopN
	}
	target, ok := s.table.RowIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntityNotFound, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.combined.Row(target)
	candidates := make([]int, 0, len(row)-1)
	for i := range row {
		if i != target {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return rankKey(row[candidates[a]]) > rankKey(row[candidates[b]])
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]Recommendation, n)
	for k, idx := range candidates[:n] {
		out[k] = Recommendation{
			Name:         s.table.Rows[idx],
			Score:        row[idx],
			MatchPercent: MatchPercent(row[idx]),
		}
	}

	logging.Ctx(ctx).Debug().
		Str("apartment", name).
		Int("requested", n).
		Int("returned", len(out)).
		Msg("recommendations computed")
	return out, nil
}

// Nearby returns apartments strictly closer than radiusKm to location,
// nearest first.
func (s *Scorer) Nearby(ctx context.Context, location string, radiusKm float64) ([]NearbyResult, error) {
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return nil, fmt.Errorf("%w: radius must not be negative, got %v", ErrInvalidArgument, radiusKm)
	}
	col, ok := s.table.ColumnIndex(location)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, location)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := radiusKm * 1000
	var out []NearbyResult
	for i, name := range s.table.Rows {
		m := s.table.Meters(i, col)
		if m < limit {
			out = append(out, NearbyResult{Name: name, DistanceMeters: m, DistanceKm: RoundKm(m)})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].DistanceMeters < out[b].DistanceMeters
	})

	logging.Ctx(ctx).Debug().
		Str("location", location).
		Float64("radius_km", radiusKm).
		Int("matches", len(out)).
		Msg("radius search")
	return out, nil
}

// rankKey orders NaN scores last.
func rankKey(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	sort.Strings(out)
	return out
}
