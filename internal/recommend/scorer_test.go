// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/estatemap/internal/artifacts"
)

// newTestScorer builds four apartments and two locations. With default
// weights the combined row for "A" is B=2.3, C=2.3, D=1.15.
func newTestScorer(t *testing.T) *Scorer {
	t.Helper()

	rows := []string{"A", "B", "C", "D"}
	table, err := artifacts.NewDistanceTable(rows, []string{"Metro", "Airport"}, [][]float64{
		{1200, 18000},
		{4500, 9000},
		{499, 30000},
		{3000, math.NaN()},
	})
	if err != nil {
		t.Fatalf("NewDistanceTable: %v", err)
	}

	uniform := func(name string, ab, ac, ad float64) *artifacts.Matrix {
		m, err := artifacts.NewMatrix(name, nil, [][]float64{
			{1, ab, ac, ad},
			{ab, 1, 0, 0},
			{ac, 0, 1, 0},
			{ad, 0, 0, 1},
		})
		if err != nil {
			t.Fatalf("NewMatrix %s: %v", name, err)
		}
		return m
	}
	sims := [3]*artifacts.Matrix{
		uniform("sim1", 1, 1, 0.5),
		uniform("sim2", 1, 1, 0.5),
		uniform("sim3", 1, 1, 0.5),
	}

	s, err := NewScorer(table, sims, DefaultWeights(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func TestRecommend_OrderAndTies(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	recs, err := s.Recommend(context.Background(), "A", 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	// B and C tie; lower index first
	if recs[0].Name != "B" || recs[1].Name != "C" {
		t.Errorf("order = %s,%s; want B,C", recs[0].Name, recs[1].Name)
	}
	if math.Abs(recs[0].Score-2.3) > 1e-9 {
		t.Errorf("score = %v, want 2.3", recs[0].Score)
	}
	if recs[0].MatchPercent != 230 {
		t.Errorf("match percent = %v, want 230", recs[0].MatchPercent)
	}
}

func TestRecommend_ExcludesTargetEvenWhenNotTop(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	// Row B: self=2.3, A=2.3. Self must be dropped regardless of position.
	recs, err := s.Recommend(context.Background(), "B", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want all 3 others", len(recs))
	}
	for _, r := range recs {
		if r.Name == "B" {
			t.Fatal("target returned in its own recommendations")
		}
	}
	if recs[0].Name != "A" {
		t.Errorf("first = %s, want A", recs[0].Name)
	}
}

func TestRecommend_DefaultsAndErrors(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)
	ctx := context.Background()

	recs, err := s.Recommend(ctx, "A", 0)
	if err != nil {
		t.Fatalf("Recommend(n=0) error = %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("n=0 should use default and cap at available, got %d", len(recs))
	}

	if _, err := s.Recommend(ctx, "Nowhere Towers", 5); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("unknown apartment: error = %v, want ErrEntityNotFound", err)
	}
	if _, err := s.Recommend(ctx, "A", -1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative n: error = %v, want ErrInvalidArgument", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Recommend(cancelled, "A", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx: error = %v", err)
	}
}

func TestMatchPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  float64
	}{
		{0.8234, 82.34},
		{0.5, 50},
		{1, 100},
		{0, 0},
		{2.3, 230},
	}
	for _, tt := range tests {
		if got := MatchPercent(tt.score); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MatchPercent(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestNearby(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)
	ctx := context.Background()

	got, err := s.Nearby(ctx, "Metro", 3)
	if err != nil {
		t.Fatalf("Nearby() error = %v", err)
	}
	// D is exactly 3000 m and must be excluded by the strict comparison
	want := []NearbyResult{
		{Name: "C", DistanceMeters: 499, DistanceKm: 0},
		{Name: "A", DistanceMeters: 1200, DistanceKm: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Nearby() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	airport, err := s.Nearby(ctx, "Airport", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(airport) != 3 {
		t.Errorf("NaN distances must never match, got %+v", airport)
	}

	if _, err := s.Nearby(ctx, "Moon", 5); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("unknown location: error = %v", err)
	}
	if _, err := s.Nearby(ctx, "Metro", -1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative radius: error = %v", err)
	}
}

func TestRoundKm(t *testing.T) {
	t.Parallel()

	for meters, want := range map[float64]int{499: 0, 1500: 2, 2500: 2, 2501: 3, 9000: 9} {
		if got := RoundKm(meters); got != want {
			t.Errorf("RoundKm(%v) = %d, want %d", meters, got, want)
		}
	}
}

func TestNewScorer_Rejects(t *testing.T) {
	t.Parallel()

	table, _ := artifacts.NewDistanceTable([]string{"A", "B"}, []string{"X"}, [][]float64{{1}, {2}})
	ok, _ := artifacts.NewMatrix("ok", []string{"A", "B"}, [][]float64{{1, 0}, {0, 1}})
	wrong, _ := artifacts.NewMatrix("wrong", []string{"B", "A"}, [][]float64{{1, 0}, {0, 1}})

	if _, err := NewScorer(table, [3]*artifacts.Matrix{ok, ok, wrong}, DefaultWeights(), zerolog.Nop()); !errors.Is(err, artifacts.ErrIndexMisaligned) {
		t.Errorf("misaligned: error = %v, want ErrIndexMisaligned", err)
	}
	if _, err := NewScorer(table, [3]*artifacts.Matrix{ok, ok, ok}, Weights{Description: -1}, zerolog.Nop()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative weight: error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewScorer(table, [3]*artifacts.Matrix{ok, nil, ok}, DefaultWeights(), zerolog.Nop()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil matrix: error = %v, want ErrInvalidArgument", err)
	}
}

func TestSortedNames(t *testing.T) {
	t.Parallel()
	s := newTestScorer(t)

	locs := s.Locations()
	if len(locs) != 2 || locs[0] != "Airport" || locs[1] != "Metro" {
		t.Errorf("Locations() = %v", locs)
	}
	if !s.HasApartment("C") || s.HasApartment("Z") {
		t.Error("HasApartment mismatch")
	}
}
