// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package analytics shapes listing data into chart series: bedroom share
// with a merged "Others" slice, price density histograms and word
// frequencies for the amenities word cloud.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"github.com/tomtom215/estatemap/internal/database"
)

// OthersLabel names the slice that absorbs small categories.
const OthersLabel = "Others"

// DefaultOthersThreshold is the share, in percent, at or below which a
// category is merged into Others.
const DefaultOthersThreshold = 2.0

// Slice is one pie chart wedge.
type Slice struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// ShareOf converts bedroom counts to percentage slices, largest first.
// Labels are the bedroom count in shortest form ("3", "2.5").
func ShareOf(counts []database.BedroomCount) []Slice {
	total := lo.SumBy(counts, func(c database.BedroomCount) int64 { return c.Count })
	if total == 0 {
		return []Slice{}
	}
	out := lo.Map(counts, func(c database.BedroomCount, _ int) Slice {
		return Slice{
			Label:   strconv.FormatFloat(c.Bedrooms, 'f', -1, 64),
			Percent: float64(c.Count) / float64(total) * 100,
		}
	})
	sortSlices(out)
	return out
}

// BucketOthers merges every slice with Percent <= threshold into a single
// Others slice appended last. Others is only emitted when at least one
// slice was merged. The remaining slices are ordered by share, then label.
func BucketOthers(slices []Slice, threshold float64) []Slice {
	kept := make([]Slice, 0, len(slices)+1)
	var others float64
	merged := false
	for _, s := range slices {
		if s.Percent <= threshold {
			others += s.Percent
			merged = true
			continue
		}
		kept = append(kept, s)
	}
	sortSlices(kept)
	if merged {
		kept = append(kept, Slice{Label: OthersLabel, Percent: others})
	}
	return kept
}

func sortSlices(s []Slice) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Percent != s[j].Percent {
			return s[i].Percent > s[j].Percent
		}
		return s[i].Label < s[j].Label
	})
}

// Histogram is a density histogram over shared bin edges. Densities
// integrate to 1 over the edges, in units of 1/crore.
type Histogram struct {
	Edges  []float64            `json:"edges"`
	Series map[string][]float64 `json:"series"`
	Counts map[string]int       `json:"counts"`
}

// DensityHistogram bins every series on the same bins equal-width edges
// spanning the minimum and maximum of all values. Each series is
// normalised independently: density = count / (n * width).
func DensityHistogram(series map[string][]float64, bins int) (*Histogram, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}

	lowest, highest := math.Inf(1), math.Inf(-1)
	for _, values := range series {
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite value %v", v)
			}
			lowest = math.Min(lowest, v)
			highest = math.Max(highest, v)
		}
	}

	h := &Histogram{
		Series: make(map[string][]float64, len(series)),
		Counts: make(map[string]int, len(series)),
	}
	if math.IsInf(lowest, 1) {
		h.Edges = []float64{}
		for name := range series {
			h.Series[name] = []float64{}
		}
		return h, nil
	}
	if highest == lowest {
		// A single distinct value still gets a bin of width 1 centred on it
		lowest -= 0.5
		highest += 0.5
	}

	width := (highest - lowest) / float64(bins)
	h.Edges = make([]float64, bins+1)
	for i := range h.Edges {
		h.Edges[i] = lowest + float64(i)*width
	}
	h.Edges[bins] = highest

	for name, values := range series {
		counts := make([]int, bins)
		for _, v := range values {
			idx := int((v - lowest) / width)
			if idx >= bins {
				idx = bins - 1 // right edge is inclusive
			}
			counts[idx]++
		}
		density := make([]float64, bins)
		n := len(values)
		if n > 0 {
			for i, c := range counts {
				density[i] = float64(c) / (float64(n) * width)
			}
		}
		h.Series[name] = density
		h.Counts[name] = n
	}
	return h, nil
}
