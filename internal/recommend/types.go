// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package recommend

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEntityNotFound means the requested apartment is not in the index.
	ErrEntityNotFound = errors.New("apartment not found")

	// ErrLocationNotFound means the requested reference location is not a
	// column of the distance table.
	ErrLocationNotFound = errors.New("location not found")

	// ErrInvalidArgument wraps caller mistakes such as a negative result count.
	ErrInvalidArgument = errors.New("invalid argument")
)

// DefaultTopN is used when a caller passes 0.
const DefaultTopN = 5

// Weights are the coefficients of the three similarity matrices in the
// combined score.
type Weights struct {
	Description float64 `json:"description"` // facilities and description text
	PriceSize   float64 `json:"price_size"`  // price and area features
	Location    float64 `json:"location"`    // location advantages
}

// DefaultWeights returns 0.5, 0.8 and 1.0.
func DefaultWeights() Weights {
	return Weights{Description: 0.5, PriceSize: 0.8, Location: 1.0}
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"description": w.Description,
		"price_size":  w.PriceSize,
		"location":    w.Location,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %s = %v", ErrInvalidArgument, name, v)
		}
	}
	return nil
}

func (w Weights) slice() []float64 {
	return []float64{w.Description, w.PriceSize, w.Location}
}

// Recommendation is one similar apartment.
type Recommendation struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	MatchPercent float64 `json:"match_percent"`
}

// NearbyResult is one apartment within the search radius of a location.
type NearbyResult struct {
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distance_meters"`
	DistanceKm     int     `json:"distance_km"`
}

// MatchPercent converts a combined score to a percentage with two decimals.
// 0.8234 becomes 82.34.
func MatchPercent(score float64) float64 {
	return math.Round(score*100*100) / 100
}

// RoundKm converts metres to whole kilometres, rounding halves to even.
func RoundKm(meters float64) int {
	return int(math.RoundToEven(meters / 1000))
}
