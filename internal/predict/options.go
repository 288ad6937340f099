// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package predict

// DefaultBedrooms is the preselected bedroom count when it lies inside the
// frame's range.
const DefaultBedrooms = 2

// Options are the values a client may offer for each input.
type Options struct {
	PropertyTypes    []string  `json:"property_types"`
	Sectors          []string  `json:"sectors"`
	BedroomMin       int       `json:"bedroom_min"`
	BedroomMax       int       `json:"bedroom_max"`
	BedroomDefault   int       `json:"bedroom_default"`
	Bathrooms        []float64 `json:"bathrooms"`
	Balconies        []string  `json:"balconies"`
	AgePossession    []string  `json:"age_possession"`
	StoreRoom        []float64 `json:"store_room"`
	FurnishingTypes  []string  `json:"furnishing_types"`
	LuxuryCategories []string  `json:"luxury_categories"`
	FloorCategories  []string  `json:"floor_categories"`
}

// FrameValues are the sorted distinct values read from the model frame.
type FrameValues struct {
	Sectors          []string
	Bathrooms        []float64
	Balconies        []string
	AgePossession    []string
	FurnishingTypes  []string
	LuxuryCategories []string
	FloorCategories  []string
	BedroomMin       int
	BedroomMax       int
}

// NewOptions adds the fixed choices to values read from the frame.
func NewOptions(v *FrameValues) *Options {
	def := DefaultBedrooms
	if def < v.BedroomMin {
		def = v.BedroomMin
	}
	if def > v.BedroomMax {
		def = v.BedroomMax
	}
	return &Options{
		PropertyTypes:    []string{"flat", "house"},
		Sectors:          v.Sectors,
		BedroomMin:       v.BedroomMin,
		BedroomMax:       v.BedroomMax,
		BedroomDefault:   def,
		Bathrooms:        v.Bathrooms,
		Balconies:        v.Balconies,
		AgePossession:    v.AgePossession,
		StoreRoom:        []float64{0, 1},
		FurnishingTypes:  v.FurnishingTypes,
		LuxuryCategories: v.LuxuryCategories,
		FloorCategories:  v.FloorCategories,
	}
}
