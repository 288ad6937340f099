// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package predict turns a property description into an estimated price
// range using an exported regression pipeline.
package predict

import (
	"fmt"

	"github.com/tomtom215/estatemap/internal/validation"
)

// Model frame column names, in the order the pipeline was trained on.
const (
	ColPropertyType   = "property_type"
	ColSector         = "sector"
	ColBedrooms       = "bedRoom"
	ColBathrooms      = "bathroom"
	ColBalcony        = "balcony"
	ColAgePossession  = "agePossession"
	ColBuiltUpArea    = "built_up_area"
	ColServantRoom    = "servant room"
	ColStoreRoom      = "store room"
	ColFurnishingType = "furnishing_type"
	ColLuxuryCategory = "luxury_category"
	ColFloorCategory  = "floor_category"
)

// InputColumns lists every column a pipeline may reference.
var InputColumns = []string{
	ColPropertyType, ColSector, ColBedrooms, ColBathrooms, ColBalcony,
	ColAgePossession, ColBuiltUpArea, ColServantRoom, ColStoreRoom,
	ColFurnishingType, ColLuxuryCategory, ColFloorCategory,
}

// Input is one property to price.
type Input struct {
	PropertyType   string  `json:"property_type" validate:"required,oneof=flat house"`
	Sector         string  `json:"sector" validate:"required,max=128"`
	Bedrooms       int     `json:"bedrooms" validate:"min=0"`
	Bathrooms      float64 `json:"bathrooms" validate:"finite,gte=0"`
	Balcony        string  `json:"balcony" validate:"required,max=32"`
	AgePossession  string  `json:"age_possession" validate:"required,max=64"`
	BuiltUpArea    float64 `json:"built_up_area" validate:"finite,gt=0"`
	ServantRoom    bool    `json:"servant_room"`
	StoreRoom      bool    `json:"store_room"`
	FurnishingType string  `json:"furnishing_type" validate:"required,max=64"`
	LuxuryCategory string  `json:"luxury_category" validate:"required,max=64"`
	FloorCategory  string  `json:"floor_category" validate:"required,max=64"`
}

// Features returns the input keyed by model column. Numeric columns hold
// float64, categorical columns hold string.
func (in *Input) Features() map[string]any {
	return map[string]any{
		ColPropertyType:   in.PropertyType,
		ColSector:         in.Sector,
		ColBedrooms:       float64(in.Bedrooms),
		ColBathrooms:      in.Bathrooms,
		ColBalcony:        in.Balcony,
		ColAgePossession:  in.AgePossession,
		ColBuiltUpArea:    in.BuiltUpArea,
		ColServantRoom:    flag(in.ServantRoom),
		ColStoreRoom:      flag(in.StoreRoom),
		ColFurnishingType: in.FurnishingType,
		ColLuxuryCategory: in.LuxuryCategory,
		ColFloorCategory:  in.FloorCategory,
	}
}

// Validate checks struct tags and then the bedroom range from opts. A nil
// opts skips the range check.
func (in *Input) Validate(opts *Options) *validation.RequestValidationError {
	if verr := validation.ValidateStruct(in); verr != nil {
		return verr
	}
	if opts == nil || opts.BedroomMax < opts.BedroomMin {
		return nil
	}
	if in.Bedrooms < opts.BedroomMin || in.Bedrooms > opts.BedroomMax {
		return validation.NewFieldError(
			"bedrooms", "range",
			fmt.Sprintf("%d-%d", opts.BedroomMin, opts.BedroomMax),
			in.Bedrooms,
			fmt.Sprintf("bedrooms must be between %d and %d", opts.BedroomMin, opts.BedroomMax),
		)
	}
	return nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
