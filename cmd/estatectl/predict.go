// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/estatemap/internal/predict"
)

const predictExample = `  estatectl predict --sector "sector 45" --bedrooms 3 --bathrooms 2 \
    --balcony 2 --age "Relatively New" --area 1500 \
    --furnishing unfurnished --luxury Low --floor "Mid Floor"`

func newPredictCmd(opts *rootOptions) *cobra.Command {
	in := &predict.Input{}
	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Estimate a price range for a property",
		Example: predictExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			predictor, options, err := s.snap.Predictor()
			if err != nil {
				return err
			}
			if verr := in.Validate(options); verr != nil {
				return verr
			}
			est, err := predictor.Estimate(cmd.Context(), in)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), est)
			}
			format := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + " " + est.Unit }
			return writeTable(cmd.OutOrStdout(), []string{"Low", "Estimate", "High"}, [][]string{
				{format(est.Low), format(est.BasePrice), format(est.High)},
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.PropertyType, "type", "flat", "Property type (flat or house)")
	f.StringVar(&in.Sector, "sector", "", "Sector name")
	f.IntVar(&in.Bedrooms, "bedrooms", 2, "Number of bedrooms")
	f.Float64Var(&in.Bathrooms, "bathrooms", 2, "Number of bathrooms")
	f.StringVar(&in.Balcony, "balcony", "", "Balcony category")
	f.StringVar(&in.AgePossession, "age", "", "Age or possession status")
	f.Float64Var(&in.BuiltUpArea, "area", 0, "Built-up area in sq ft")
	f.BoolVar(&in.ServantRoom, "servant-room", false, "Has a servant room")
	f.BoolVar(&in.StoreRoom, "store-room", false, "Has a store room")
	f.StringVar(&in.FurnishingType, "furnishing", "", "Furnishing type")
	f.StringVar(&in.LuxuryCategory, "luxury", "", "Luxury category")
	f.StringVar(&in.FloorCategory, "floor", "", "Floor category")
	return cmd
}
