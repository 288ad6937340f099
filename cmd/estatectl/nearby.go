// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"math"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tomtom215/estatemap/internal/recommend"
)

func newNearbyCmd(opts *rootOptions) *cobra.Command {
	var radiusKm float64
	cmd := &cobra.Command{
		Use:   "nearby <location>",
		Short: "List apartments strictly within a radius of a reference location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			scorer, err := s.snap.Recommender()
			if err != nil {
				return err
			}
			results, err := scorer.Nearby(cmd.Context(), args[0], radiusKm)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			rows := lo.Map(results, func(r recommend.NearbyResult, _ int) []string {
				return []string{r.Name, strconv.Itoa(r.DistanceKm), strconv.FormatFloat(math.Round(r.DistanceMeters), 'f', 0, 64)}
			})
			return writeTable(cmd.OutOrStdout(), []string{"Apartment", "Km", "Metres"}, rows)
		},
	}
	cmd.Flags().Float64VarP(&radiusKm, "radius", "r", 5, "Search radius in kilometres")
	return cmd
}
