// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tomtom215/estatemap/internal/recommend"
)

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var topN int
	cmd := &cobra.Command{
		Use:   "recommend <apartment>",
		Short: "List the apartments most similar to one property",
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
			n := topN
			if n == 0 {
				n = s.cfg.Recommend.DefaultTopN
			}
			recs, err := scorer.Recommend(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), lo.Map(recs, func(r recommend.Recommendation, _ int) map[string]any {
					return map[string]any{"name": r.Name, "match_percent": nanToNil(r.MatchPercent)}
				}))
			}
			rows := lo.Map(recs, func(r recommend.Recommendation, i int) []string {
				return []string{strconv.Itoa(i + 1), r.Name, strconv.FormatFloat(r.MatchPercent, 'f', 2, 64) + "%"}
			})
			return writeTable(cmd.OutOrStdout(), []string{"#", "Apartment", "Match"}, rows)
		},
	}
	cmd.Flags().IntVarP(&topN, "top", "n", 0, "Number of results (0 uses RECOMMEND_DEFAULT_TOP_N)")
	return cmd
}
