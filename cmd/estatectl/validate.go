// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/estatemap/internal/catalog"
)

var errFeaturesDisabled = errors.New("one or more features failed to load")

type validateReport struct {
	Dir        string                             `json:"dir"`
	SnapshotID string                             `json:"snapshot_id"`
	Ready      bool                               `json:"ready"`
	Features   map[catalog.Feature]catalog.Status `json:"features"`
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every artifact and report which features are usable",
		Long:  "Loads the artifact directory exactly as the server would at startup and exits non-zero if any feature is disabled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			report := validateReport{
				Dir:        s.cfg.Artifacts.Dir,
				SnapshotID: s.snap.ID,
				Ready:      allReady(s.snap),
				Features:   s.snap.Status(),
			}
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(catalog.Features))
				for _, f := range catalog.Features {
					st := report.Features[f]
					state := "ready"
					if !st.Ready {
						state = "disabled"
					}
					rows = append(rows, []string{string(f), state, st.Error})
				}
				if err := writeTable(out, []string{"Feature", "State", "Error"}, rows); err != nil {
					return err
				}
			}
			if !report.Ready {
				return fmt.Errorf("%w in %s", errFeaturesDisabled, report.Dir)
			}
			return nil
		},
	}
}

// allReady reports whether every feature loaded. Snapshot.Ready is looser:
// the server keeps serving while one feature still works.
func allReady(snap *catalog.Snapshot) bool {
	for _, f := range catalog.Features {
		if snap.Err(f) != nil {
			return false
		}
	}
	return true
}
