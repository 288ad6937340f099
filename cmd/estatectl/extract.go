// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/estatemap/internal/artifacts"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Unpack the pipeline archive if the pipeline file is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			target := cfg.Artifacts.Path(cfg.Artifacts.Pipeline)
			archive := cfg.Artifacts.Path(cfg.Artifacts.PipelineArchive)

			extracted, err := artifacts.EnsureExtracted(target, archive)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, map[string]any{"target": target, "extracted": extracted})
			}
			if extracted {
				_, err = fmt.Fprintf(out, "extracted %s from %s\n", target, archive)
			} else {
				_, err = fmt.Fprintf(out, "%s already present\n", target)
			}
			return err
		},
	}
}
