// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/cache"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/database"
	"github.com/tomtom215/estatemap/internal/logging"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	dir     string
	jsonOut bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "estatectl",
		Short:        "Estatemap artifact tool",
		Long:         "Validate, unpack and query an Estatemap artifact directory without running the server.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logging.Init(logging.Config{Level: level, Format: "console", Output: cmd.ErrOrStderr()})
		},
	}

	root.PersistentFlags().StringVarP(&opts.dir, "dir", "d", "", "Artifact directory (overrides ARTIFACTS_DIR)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print JSON instead of a table")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging on stderr")

	root.AddCommand(
		newValidateCmd(opts),
		newExtractCmd(opts),
		newRecommendCmd(opts),
		newNearbyCmd(opts),
		newPredictCmd(opts),
	)
	return root
}

// loadConfig reads the same configuration sources as the server, then
// applies --dir. The database always lives in memory.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return nil, err
	}
	if o.dir != "" {
		cfg.Artifacts.Dir = o.dir
	}
	cfg.Database.Path = ":memory:"
	cfg.Artifacts.Watch = false
	return cfg, nil
}

// session is one loaded snapshot plus what must be closed after it.
type session struct {
	cfg  *config.Config
	snap *catalog.Snapshot

	db    *database.DB
	cache *cache.Cache
}

func (o *rootOptions) open(ctx context.Context) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	c := cache.New(cfg.Analytics.CacheTTL)
	loader := catalog.NewLoader(cfg, db, analytics.NewService(db, c, cfg.Analytics))
	// per-feature failures are already logged and recorded in the snapshot
	snap, _ := loader.Reload(ctx, catalog.TriggerStartup)
	return &session{cfg: cfg, snap: snap, db: db, cache: c}, nil
}

func (s *session) Close() {
	s.cache.Close()
	if err := s.db.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing database")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// nanToNil keeps NaN out of JSON output.
func nanToNil(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
