// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/logging"
)

const defaultWatchDebounce = 2 * time.Second

var errWatcherClosed = errors.New("fsnotify watcher closed")

// Reloader rebuilds and publishes a snapshot. *catalog.Loader satisfies it.
type Reloader interface {
	Reload(ctx context.Context, trigger string) (*catalog.Snapshot, error)
}

// ArtifactWatchService reloads the catalog when a configured artifact file
// in the artifacts directory changes. Bursts of events within the debounce
// window collapse into one reload, and reloads never start more often than
// once per window. Artifacts configured with a path outside the directory
// are not watched. Files a reload extracts from an archive do not trigger
// another reload until someone else modifies them.
type ArtifactWatchService struct {
	reloader Reloader
	dir      string
	files    map[string]struct{}
	debounce time.Duration
	limiter  *rate.Limiter
	log      zerolog.Logger

	// extracted maps base names written by the last reload to their
	// modification time at that point
	extracted map[string]time.Time
}

// NewArtifactWatchService watches cfg.Dir for changes to the artifact files
// cfg names.
func NewArtifactWatchService(cfg config.ArtifactsConfig, reloader Reloader) *ArtifactWatchService {
	debounce := cfg.WatchDebounce
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	dir := filepath.Clean(cfg.Dir)

	names := append([]string{
		cfg.Listings, cfg.FeatureText, cfg.ModelFrame,
		cfg.Pipeline, cfg.PipelineArchive, cfg.LocationDistance,
	}, cfg.Similarity...)
	files := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		path := cfg.Path(name)
		if filepath.Dir(filepath.Clean(path)) == dir {
			files[filepath.Base(path)] = struct{}{}
		}
	}

	return &ArtifactWatchService{
		reloader:  reloader,
		dir:       dir,
		files:     files,
		debounce:  debounce,
		limiter:   rate.NewLimiter(rate.Every(debounce), 1),
		log:       logging.WithComponent("artifact-watch"),
		extracted: make(map[string]time.Time),
	}
}

// relevant reports whether ev touches a watched artifact. Chmod alone does
// not change content.
func (w *ArtifactWatchService) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Dir(filepath.Clean(ev.Name)) != w.dir {
		return false
	}
	name := filepath.Base(ev.Name)
	if _, ok := w.files[name]; !ok {
		return false
	}
	return !w.selfWritten(name, ev.Name)
}

// selfWritten reports whether path still carries the modification time it
// had when the last reload extracted it.
func (w *ArtifactWatchService) selfWritten(name, path string) bool {
	written, ok := w.extracted[name]
	if !ok {
		return false
	}
	if info, err := os.Stat(path); err == nil && info.ModTime().Equal(written) {
		return true
	}
	delete(w.extracted, name)
	return false
}

// rememberExtracted records the files snap's load unpacked.
func (w *ArtifactWatchService) rememberExtracted(paths []string) {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		w.extracted[filepath.Base(path)] = info.ModTime()
	}
}

// Serve implements suture.Service. A watcher error is logged and watching
// continues; failing to start the watcher returns so suture can back off.
func (w *ArtifactWatchService) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create artifact watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info().
		Str("dir", w.dir).
		Int("files", len(w.files)).
		Dur("debounce", w.debounce).
		Msg("Watching artifacts")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return errWatcherClosed
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Artifact changed")
			timer.Reset(w.debounce)
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return errWatcherClosed
			}
			w.log.Warn().Err(err).Str("dir", w.dir).Msg("Artifact watcher error")

		case <-fire:
			fire = nil
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			w.reload(ctx)
		}
	}
}

func (w *ArtifactWatchService) reload(ctx context.Context) {
	snap, err := w.reloader.Reload(ctx, catalog.TriggerWatch)
	w.rememberExtracted(snap.Extracted)
	if err != nil {
		// partial reloads still publish; features report their own state
		w.log.Warn().Err(err).Str("snapshot_id", snap.ID).Msg("Artifact reload left features disabled")
		return
	}
	w.log.Info().Str("snapshot_id", snap.ID).Msg("Artifacts reloaded after change")
}

// String names the service in supervisor logs.
func (w *ArtifactWatchService) String() string {
	return "artifact-watcher"
}
