// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/estatemap/internal/artifacts"
	"github.com/tomtom215/estatemap/internal/cache"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/database"
	"github.com/tomtom215/estatemap/internal/logging"
	"github.com/tomtom215/estatemap/internal/metrics"
)

var (
	// ErrInvalidArgument wraps bad chart parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotLoaded means the listings have not been loaded yet or the last
	// load failed.
	ErrNotLoaded = errors.New("analytics data not loaded")
)

// OverallSector selects every sector in BedroomShare.
const OverallSector = "overall"

// Service answers chart queries from DuckDB and caches the results until
// the next Load.
type Service struct {
	db    *database.DB
	cache *cache.Cache
	cfg   config.AnalyticsConfig

	// generation is part of every cache key so results computed from the
	// previous files are never served after a reload.
	generation atomic.Uint64

	mu     sync.RWMutex
	loaded bool
	words  []WordCount
}

// NewService creates a Service. Call Load before querying.
func NewService(db *database.DB, c *cache.Cache, cfg config.AnalyticsConfig) *Service {
	return &Service{db: db, cache: c, cfg: cfg}
}

// Load ingests the listings CSV, counts words in the feature text and
// drops cached results. On failure the service reports ErrNotLoaded until
// a later Load succeeds.
func (s *Service) Load(ctx context.Context, listingsPath, featureTextPath string) error {
	err := s.load(ctx, listingsPath, featureTextPath)

	s.generation.Add(1)
	s.cache.Clear()
	if err != nil {
		s.mu.Lock()
		s.loaded = false
		s.words = nil
		s.mu.Unlock()
	}
	return err
}

func (s *Service) load(ctx context.Context, listingsPath, featureTextPath string) error {
	text, err := artifacts.ReadText(featureTextPath)
	if err != nil {
		return err
	}
	if _, err := s.db.IngestListings(ctx, listingsPath); err != nil {
		return err
	}
	words := WordFrequencies(text, s.stopwords(), s.cfg.WordLimit)

	s.mu.Lock()
	s.loaded = true
	s.words = words
	s.mu.Unlock()

	logging.Ctx(ctx).Info().Int("distinct_words", len(words)).Msg("Analytics data loaded")
	return nil
}

// Ready reports whether the last Load succeeded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// CacheStatus summarises the result cache.
type CacheStatus struct {
	Keys      int64   `json:"keys"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate_percent"`
}

// CacheStatus reports the result cache counters.
func (s *Service) CacheStatus() CacheStatus {
	st := s.cache.GetStats()
	return CacheStatus{
		Keys:      int64(s.cache.Len()),
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: st.Evictions,
		HitRate:   s.cache.HitRate(),
	}
}

func (s *Service) stopwords() []string {
	if len(s.cfg.Stopwords) == 0 {
		return DefaultStopwords
	}
	return s.cfg.Stopwords
}

func (s *Service) requireLoaded() error {
	if !s.Ready() {
		return ErrNotLoaded
	}
	return nil
}

// cached returns the cached result for query+params or computes and stores
// it.
func cached[T any](s *Service, query string, params any, compute func() (T, error)) (T, error) {
	key := cache.GenerateKey(query, struct {
		Generation uint64
		Params     any
	}{s.generation.Load(), params})

	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			metrics.RecordCacheLookup(query, true)
			return typed, nil
		}
	}
	metrics.RecordCacheLookup(query, false)

	result, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(key, result)
	return result, nil
}

// SectorGeomap returns per-sector means for the price map.
func (s *Service) SectorGeomap(ctx context.Context) ([]database.SectorGeo, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	return cached(s, "sector_geomap", nil, func() ([]database.SectorGeo, error) {
		return s.db.SectorGeoStats(ctx)
	})
}

// AreaPrice returns the scatter points for "flat" or "house".
func (s *Service) AreaPrice(ctx context.Context, propertyType string) ([]database.AreaPricePoint, error) {
	if propertyType != "flat" && propertyType != "house" {
		return nil, fmt.Errorf("%w: property_type must be flat or house, got %q", ErrInvalidArgument, propertyType)
	}
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	return cached(s, "area_price", propertyType, func() ([]database.AreaPricePoint, error) {
		return s.db.AreaPriceScatter(ctx, propertyType)
	})
}

// BedroomShare returns bedroom percentages for one sector, or all sectors
// when sector is empty or "overall", with small shares merged into Others.
func (s *Service) BedroomShare(ctx context.Context, sector string) ([]Slice, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	sector = strings.TrimSpace(sector)
	if strings.EqualFold(sector, OverallSector) {
		sector = ""
	}
	threshold := s.cfg.OthersThreshold
	return cached(s, "bedroom_share", sector, func() ([]Slice, error) {
		counts, err := s.db.BedroomCounts(ctx, sector)
		if err != nil {
			return nil, err
		}
		return BucketOthers(ShareOf(counts), threshold), nil
	})
}

// BHKPriceBox returns price box statistics for up to MaxBedrooms bedrooms.
func (s *Service) BHKPriceBox(ctx context.Context) ([]database.BoxStats, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	maxBedrooms := s.cfg.MaxBedrooms
	return cached(s, "bhk_price_box", maxBedrooms, func() ([]database.BoxStats, error) {
		return s.db.BHKPriceBox(ctx, maxBedrooms)
	})
}

// PriceDistribution returns density histograms of positive prices per
// property type. bins == 0 uses the configured default.
func (s *Service) PriceDistribution(ctx context.Context, bins int) (*Histogram, error) {
	if bins == 0 {
		bins = s.cfg.DefaultBins
	}
	if bins < 1 || (s.cfg.MaxBins > 0 && bins > s.cfg.MaxBins) {
		return nil, fmt.Errorf("%w: bins must be between 1 and %d, got %d", ErrInvalidArgument, s.cfg.MaxBins, bins)
	}
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	return cached(s, "price_distribution", bins, func() (*Histogram, error) {
		samples, err := s.db.PriceSamples(ctx)
		if err != nil {
			return nil, err
		}
		return DensityHistogram(samples, bins)
	})
}

// WordCloud returns the word frequencies counted at Load.
func (s *Service) WordCloud(_ context.Context) ([]WordCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.words, nil
}

// Sectors lists the sectors available to BedroomShare, "overall" first.
func (s *Service) Sectors(ctx context.Context) ([]string, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	return cached(s, "sectors", nil, func() ([]string, error) {
		sectors, err := s.db.Sectors(ctx)
		if err != nil {
			return nil, err
		}
		return append([]string{OverallSector}, sectors...), nil
	})
}
