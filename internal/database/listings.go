// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SectorGeo is the mean of each numeric listing column for one sector.
type SectorGeo struct {
	Sector       string  `json:"sector"`
	Price        float64 `json:"price"`
	PricePerSqft float64 `json:"price_per_sqft"`
	BuiltUpArea  float64 `json:"built_up_area"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// AreaPricePoint is one listing on the area/price scatter.
type AreaPricePoint struct {
	BuiltUpArea float64 `json:"built_up_area"`
	Price       float64 `json:"price"`
	Bedrooms    float64 `json:"bedrooms"`
}

// BedroomCount is the number of listings with a given bedroom count.
type BedroomCount struct {
	Bedrooms float64 `json:"bedrooms"`
	Count    int64   `json:"count"`
}

// BoxStats summarises prices for one bedroom count.
type BoxStats struct {
	Bedrooms float64 `json:"bedrooms"`
	Count    int64   `json:"count"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
}

func (db *DB) requireTable(ctx context.Context, table string) error {
	ok, err := db.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotIngested, table)
	}
	return nil
}

// SectorGeoStats averages price, price per sqft, area and coordinates per
// sector. Sectors without coordinates are omitted since they cannot be
// placed on a map.
func (db *DB) SectorGeoStats(ctx context.Context) (result []SectorGeo, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("sector_geo_stats", start, err) }(time.Now())

	if err := db.requireTable(ctx, tableListings); err != nil {
		return nil, err
	}

	query := `
		SELECT
			sector,
			COALESCE(AVG(price), 0),
			COALESCE(AVG(price_per_sqft), 0),
			COALESCE(AVG(built_up_area), 0),
			AVG(latitude),
			AVG(longitude)
		FROM listings
		WHERE sector IS NOT NULL
		GROUP BY sector
		HAVING AVG(latitude) IS NOT NULL AND AVG(longitude) IS NOT NULL
		ORDER BY sector`

	result, err = queryAndScan(ctx, db.conn, query, nil, func(rows *sql.Rows) (SectorGeo, error) {
		var s SectorGeo
		err := rows.Scan(&s.Sector, &s.Price, &s.PricePerSqft, &s.BuiltUpArea, &s.Latitude, &s.Longitude)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query sector stats: %w", err)
	}
	return result, nil
}

// AreaPriceScatter returns area, price and bedrooms of every listing of
// propertyType in file order.
func (db *DB) AreaPriceScatter(ctx context.Context, propertyType string) (result []AreaPricePoint, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("area_price_scatter", start, err) }(time.Now())

	if err := db.requireTable(ctx, tableListings); err != nil {
		return nil, err
	}

	qb := newQueryBuilder(`
		SELECT built_up_area, price, bedrooms
		FROM listings
		WHERE built_up_area IS NOT NULL AND price IS NOT NULL AND bedrooms IS NOT NULL`).
		addPropertyTypeFilter(propertyType)
	query, args := qb.build("ORDER BY row_id")

	result, err = queryAndScan(ctx, db.conn, query, args, func(rows *sql.Rows) (AreaPricePoint, error) {
		var p AreaPricePoint
		err := rows.Scan(&p.BuiltUpArea, &p.Price, &p.Bedrooms)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query area/price points: %w", err)
	}
	return result, nil
}

// BedroomCounts counts listings per bedroom count, most common first, for
// one sector or all of them when sector is empty.
func (db *DB) BedroomCounts(ctx context.Context, sector string) (result []BedroomCount, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("bedroom_counts", start, err) }(time.Now())

	if err := db.requireTable(ctx, tableListings); err != nil {
		return nil, err
	}

	qb := newQueryBuilder(`
		SELECT bedrooms, COUNT(*) AS n
		FROM listings
		WHERE bedrooms IS NOT NULL`).
		addSectorFilter(sector)
	query, args := qb.build("GROUP BY bedrooms ORDER BY n DESC, bedrooms")

	result, err = queryAndScan(ctx, db.conn, query, args, func(rows *sql.Rows) (BedroomCount, error) {
		var c BedroomCount
		err := rows.Scan(&c.Bedrooms, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count bedrooms: %w", err)
	}
	if len(result) == 0 && sector != "" {
		return nil, fmt.Errorf("%w: %q", ErrSectorNotFound, sector)
	}
	return result, nil
}

// BHKPriceBox returns five-number price summaries per bedroom count for
// listings with at most maxBedrooms bedrooms.
func (db *DB) BHKPriceBox(ctx context.Context, maxBedrooms int) (result []BoxStats, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("bhk_price_box", start, err) }(time.Now())

	if err := db.requireTable(ctx, tableListings); err != nil {
		return nil, err
	}

	qb := newQueryBuilder(`
		SELECT
			bedrooms,
			COUNT(*),
			MIN(price),
			quantile_cont(price, 0.25),
			quantile_cont(price, 0.5),
			quantile_cont(price, 0.75),
			MAX(price)
		FROM listings
		WHERE bedrooms IS NOT NULL AND price IS NOT NULL`).
		addMaxBedroomsFilter(maxBedrooms)
	query, args := qb.build("GROUP BY bedrooms ORDER BY bedrooms")

	result, err = queryAndScan(ctx, db.conn, query, args, func(rows *sql.Rows) (BoxStats, error) {
		var b BoxStats
		err := rows.Scan(&b.Bedrooms, &b.Count, &b.Min, &b.Q1, &b.Median, &b.Q3, &b.Max)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query price box stats: %w", err)
	}
	return result, nil
}

// PriceSamples returns positive prices grouped by property type.
func (db *DB) PriceSamples(ctx context.Context) (result map[string][]float64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("price_samples", start, err) }(time.Now())

	if err := db.requireTable(ctx, tableListings); err != nil {
		return nil, err
	}

	type sample struct {
		propertyType string
		price        float64
	}
	query := `
		SELECT property_type, price
		FROM listings
		WHERE price > 0 AND property_type IS NOT NULL
		ORDER BY property_type, row_id`

	samples, err := queryAndScan(ctx, db.conn, query, nil, func(rows *sql.Rows) (sample, error) {
		var s sample
		err := rows.Scan(&s.propertyType, &s.price)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}

	result = make(map[string][]float64)
	for _, s := range samples {
		result[s.propertyType] = append(result[s.propertyType], s.price)
	}
	return result, nil
}

// Sectors returns the distinct listing sectors in file order of first
// appearance.
func (db *DB) Sectors(ctx context.Context) (result []string, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("sectors", start, err) }(time.Now())

	if err := db.requireTable(ctx, tableListings); err != nil {
		return nil, err
	}

	query := `
		SELECT sector
		FROM listings
		WHERE sector IS NOT NULL
		GROUP BY sector
		ORDER BY MIN(row_id)`

	result, err = queryAndScan(ctx, db.conn, query, nil, func(rows *sql.Rows) (string, error) {
		var s string
		err := rows.Scan(&s)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	return result, nil
}
