// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package testinfra provides shared fixtures for package tests: a small
// but complete artifact directory and a serialised in-memory DuckDB.
package testinfra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/database"
)

// Apartments in the fixture distance table and similarity matrices.
var Apartments = []string{"Tulip Violet", "DLF Camellias", "Ireo Victory Valley", "M3M Golf Estate"}

// Locations in the fixture distance table.
var Locations = []string{"Sector 45", "Cyber Hub", "Airport"}

const listingsCSV = `property_type,society,sector,price,price_per_sqft,built_up_area,bedRoom,latitude,longitude
flat,tulip violet,sector 69,120,8000,1500,3,28.39,77.04
flat,dlf camellias,sector 42,900,30000,3000,4,28.45,77.10
flat,ireo victory valley,sector 67,250,12000,2100,3,28.38,77.07
house,independent,sector 45,400,15000,2700,5,28.43,77.06
flat,m3m golf estate,sector 65,350,14000,2500,3,28.40,77.09
flat,signature,sector 37d,60,5000,1200,2,28.44,76.98
`

const featureText = `Swimming Pool, Club house, Gym, Lift, Power Back-up, Swimming Pool, Gym, Park`

const modelFrameCSV = `property_type,sector,price,bedRoom,bathroom,balcony,agePossession,built_up_area,servant room,store room,furnishing_type,luxury_category,floor_category
flat,sector 69,1.2,3,3,2,Relatively New,1500,0,0,semifurnished,Low,Mid Floor
flat,sector 42,9.0,4,4,3+,Moderately Old,3000,1,1,furnished,High,High Floor
house,sector 45,4.0,5,5,3+,Old Property,2700,1,0,unfurnished,Medium,Low Floor
flat,sector 37d,0.6,2,2,1,New Property,1200,0,0,unfurnished,Low,Low Floor
`

const pipelineJSON = `{
  "intercept": 0.7,
  "numeric": {
    "built_up_area": {"coef": 0.35, "mean": 1800, "scale": 800},
    "bedRoom": {"coef": 0.05, "mean": 3, "scale": 1}
  },
  "categorical": {
    "property_type": {"house": 0.2},
    "luxury_category": {"High": 0.15, "Low": -0.05}
  },
  "target": "log1p"
}`

const distanceCSV = `PropertyName,Sector 45,Cyber Hub,Airport
Tulip Violet,3500,12000,
DLF Camellias,8000,4000.5,15000
Ireo Victory Valley,500,9000,22000
M3M Golf Estate,2600,7000,18000
`

// Similarity rows for Tulip Violet rank DLF Camellias, then Ireo Victory
// Valley, then M3M Golf Estate under the default weights.
const (
	similarityDescription = `1,0.9,0.4,0.1
0.9,1,0.3,0.2
0.4,0.3,1,0.5
0.1,0.2,0.5,1
`
	similarityPriceSize = `1,0.6,0.5,0.2
0.6,1,0.2,0.3
0.5,0.2,1,0.4
0.2,0.3,0.4,1
`
	similarityLocation = `1,0.7,0.6,0.3
0.7,1,0.1,0.2
0.6,0.1,1,0.9
0.3,0.2,0.9,1
`
)

// Artifact file names written by WriteArtifacts.
const (
	ListingsFile         = "data_viz1.csv"
	FeatureTextFile      = "feature_text.txt"
	ModelFrameFile       = "df.csv"
	PipelineFile         = "pipeline.json"
	PipelineArchiveFile  = "pipeline.zip"
	LocationDistanceFile = "location_distance.csv"
)

// SimilarityFiles are the three matrix file names in weight order.
var SimilarityFiles = []string{"cosine_sim1.csv", "cosine_sim2.csv", "cosine_sim3.csv"}

// WriteArtifacts writes a complete artifact set into a new temp directory
// and returns it.
func WriteArtifacts(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		ListingsFile:         listingsCSV,
		FeatureTextFile:      featureText,
		ModelFrameFile:       modelFrameCSV,
		PipelineFile:         pipelineJSON,
		LocationDistanceFile: distanceCSV,
		SimilarityFiles[0]:   similarityDescription,
		SimilarityFiles[1]:   similarityPriceSize,
		SimilarityFiles[2]:   similarityLocation,
	}
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	return dir
}

// WriteFile writes content to dir/name.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// PipelineJSON returns the fixture pipeline document.
func PipelineJSON() string { return pipelineJSON }

// Config returns the default configuration pointed at dir.
func Config(t testing.TB, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Artifacts.Dir = dir
	cfg.Artifacts.Listings = ListingsFile
	cfg.Artifacts.FeatureText = FeatureTextFile
	cfg.Artifacts.ModelFrame = ModelFrameFile
	cfg.Artifacts.Pipeline = PipelineFile
	cfg.Artifacts.PipelineArchive = PipelineArchiveFile
	cfg.Artifacts.LocationDistance = LocationDistanceFile
	cfg.Artifacts.Similarity = append([]string(nil), SimilarityFiles...)
	cfg.Database.Path = ":memory:"
	cfg.Database.Threads = 2
	cfg.Logging.Level = "error"
	return cfg
}

// duckdbSlot serialises DuckDB use across parallel tests in one package.
var duckdbSlot = make(chan struct{}, 1)

// NewDuckDB opens an in-memory database, holding the package-wide slot
// until the test ends so concurrent CGO calls cannot hang under CI load.
func NewDuckDB(t testing.TB) *database.DB {
	t.Helper()

	duckdbSlot <- struct{}{}
	t.Cleanup(func() { <-duckdbSlot })

	type result struct {
		db  *database.DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 2})
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() { _ = res.db.Close() })
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}
