// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package predict

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/estatemap/internal/artifacts"
)

const testPipelineJSON = `{
  "intercept": 0.5,
  "numeric": {
    "built_up_area": {"coef": 0.2, "mean": 1000, "scale": 500},
    "bedRoom": {"coef": 0.1, "mean": 3, "scale": 0}
  },
  "categorical": {
    "property_type": {"house": 0.3},
    "sector": {"sector 45": 0.25, "sector 102": -0.1}
  },
  "target": "log1p"
}`

func validInput() *Input {
	return &Input{
		PropertyType:   "flat",
		Sector:         "sector 45",
		Bedrooms:       3,
		Bathrooms:      2,
		Balcony:        "3+",
		AgePossession:  "New Property",
		BuiltUpArea:    1500,
		FurnishingType: "semifurnished",
		LuxuryCategory: "Low",
		FloorCategory:  "Mid Floor",
	}
}

func writePipeline(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	return path
}

func checkClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestLinearPipelinePredict(t *testing.T) {
	t.Parallel()

	p, err := LoadPipeline(writePipeline(t, testPipelineJSON))
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}

	// 0.5 + 0.2*(1500-1000)/500 + 0.1*(3-3)/1 + 0 (flat unknown) + 0.25
	got, err := p.Predict(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	checkClose(t, "prediction", got, 0.95)

	unknown := validInput()
	unknown.Sector = "sector 999"
	got, err = p.Predict(context.Background(), unknown)
	if err != nil {
		t.Fatalf("Predict(unknown sector) error = %v", err)
	}
	checkClose(t, "unknown sector prediction", got, 0.7)

	want := []string{"bedRoom", "built_up_area", "property_type", "sector"}
	cols := p.Columns()
	if len(cols) != len(want) {
		t.Fatalf("Columns() = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("Columns()[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
}

func TestLoadPipelineErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadPipeline(filepath.Join(t.TempDir(), "absent.json")); !errors.Is(err, artifacts.ErrMissingArtifact) {
		t.Errorf("missing file: error = %v, want ErrMissingArtifact", err)
	}

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"bad target", `{"intercept":0,"numeric":{"bedRoom":{"coef":1,"mean":0,"scale":1}},"target":"log"}`},
		{"unknown column", `{"intercept":0,"numeric":{"parking":{"coef":1,"mean":0,"scale":1}}}`},
		{"no features", `{"intercept":1}`},
		{"both kinds", `{"intercept":0,"numeric":{"sector":{"coef":1,"mean":0,"scale":1}},"categorical":{"sector":{"a":1}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadPipeline(writePipeline(t, tt.body)); !errors.Is(err, artifacts.ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestPriceRange(t *testing.T) {
	t.Parallel()

	est := PriceRange(math.Log1p(1.5), DefaultPriceBand)
	checkClose(t, "BasePrice", est.BasePrice, 1.5)
	checkClose(t, "Low", est.Low, 1.28)
	checkClose(t, "High", est.High, 1.72)
	if est.Unit != "Cr" {
		t.Errorf("Unit = %q", est.Unit)
	}
}

type pipelineFunc func(context.Context, *Input) (float64, error)

func (f pipelineFunc) Predict(ctx context.Context, in *Input) (float64, error) { return f(ctx, in) }

func testBreaker(name string) BreakerSettings {
	return BreakerSettings{Name: name, MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, Failures: 2}
}

func TestPredictorEstimate(t *testing.T) {
	t.Parallel()

	p := NewPredictor(pipelineFunc(func(context.Context, *Input) (float64, error) {
		return math.Log1p(2), nil
	}), DefaultPriceBand, time.Second, testBreaker("test-ok"))

	est, err := p.Estimate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	checkClose(t, "Low", est.Low, 1.78)
	checkClose(t, "High", est.High, 2.22)
	if p.Band() != DefaultPriceBand {
		t.Errorf("Band() = %v", p.Band())
	}
}

func TestPredictorBand(t *testing.T) {
	t.Parallel()

	two := pipelineFunc(func(context.Context, *Input) (float64, error) { return math.Log1p(2), nil })
	tests := []struct {
		name     string
		band     float64
		wantBand float64
		wantLow  float64
		wantHigh float64
	}{
		{"zero gives a point estimate", 0, 0, 2, 2},
		{"custom", 0.5, 0.5, 1.5, 2.5},
		{"negative falls back", -1, DefaultPriceBand, 1.78, 2.22},
		{"NaN falls back", math.NaN(), DefaultPriceBand, 1.78, 2.22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewPredictor(two, tt.band, time.Second, testBreaker("test-band-"+tt.name))
			if p.Band() != tt.wantBand {
				t.Errorf("Band() = %v, want %v", p.Band(), tt.wantBand)
			}
			est, err := p.Estimate(context.Background(), validInput())
			if err != nil {
				t.Fatalf("Estimate() error = %v", err)
			}
			checkClose(t, "Low", est.Low, tt.wantLow)
			checkClose(t, "High", est.High, tt.wantHigh)
		})
	}
}

func TestPredictorFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   pipelineFunc
	}{
		{"error", func(context.Context, *Input) (float64, error) { return 0, errors.New("bad shape") }},
		{"panic", func(context.Context, *Input) (float64, error) { panic("index out of range") }},
		{"timeout", func(ctx context.Context, _ *Input) (float64, error) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return 1, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewPredictor(tt.fn, 0, 20*time.Millisecond, testBreaker("test-"+tt.name))
			if _, err := p.Estimate(context.Background(), validInput()); !errors.Is(err, ErrInferenceFailed) {
				t.Errorf("Estimate() error = %v, want ErrInferenceFailed", err)
			}
		})
	}
}

func TestPredictorOpensCircuit(t *testing.T) {
	t.Parallel()

	calls := 0
	p := NewPredictor(pipelineFunc(func(context.Context, *Input) (float64, error) {
		calls++
		return 0, errors.New("model unavailable")
	}), 0, 0, testBreaker("test-open"))

	for range 2 {
		_, _ = p.Estimate(context.Background(), validInput())
	}
	if p.State() != "open" {
		t.Fatalf("State() = %q, want open", p.State())
	}
	_, err := p.Estimate(context.Background(), validInput())
	if !errors.Is(err, ErrInferenceFailed) {
		t.Errorf("rejected call error = %v, want ErrInferenceFailed", err)
	}
	if calls != 2 {
		t.Errorf("pipeline called %d times, want 2", calls)
	}
}

func TestInputValidate(t *testing.T) {
	t.Parallel()

	opts := NewOptions(&FrameValues{BedroomMin: 1, BedroomMax: 4})
	if opts.BedroomDefault != 2 {
		t.Errorf("BedroomDefault = %d, want 2", opts.BedroomDefault)
	}
	if len(opts.StoreRoom) != 2 || len(opts.PropertyTypes) != 2 {
		t.Errorf("fixed options = %+v", opts)
	}

	if verr := validInput().Validate(opts); verr != nil {
		t.Fatalf("valid input rejected: %v", verr)
	}

	tooMany := validInput()
	tooMany.Bedrooms = 5
	verr := tooMany.Validate(opts)
	if verr == nil {
		t.Fatal("bedrooms above max accepted")
	}
	if got := verr.ToAPIError().Details["field"]; got != "bedrooms" {
		t.Errorf("field = %v, want bedrooms", got)
	}

	villa := validInput()
	villa.PropertyType = "villa"
	if villa.Validate(nil) == nil {
		t.Error("property_type villa accepted")
	}

	zeroArea := validInput()
	zeroArea.BuiltUpArea = 0
	if zeroArea.Validate(opts) == nil {
		t.Error("zero built_up_area accepted")
	}

	narrow := NewOptions(&FrameValues{BedroomMin: 3, BedroomMax: 6})
	if narrow.BedroomDefault != 3 {
		t.Errorf("BedroomDefault clamp = %d, want 3", narrow.BedroomDefault)
	}
}

func TestFeaturesFlags(t *testing.T) {
	t.Parallel()

	in := validInput()
	in.StoreRoom = true
	f := in.Features()
	if f[ColStoreRoom] != 1.0 || f[ColServantRoom] != 0.0 {
		t.Errorf("flags = %v/%v", f[ColStoreRoom], f[ColServantRoom])
	}
	if len(f) != len(InputColumns) {
		t.Errorf("Features() has %d columns, want %d", len(f), len(InputColumns))
	}
}
