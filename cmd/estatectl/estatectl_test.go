// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/recommend"
	"github.com/tomtom215/estatemap/internal/testinfra"
)

// run executes estatectl with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestValidate(t *testing.T) {
	dir := testinfra.WriteArtifacts(t)

	out, err := run(t, "validate", "--dir", dir, "--json")
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	var report validateReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if !report.Ready || len(report.Features) != 3 {
		t.Errorf("report = %+v", report)
	}

	if err := os.Remove(filepath.Join(dir, testinfra.PipelineFile)); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "validate", "--dir", dir)
	if !errors.Is(err, errFeaturesDisabled) {
		t.Fatalf("validate without pipeline error = %v", err)
	}
	if !strings.Contains(out, "predictor") || !strings.Contains(out, "disabled") {
		t.Errorf("table should flag the predictor:\n%s", out)
	}

	out, err = run(t, "validate", "--dir", dir, "--json")
	if !errors.Is(err, errFeaturesDisabled) {
		t.Fatalf("validate --json without pipeline error = %v", err)
	}
	report = validateReport{}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Ready {
		t.Error("report.Ready = true with the predictor disabled")
	}
	if !report.Features[catalog.FeatureAnalytics].Ready || report.Features[catalog.FeaturePredictor].Ready {
		t.Errorf("features = %+v", report.Features)
	}
}

func TestRecommendAndNearby(t *testing.T) {
	dir := testinfra.WriteArtifacts(t)

	out, err := run(t, "recommend", "Tulip Violet", "-n", "1", "--dir", dir, "--json")
	if err != nil {
		t.Fatalf("recommend error = %v", err)
	}
	var recs []map[string]any
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(recs) != 1 || recs[0]["name"] != "DLF Camellias" {
		t.Errorf("recommendations = %v", recs)
	}

	if _, err := run(t, "recommend", "Nowhere", "--dir", dir); !errors.Is(err, recommend.ErrEntityNotFound) {
		t.Errorf("unknown apartment error = %v", err)
	}

	out, err = run(t, "nearby", "Sector 45", "-r", "3", "--dir", dir, "--json")
	if err != nil {
		t.Fatalf("nearby error = %v", err)
	}
	var near []recommend.NearbyResult
	if err := json.Unmarshal([]byte(out), &near); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(near) != 2 || near[0].Name != "Ireo Victory Valley" || near[1].DistanceKm != 3 {
		t.Errorf("nearby = %+v", near)
	}

	out, err = run(t, "nearby", "Sector 45", "-r", "3", "--dir", dir)
	if err != nil {
		t.Fatalf("nearby table error = %v", err)
	}
	if !strings.Contains(out, "M3M Golf Estate") {
		t.Errorf("table output missing apartment:\n%s", out)
	}
}

func TestExtract(t *testing.T) {
	dir := testinfra.WriteArtifacts(t)

	out, err := run(t, "extract", "--dir", dir)
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if !strings.Contains(out, "already present") {
		t.Errorf("extract output = %q", out)
	}

	empty := t.TempDir()
	if _, err := run(t, "extract", "--dir", empty); err == nil {
		t.Error("extract with neither pipeline nor archive should fail")
	}
}
