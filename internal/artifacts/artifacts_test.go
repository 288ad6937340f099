// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package artifacts

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const distanceCSV = `PropertyName,Sector 45,Cyber Hub,Airport
Tulip Violet,3500,12000,
DLF Camellias,8000,4000.5,15000
Ireo Victory Valley,500,9000,22000
`

func TestLoadDistanceTable(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "location_distance.csv", distanceCSV)
	table, err := LoadDistanceTable(path)
	if err != nil {
		t.Fatalf("LoadDistanceTable() error = %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	if len(table.Columns) != 3 || table.Columns[1] != "Cyber Hub" {
		t.Errorf("Columns = %v", table.Columns)
	}
	row, ok := table.RowIndex("DLF Camellias")
	if !ok || row != 1 {
		t.Fatalf("RowIndex(DLF Camellias) = %d, %v", row, ok)
	}
	col, _ := table.ColumnIndex("Cyber Hub")
	if got := table.Meters(row, col); got != 4000.5 {
		t.Errorf("Meters = %v, want 4000.5", got)
	}
	airport, _ := table.ColumnIndex("Airport")
	if !math.IsNaN(table.Meters(0, airport)) {
		t.Errorf("empty cell should load as NaN, got %v", table.Meters(0, airport))
	}
}

func TestLoadDistanceTableErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"ragged", "n,a,b\nx,1\n", ErrMalformed},
		{"duplicate row", "n,a\nx,1\nx,2\n", ErrMalformed},
		{"not a number", "n,a\nx,far\n", ErrMalformed},
		{"header only name", "n\nx\n", ErrMalformed},
	}
	for _, tt := range tests {
		path := writeFile(t, dir, tt.name+".csv", tt.content)
		if _, err := LoadDistanceTable(path); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}

	if _, err := LoadDistanceTable(filepath.Join(dir, "absent.csv")); !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("absent file: error = %v, want ErrMissingArtifact", err)
	}
}

func TestLoadSimilarityMatrixLayouts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name       string
		content    string
		wantLabels []string
	}{
		{"bare", "1,0.5\n0.5,1\n", nil},
		{"header only", "a,b\n1,0.5\n0.5,1\n", []string{"a", "b"}},
		{"header and index", ",a,b\na,1,0.5\nb,0.5,1\n", []string{"a", "b"}},
		{"index only", "a,1,0.5\nb,0.5,1\n", []string{"a", "b"}},
		{"pandas positional", ",0,1\n0,1.0,0.5\n1,0.5,1.0\n", nil},
		{"pandas named index", ",0,1\na,1.0,0.5\nb,0.5,1.0\n", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, dir, tt.name+".csv", tt.content)
			m, err := LoadSimilarityMatrix(path)
			if err != nil {
				t.Fatalf("LoadSimilarityMatrix() error = %v", err)
			}
			if m.Size() != 2 {
				t.Fatalf("Size() = %d, want 2", m.Size())
			}
			if m.At(0, 1) != 0.5 || m.At(1, 1) != 1 {
				t.Errorf("values = %v", m.Row(0))
			}
			if len(m.Labels) != len(tt.wantLabels) {
				t.Fatalf("Labels = %v, want %v", m.Labels, tt.wantLabels)
			}
			for i := range tt.wantLabels {
				if m.Labels[i] != tt.wantLabels[i] {
					t.Errorf("Labels[%d] = %q, want %q", i, m.Labels[i], tt.wantLabels[i])
				}
			}
		})
	}
}

func TestLoadSimilarityMatrixNotSquare(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "sim.csv", "1,0.5,0.2\n0.5,1,0.1\n")
	if _, err := LoadSimilarityMatrix(path); !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestValidateAlignment(t *testing.T) {
	t.Parallel()

	table, err := NewDistanceTable([]string{"a", "b"}, []string{"loc"}, [][]float64{{1}, {2}})
	if err != nil {
		t.Fatal(err)
	}
	square := [][]float64{{1, 0}, {0, 1}}

	unlabelled, _ := NewMatrix("sim1", nil, square)
	labelled, _ := NewMatrix("sim2", []string{"a", "b"}, square)
	swapped, _ := NewMatrix("sim3", []string{"b", "a"}, square)
	small, _ := NewMatrix("sim4", nil, [][]float64{{1}})

	if err := ValidateAlignment(table, unlabelled, labelled); err != nil {
		t.Errorf("aligned matrices rejected: %v", err)
	}
	if err := ValidateAlignment(table, swapped); !errors.Is(err, ErrIndexMisaligned) {
		t.Errorf("swapped labels: error = %v, want ErrIndexMisaligned", err)
	}
	if err := ValidateAlignment(table, small); !errors.Is(err, ErrIndexMisaligned) {
		t.Errorf("wrong size: error = %v, want ErrIndexMisaligned", err)
	}
}

func TestWeighted(t *testing.T) {
	t.Parallel()

	a, _ := NewMatrix("a", nil, [][]float64{{1, 0.2}, {0.2, 1}})
	b, _ := NewMatrix("b", nil, [][]float64{{1, 0.4}, {0.4, 1}})
	c, _ := NewMatrix("c", nil, [][]float64{{1, 0.6}, {0.6, 1}})

	combined, err := Weighted([]*Matrix{a, b, c}, []float64{0.5, 0.8, 1})
	if err != nil {
		t.Fatalf("Weighted() error = %v", err)
	}
	want := 0.5*0.2 + 0.8*0.4 + 1*0.6
	if got := combined.At(0, 1); math.Abs(got-want) > 1e-12 {
		t.Errorf("At(0,1) = %v, want %v", got, want)
	}
	if _, err := Weighted([]*Matrix{a, b}, []float64{1}); err == nil {
		t.Error("expected error for mismatched weights")
	}
}

func TestEnsureExtracted(t *testing.T) {
	t.Parallel()

	const payload = `{"intercept": 1.5}`

	t.Run("target present", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := writeFile(t, dir, "pipeline.json", payload)
		extracted, err := EnsureExtracted(target, filepath.Join(dir, "pipeline.zip"))
		if err != nil || extracted {
			t.Errorf("EnsureExtracted() = %v, %v; want false, nil", extracted, err)
		}
	})

	t.Run("zip", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		archive := filepath.Join(dir, "pipeline.zip")
		f, err := os.Create(archive)
		if err != nil {
			t.Fatal(err)
		}
		zw := zip.NewWriter(f)
		w, _ := zw.Create("export/readme.txt")
		_, _ = w.Write([]byte("ignored"))
		w, _ = zw.Create("export/model.json")
		_, _ = w.Write([]byte(payload))
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		_ = f.Close()

		target := filepath.Join(dir, "pipeline.json")
		extracted, err := EnsureExtracted(target, archive)
		if err != nil || !extracted {
			t.Fatalf("EnsureExtracted() = %v, %v; want true, nil", extracted, err)
		}
		checkFileContent(t, target, payload)
	})

	t.Run("gzip", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		archive := filepath.Join(dir, "pipeline.json.gz")
		f, err := os.Create(archive)
		if err != nil {
			t.Fatal(err)
		}
		gw := gzip.NewWriter(f)
		_, _ = gw.Write([]byte(payload))
		_ = gw.Close()
		_ = f.Close()

		target := filepath.Join(dir, "pipeline.json")
		if _, err := EnsureExtracted(target, archive); err != nil {
			t.Fatalf("EnsureExtracted() error = %v", err)
		}
		checkFileContent(t, target, payload)
	})

	t.Run("corrupt archive", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		archive := writeFile(t, dir, "pipeline.zip", "PK\x03\x04 this is not a zip")
		_, err := EnsureExtracted(filepath.Join(dir, "pipeline.json"), archive)
		if !errors.Is(err, ErrExtractionFailed) {
			t.Errorf("error = %v, want ErrExtractionFailed", err)
		}
	})

	t.Run("nothing present", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := EnsureExtracted(filepath.Join(dir, "pipeline.json"), filepath.Join(dir, "pipeline.zip"))
		if !errors.Is(err, ErrMissingArtifact) {
			t.Errorf("error = %v, want ErrMissingArtifact", err)
		}
	})
}

func TestReadText(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "feature_text.txt", "lift gym pool")
	text, err := ReadText(path)
	if err != nil || text != "lift gym pool" {
		t.Errorf("ReadText() = %q, %v", text, err)
	}
}

func checkFileContent(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(got) != want {
		t.Errorf("%s = %q, want %q", path, got, want)
	}
}
