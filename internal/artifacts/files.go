// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

// Package artifacts reads the precomputed files Estatemap serves from: the
// apartment distance table, the three similarity matrices, the exported
// price pipeline and its optional archive, and the word-cloud text.
//
// Every loader reports a missing file as ErrMissingArtifact so callers can
// disable only the feature that needs it.
package artifacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Resolve returns path if it names an existing regular file.
func Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", missing(path)
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", malformed(path, "is a directory")
	}
	return path, nil
}

// ReadBytes reads a whole artifact into memory.
func ReadBytes(path string) ([]byte, error) {
	if _, err := Resolve(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ReadText reads a UTF-8 text artifact.
func ReadText(path string) (string, error) {
	data, err := ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readCSV opens path and returns every record. Rows may have different
// lengths; callers check shape themselves.
func readCSV(path string) ([][]string, error) {
	if _, err := Resolve(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = false

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(path, "%v", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, malformed(path, "empty file")
	}
	return records, nil
}
