// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package artifacts

import (
	"math"
	"strconv"
	"strings"
)

// DistanceTable holds the distance in metres from every apartment (row) to
// every reference location (column). Row order is the index order shared
// with the similarity matrices.
type DistanceTable struct {
	Rows    []string
	Columns []string

	meters   [][]float64
	rowIndex map[string]int
	colIndex map[string]int
}

// NewDistanceTable builds a table from in-memory values. meters must have
// len(rows) rows of len(columns) values each.
func NewDistanceTable(rows, columns []string, meters [][]float64) (*DistanceTable, error) {
	t := &DistanceTable{
		Rows:     rows,
		Columns:  columns,
		meters:   meters,
		rowIndex: make(map[string]int, len(rows)),
		colIndex: make(map[string]int, len(columns)),
	}
	if len(meters) != len(rows) {
		return nil, malformed("distance table", "%d rows but %d value rows", len(rows), len(meters))
	}
	for i, name := range rows {
		if _, dup := t.rowIndex[name]; dup {
			return nil, malformed("distance table", "duplicate row %q", name)
		}
		if len(meters[i]) != len(columns) {
			return nil, malformed("distance table", "row %q has %d values, want %d", name, len(meters[i]), len(columns))
		}
		t.rowIndex[name] = i
	}
	for j, name := range columns {
		if _, dup := t.colIndex[name]; dup {
			return nil, malformed("distance table", "duplicate column %q", name)
		}
		t.colIndex[name] = j
	}
	return t, nil
}

// LoadDistanceTable parses a CSV whose header is a corner cell followed by
// location names and whose rows are an apartment name followed by metres.
// Empty cells are read as NaN and never match a radius search.
func LoadDistanceTable(path string) (*DistanceTable, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	header := records[0]
	if len(header) < 2 {
		return nil, malformed(path, "header needs a name column and at least one location")
	}
	columns := trimAll(header[1:])

	rows := make([]string, 0, len(records)-1)
	meters := make([][]float64, 0, len(records)-1)
	for line, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, malformed(path, "line %d has %d fields, want %d", line+2, len(rec), len(header))
		}
		values := make([]float64, len(columns))
		for j, cell := range rec[1:] {
			v, err := parseCell(cell)
			if err != nil {
				return nil, malformed(path, "line %d column %q: %v", line+2, columns[j], err)
			}
			values[j] = v
		}
		rows = append(rows, strings.TrimSpace(rec[0]))
		meters = append(meters, values)
	}

	return NewDistanceTable(rows, columns, meters)
}

// Len returns the number of apartments.
func (t *DistanceTable) Len() int { return len(t.Rows) }

// RowIndex returns the position of an apartment.
func (t *DistanceTable) RowIndex(name string) (int, bool) {
	i, ok := t.rowIndex[name]
	return i, ok
}

// ColumnIndex returns the position of a reference location.
func (t *DistanceTable) ColumnIndex(name string) (int, bool) {
	j, ok := t.colIndex[name]
	return j, ok
}

// Meters returns the distance from apartment row to location col.
func (t *DistanceTable) Meters(row, col int) float64 {
	return t.meters[row][col]
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func isNumeric(cell string) bool {
	_, err := parseCell(cell)
	return err == nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
