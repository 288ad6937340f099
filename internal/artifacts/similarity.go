// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package artifacts

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Matrix is a square similarity matrix stored row-major.
// Labels is nil when the file carried no labels.
type Matrix struct {
	Name   string
	Labels []string

	n    int
	data []float64
}

// NewMatrix builds a matrix from rows. Every row must have len(rows) values.
func NewMatrix(name string, labels []string, rows [][]float64) (*Matrix, error) {
	n := len(rows)
	m := &Matrix{Name: name, Labels: labels, n: n, data: make([]float64, 0, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return nil, malformed(name, "row %d has %d values, matrix is %dx%d", i, len(row), n, n)
		}
		m.data = append(m.data, row...)
	}
	if labels != nil && len(labels) != n {
		return nil, malformed(name, "%d labels for a %dx%d matrix", len(labels), n, n)
	}
	return m, nil
}

// LoadSimilarityMatrix parses a square CSV matrix. An optional header row
// and an optional leading label column are detected by content: a cell that
// does not parse as a number is a label. The one numeric layout recognised
// is a pandas positional frame: an empty corner cell, column labels 0..n-1
// and an integer row index, which loads unlabelled. Other numeric labels are
// not supported.
func LoadSimilarityMatrix(path string) (*Matrix, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	var header []string
	data := records
	positional := isPositionalHeader(records[0])
	if positional || isHeader(records[0]) {
		header = trimAll(records[0])
		data = records[1:]
	}
	labelColumn := len(data) > 0 && (positional || !isNumeric(data[0][0]))

	n := len(data)
	rows := make([][]float64, n)
	var rowLabels []string
	for i, rec := range data {
		cells := rec
		if labelColumn {
			rowLabels = append(rowLabels, strings.TrimSpace(rec[0]))
			cells = rec[1:]
		}
		if len(cells) != n {
			return nil, malformed(path, "row %d has %d values, matrix is %dx%d", i, len(cells), n, n)
		}
		row := make([]float64, n)
		for j, cell := range cells {
			v, err := parseCell(cell)
			if err != nil {
				return nil, malformed(path, "row %d col %d: %v", i, j, err)
			}
			row[j] = v
		}
		rows[i] = row
	}

	if positional {
		header = nil
		if isRange(rowLabels) {
			rowLabels = nil
		}
	}

	labels := rowLabels
	if labels == nil && header != nil {
		labels = header
		if len(header) == n+1 {
			labels = header[1:]
		}
	}
	if header != nil && rowLabels != nil {
		colLabels := header
		if len(header) == n+1 {
			colLabels = header[1:]
		}
		if !slices.Equal(colLabels, rowLabels) {
			return nil, malformed(path, "column labels differ from row labels")
		}
	}
	return NewMatrix(path, labels, rows)
}

// Size returns the matrix dimension.
func (m *Matrix) Size() int { return m.n }

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Row returns row i. The slice aliases the matrix and must not be modified.
func (m *Matrix) Row(i int) []float64 { return m.data[i*m.n : (i+1)*m.n] }

// Weighted returns sum(w[k]*ms[k]) for matrices of equal size.
func Weighted(ms []*Matrix, weights []float64) (*Matrix, error) {
	if len(ms) == 0 || len(ms) != len(weights) {
		return nil, fmt.Errorf("weighted sum needs one weight per matrix, got %d matrices and %d weights", len(ms), len(weights))
	}
	n := ms[0].n
	out := &Matrix{Name: "combined", Labels: ms[0].Labels, n: n, data: make([]float64, n*n)}
	for k, m := range ms {
		if m.n != n {
			return nil, fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrIndexMisaligned, m.Name, m.n, m.n, n, n)
		}
		w := weights[k]
		for i, v := range m.data {
			out.data[i] += w * v
		}
	}
	return out, nil
}

// ValidateAlignment checks that every matrix is square with one row per
// table row and, where labelled, the same labels in the same order.
func ValidateAlignment(table *DistanceTable, ms ...*Matrix) error {
	n := table.Len()
	for _, m := range ms {
		if m.n != n {
			return fmt.Errorf("%w: %s is %dx%d but the distance table has %d rows",
				ErrIndexMisaligned, m.Name, m.n, m.n, n)
		}
		if m.Labels == nil {
			continue
		}
		for i, label := range m.Labels {
			if label != table.Rows[i] {
				return fmt.Errorf("%w: %s row %d is %q, distance table row %d is %q",
					ErrIndexMisaligned, m.Name, i, label, i, table.Rows[i])
			}
		}
	}
	return nil
}

// isHeader reports whether the first record is a label row. The first cell
// is ignored since it may be the label column's corner or an apartment name.
func isHeader(rec []string) bool {
	if len(rec) == 1 {
		return !isNumeric(rec[0])
	}
	for _, cell := range rec[1:] {
		if !isNumeric(cell) {
			return true
		}
	}
	return false
}

// isPositionalHeader reports whether rec is the header pandas writes for a
// frame with default integer columns: an empty corner then 0, 1, 2, ...
func isPositionalHeader(rec []string) bool {
	return len(rec) > 1 && strings.TrimSpace(rec[0]) == "" && isRange(trimAll(rec[1:]))
}

// isRange reports whether cells are exactly "0", "1", ..., len-1.
func isRange(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for i, c := range cells {
		if c != strconv.Itoa(i) {
			return false
		}
	}
	return true
}
