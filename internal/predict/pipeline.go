// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package predict

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/estatemap/internal/artifacts"
)

// Pipeline maps an Input to log1p(price in crores).
type Pipeline interface {
	Predict(ctx context.Context, in *Input) (float64, error)
}

// NumericTerm standardises a numeric column before applying its
// coefficient.
type NumericTerm struct {
	Coef  float64 `json:"coef"`
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// LinearPipeline is a standardise + one-hot + linear model exported as JSON:
//
//	{
//	  "intercept": 0.41,
//	  "numeric":     {"built_up_area": {"coef": 0.3, "mean": 1500, "scale": 700}},
//	  "categorical": {"sector": {"sector 45": 0.12, "sector 102": -0.05}},
//	  "target": "log1p"
//	}
//
// Unknown categories contribute nothing.
type LinearPipeline struct {
	Intercept   float64                       `json:"intercept"`
	Numeric     map[string]NumericTerm        `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
	Target      string                        `json:"target"`
}

// LoadPipeline reads and checks a LinearPipeline file.
func LoadPipeline(path string) (*LinearPipeline, error) {
	data, err := artifacts.ReadBytes(path)
	if err != nil {
		return nil, err
	}
	var p LinearPipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", artifacts.ErrMalformed, path, err)
	}
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", artifacts.ErrMalformed, path, err)
	}
	return &p, nil
}

// Columns returns every column the pipeline uses, sorted.
func (p *LinearPipeline) Columns() []string {
	cols := make([]string, 0, len(p.Numeric)+len(p.Categorical))
	for c := range p.Numeric {
		cols = append(cols, c)
	}
	for c := range p.Categorical {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (p *LinearPipeline) check() error {
	if p.Target != "" && p.Target != "log1p" {
		return fmt.Errorf("unsupported target transform %q", p.Target)
	}
	if !finite(p.Intercept) {
		return fmt.Errorf("intercept is not finite")
	}
	if len(p.Numeric)+len(p.Categorical) == 0 {
		return fmt.Errorf("no features")
	}
	for col, t := range p.Numeric {
		if !slices.Contains(InputColumns, col) {
			return fmt.Errorf("unknown numeric column %q", col)
		}
		if _, dup := p.Categorical[col]; dup {
			return fmt.Errorf("column %q is both numeric and categorical", col)
		}
		if !finite(t.Coef) || !finite(t.Mean) || !finite(t.Scale) {
			return fmt.Errorf("column %q has a non-finite term", col)
		}
	}
	for col, levels := range p.Categorical {
		if !slices.Contains(InputColumns, col) {
			return fmt.Errorf("unknown categorical column %q", col)
		}
		for level, coef := range levels {
			if !finite(coef) {
				return fmt.Errorf("column %q level %q is not finite", col, level)
			}
		}
	}
	return nil
}

// Predict implements Pipeline.
func (p *LinearPipeline) Predict(ctx context.Context, in *Input) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	features := in.Features()
	y := p.Intercept

	for col, t := range p.Numeric {
		x, err := numeric(features[col])
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", col, err)
		}
		scale := t.Scale
		if scale == 0 {
			scale = 1
		}
		y += t.Coef * (x - t.Mean) / scale
	}
	for col, levels := range p.Categorical {
		y += levels[category(features[col])]
	}

	if !finite(y) {
		return 0, fmt.Errorf("pipeline produced %v", y)
	}
	return y, nil
}

func numeric(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected value %v", v)
	}
}

// category renders a value the way the exporter keys one-hot levels:
// strings verbatim, numbers in shortest form ("3", "2.5").
func category(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
