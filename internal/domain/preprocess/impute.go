// Package preprocess holds the per-column statistics learned from a training
// table and reapplied, unchanged, to inference tables.
package preprocess

import (
	"math"
	"sort"
)

// MissingLabel fills categorical feature cells that have no value.
const MissingLabel = "missing"

// Median returns the median of the non-NaN values, averaging the two middle
// values for an even count. A column with no observed value yields 0.
func Median(values []float64) float64 {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	n := len(observed)
	if n == 0 {
		return 0
	}
	sort.Float64s(observed)
	if n%2 == 1 {
		return observed[n/2]
	}
	return (observed[n/2-1] + observed[n/2]) / 2
}

// Mode returns the most frequent present label. Ties go to the
// lexicographically smallest label; ok is false when nothing is present.
func Mode(labels []string, missing []bool) (string, bool) {
	counts := make(map[string]int)
	for i, l := range labels {
		if missing != nil && missing[i] {
			continue
		}
		counts[l]++
	}
	best, bestN := "", 0
	for l, n := range counts {
		if n > bestN || (n == bestN && l < best) {
			best, bestN = l, n
		}
	}
	return best, bestN > 0
}

// ModeFloat returns the most frequent non-NaN value, ties going to the
// smallest one; ok is false when nothing is present.
func ModeFloat(values []float64) (float64, bool) {
	counts := make(map[float64]int)
	for _, v := range values {
		if !math.IsNaN(v) {
			counts[v]++
		}
	}
	best, bestN := 0.0, 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}

// FillNaN returns a copy of values with NaN replaced by fill.
func FillNaN(values []float64, fill float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = fill
		} else {
			out[i] = v
		}
	}
	return out
}

// NumericImputer replaces NaN with a median learned at fit time.
type NumericImputer struct {
	Fill   float64 `json:"fill"`
	fitted bool
}

// FitNumeric learns the median of values.
func FitNumeric(values []float64) *NumericImputer {
	return &NumericImputer{Fill: Median(values), fitted: true}
}

// Transform returns a copy of values with NaN replaced by the learned fill.
func (m *NumericImputer) Transform(values []float64) ([]float64, error) {
	if m == nil || !m.fitted {
		return nil, ErrNotFitted
	}
	return FillNaN(values, m.Fill), nil
}

// CategoricalImputer replaces missing labels with a fixed fill label.
type CategoricalImputer struct {
	Fill string `json:"fill"`
}

// Transform returns a copy of labels with missing entries replaced.
func (m CategoricalImputer) Transform(labels []string, missing []bool) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		if missing[i] {
			out[i] = m.Fill
		} else {
			out[i] = l
		}
	}
	return out
}
