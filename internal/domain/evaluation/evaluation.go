// Package evaluation computes the closed-form quality metrics reported after
// a fit. All functions are pure over (truth, prediction) pairs.
package evaluation

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when truth and prediction differ in length.
var ErrLengthMismatch = errors.New("truth and prediction differ in length")

// ConfusionMatrix counts predictions per actual class. Rows are actual labels,
// columns predicted labels, both ordered like Labels.
type ConfusionMatrix struct {
	Labels []float64 `json:"labels"`
	Counts [][]int   `json:"counts"`
}

// Classification summarises a classifier on one labelled set.
type Classification struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
}

// Regression summarises a regressor on one labelled set.
type Regression struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

func check(truth, pred []float64) error {
	if len(truth) != len(pred) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(truth), len(pred))
	}
	return nil
}

// Accuracy is the share of exact matches; an empty set scores 0.
func Accuracy(truth, pred []float64) (float64, error) {
	if err := check(truth, pred); err != nil {
		return 0, err
	}
	if len(truth) == 0 {
		return 0, nil
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

// Confusion builds the confusion matrix over the sorted union of observed
// actual and predicted labels.
func Confusion(truth, pred []float64) (ConfusionMatrix, error) {
	if err := check(truth, pred); err != nil {
		return ConfusionMatrix{}, err
	}
	seen := make(map[float64]struct{})
	for i := range truth {
		seen[truth[i]] = struct{}{}
		seen[pred[i]] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)
	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i := range truth {
		counts[index[truth[i]]][index[pred[i]]]++
	}
	return ConfusionMatrix{Labels: labels, Counts: counts}, nil
}

// Trace returns the number of correct predictions.
func (m ConfusionMatrix) Trace() int {
	t := 0
	for i := range m.Counts {
		t += m.Counts[i][i]
	}
	return t
}

// Total returns the number of counted pairs.
func (m ConfusionMatrix) Total() int {
	t := 0
	for _, row := range m.Counts {
		for _, c := range row {
			t += c
		}
	}
	return t
}

// Macro returns precision, recall and F1 averaged over the matrix labels.
// A class with an undefined ratio contributes 0.
func (m ConfusionMatrix) Macro() (precision, recall, f1 float64) {
	k := len(m.Labels)
	if k == 0 {
		return 0, 0, 0
	}
	for c := 0; c < k; c++ {
		tp := float64(m.Counts[c][c])
		var predicted, actual float64
		for r := 0; r < k; r++ {
			predicted += float64(m.Counts[r][c])
			actual += float64(m.Counts[c][r])
		}
		var p, r float64
		if predicted > 0 {
			p = tp / predicted
		}
		if actual > 0 {
			r = tp / actual
		}
		precision += p
		recall += r
		if p+r > 0 {
			f1 += 2 * p * r / (p + r)
		}
	}
	n := float64(k)
	return precision / n, recall / n, f1 / n
}

// Classify computes every classification metric at once.
func Classify(truth, pred []float64) (Classification, error) {
	acc, err := Accuracy(truth, pred)
	if err != nil {
		return Classification{}, err
	}
	cm, err := Confusion(truth, pred)
	if err != nil {
		return Classification{}, err
	}
	p, r, f1 := cm.Macro()
	return Classification{Accuracy: acc, Precision: p, Recall: r, F1: f1, Confusion: cm}, nil
}

// MeanSquaredError is the mean of squared residuals; an empty set scores 0.
func MeanSquaredError(truth, pred []float64) (float64, error) {
	if err := check(truth, pred); err != nil {
		return 0, err
	}
	if len(truth) == 0 {
		return 0, nil
	}
	return ssResidual(truth, pred) / float64(len(truth)), nil
}

// R2 is the coefficient of determination 1 - SSres/SStot. A constant truth
// scores 1 when predicted exactly and 0 otherwise.
func R2(truth, pred []float64) (float64, error) {
	if err := check(truth, pred); err != nil {
		return 0, err
	}
	if len(truth) == 0 {
		return 0, nil
	}
	mean := stat.Mean(truth, nil)
	var ssTot float64
	for _, v := range truth {
		ssTot += (v - mean) * (v - mean)
	}
	ssRes := ssResidual(truth, pred)
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// Regress computes every regression metric at once.
func Regress(truth, pred []float64) (Regression, error) {
	mse, err := MeanSquaredError(truth, pred)
	if err != nil {
		return Regression{}, err
	}
	r2, err := R2(truth, pred)
	if err != nil {
		return Regression{}, err
	}
	return Regression{MSE: mse, R2: r2}, nil
}

func ssResidual(truth, pred []float64) float64 {
	diff := make([]float64, len(truth))
	floats.SubTo(diff, truth, pred)
	return floats.Dot(diff, diff)
}
