// Package trainer is the generic tabular pipeline: it prepares an uploaded
// table, fits a tree ensemble for the chosen problem type, scores it and
// applies it to further tables with the exact statistics learned at fit time.
package trainer

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/scoutlab/internal/domain/dataset"
	"github.com/okian/scoutlab/internal/domain/evaluation"
	"github.com/okian/scoutlab/internal/domain/forest"
)

// PredictionColumn names the column appended by Run.Predict.
const PredictionColumn = "prediction"

// Metrics holds whichever scores apply to the run's problem type.
type Metrics struct {
	Classification *evaluation.Classification `json:"classification,omitempty"`
	Regression     *evaluation.Regression     `json:"regression,omitempty"`
}

// Run is one fitted model together with the schema it was trained under.
// A Run is immutable and safe for concurrent use.
type Run struct {
	schema *Schema
	model  forest.Model
	fitted []float64
	rows   int

	// Metrics are computed on the full training set.
	Metrics Metrics
	// Holdout is set only when a holdout fraction was requested.
	Holdout *Metrics
}

// Train fits a model on every prepared row and scores it on the same rows.
func Train(p *Prepared, opts ...Option) (*Run, error) {
	cfg := newConfig(opts)
	if cfg.holdout < 0 || cfg.holdout >= 1 || math.IsNaN(cfg.holdout) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHoldout, cfg.holdout)
	}

	fitOpts := cfg.forest
	if cfg.progress != nil {
		fitOpts = append(append([]forest.Option(nil), cfg.forest...), forest.WithProgress(cfg.progress))
	}
	model, err := fit(p.Schema.Problem, p.X, p.Y, fitOpts)
	if err != nil {
		return nil, err
	}
	fitted := model.PredictBatch(p.X)
	metrics, err := score(p.Schema.Problem, p.Y, fitted)
	if err != nil {
		return nil, err
	}

	run := &Run{
		schema:  p.Schema,
		model:   model,
		fitted:  fitted,
		rows:    p.Rows(),
		Metrics: metrics,
	}
	if cfg.holdout > 0 {
		h, err := holdout(p, cfg)
		if err != nil {
			return nil, err
		}
		run.Holdout = &h
	}
	return run, nil
}

// Schema returns the learned column treatment.
func (r *Run) Schema() *Schema { return r.schema }

// Problem returns the run's problem type.
func (r *Run) Problem() ProblemType { return r.schema.Problem }

// Rows returns the number of training rows.
func (r *Run) Rows() int { return r.rows }

// Fitted returns the model's predictions on its own training rows, one per row.
func (r *Run) Fitted() []float64 {
	out := make([]float64, len(r.fitted))
	copy(out, r.fitted)
	return out
}

// Predict applies the run to a new table and returns it with a prediction
// column appended. Every training feature must be present by name; extra
// columns, the target included, are ignored. Class codes are decoded back to
// their original labels when the target was categorical.
func (r *Run) Predict(t *dataset.Table) (*dataset.Table, error) {
	x, err := r.schema.transform(t)
	if err != nil {
		return nil, err
	}
	pred := r.model.PredictBatch(x)

	var col *dataset.Column
	if r.schema.Labels != nil {
		labels, err := r.schema.Labels.Decode(pred)
		if err != nil {
			return nil, err
		}
		col = dataset.NewCategoricalColumn(PredictionColumn, labels)
	} else {
		col = dataset.NewNumericColumn(PredictionColumn, pred)
	}
	return t.WithColumn(col)
}

func fit(problem ProblemType, x [][]float64, y []float64, opts []forest.Option) (forest.Model, error) {
	if problem == Classification {
		return forest.FitClassifier(x, y, opts...)
	}
	return forest.FitRegressor(x, y, opts...)
}

func score(problem ProblemType, truth, pred []float64) (Metrics, error) {
	if problem == Classification {
		m, err := evaluation.Classify(truth, pred)
		if err != nil {
			return Metrics{}, err
		}
		return Metrics{Classification: &m}, nil
	}
	m, err := evaluation.Regress(truth, pred)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{Regression: &m}, nil
}

// holdout fits a separate model on a seeded shuffle of the rows and scores
// it on the rows it never saw.
func holdout(p *Prepared, cfg *config) (Metrics, error) {
	n := p.Rows()
	test := int(math.Round(float64(n) * cfg.holdout))
	if test < 1 || test >= n {
		return Metrics{}, fmt.Errorf("%w: %d rows, fraction %v", ErrHoldoutTooSmall, n, cfg.holdout)
	}
	rng := rand.New(rand.NewSource(cfg.seed)) //nolint:gosec // deterministic seed for reproducible splits
	perm := rng.Perm(n)

	trainX := make([][]float64, 0, n-test)
	trainY := make([]float64, 0, n-test)
	testX := make([][]float64, 0, test)
	testY := make([]float64, 0, test)
	for k, i := range perm {
		if k < n-test {
			trainX = append(trainX, p.X[i])
			trainY = append(trainY, p.Y[i])
		} else {
			testX = append(testX, p.X[i])
			testY = append(testY, p.Y[i])
		}
	}

	model, err := fit(p.Schema.Problem, trainX, trainY, cfg.forest)
	if err != nil {
		return Metrics{}, err
	}
	return score(p.Schema.Problem, testY, model.PredictBatch(testX))
}
