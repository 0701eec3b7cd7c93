// Package forest implements bagged ensembles of CART decision trees for
// classification and regression.
//
// Fits are reproducible: every tree draws its bootstrap sample and feature
// order from a seed derived from the ensemble seed, so the fitted model does
// not depend on how many workers grew the trees.
package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Model maps a feature vector to a prediction.
type Model interface {
	Predict(x []float64) float64
	PredictBatch(x [][]float64) []float64
}

// Classifier is a random forest over class probabilities.
type Classifier struct {
	classes []float64
	trees   []*node
}

// Regressor is a random forest averaging tree outputs.
type Regressor struct {
	trees []*node
}

// FitClassifier grows a classification forest. Classes are the sorted distinct
// values of y and predictions are always one of them.
func FitClassifier(x [][]float64, y []float64, opts ...Option) (*Classifier, error) {
	if err := validate(x, y); err != nil {
		return nil, err
	}
	cfg := newConfig(opts)

	classes := distinct(y)
	index := make(map[float64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	yi := make([]float64, len(y))
	for i, v := range y {
		yi[i] = float64(index[v])
	}

	maxFeatures := cfg.maxFeatures
	if maxFeatures == 0 {
		maxFeatures = int(math.Sqrt(float64(len(x[0]))))
	}
	maxFeatures = clampFeatures(maxFeatures, len(x[0]))

	return &Classifier{
		classes: classes,
		trees:   growForest(cfg, x, yi, len(classes), maxFeatures),
	}, nil
}

// FitRegressor grows a regression forest.
func FitRegressor(x [][]float64, y []float64, opts ...Option) (*Regressor, error) {
	if err := validate(x, y); err != nil {
		return nil, err
	}
	cfg := newConfig(opts)

	maxFeatures := cfg.maxFeatures
	if maxFeatures == 0 {
		maxFeatures = len(x[0])
	}
	maxFeatures = clampFeatures(maxFeatures, len(x[0]))

	return &Regressor{trees: growForest(cfg, x, y, 0, maxFeatures)}, nil
}

// Classes returns the class values in sorted order.
func (c *Classifier) Classes() []float64 {
	out := make([]float64, len(c.classes))
	copy(out, c.classes)
	return out
}

// PredictProba returns the averaged class probabilities for x.
func (c *Classifier) PredictProba(x []float64) []float64 {
	acc := make([]float64, len(c.classes))
	for _, t := range c.trees {
		floats.Add(acc, t.predict(x))
	}
	floats.Scale(1/float64(len(c.trees)), acc)
	return acc
}

// Predict returns the most probable class; ties go to the smaller class.
func (c *Classifier) Predict(x []float64) float64 {
	return c.classes[floats.MaxIdx(c.PredictProba(x))]
}

// PredictBatch predicts every row of x.
func (c *Classifier) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = c.Predict(row)
	}
	return out
}

// Predict returns the mean tree output for x.
func (r *Regressor) Predict(x []float64) float64 {
	var sum float64
	for _, t := range r.trees {
		sum += t.predict(x)[0]
	}
	return sum / float64(len(r.trees))
}

// PredictBatch predicts every row of x.
func (r *Regressor) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = r.Predict(row)
	}
	return out
}

func growForest(cfg *config, x [][]float64, y []float64, classes, maxFeatures int) []*node {
	master := rand.New(rand.NewSource(cfg.seed)) //nolint:gosec // deterministic seed for reproducible models
	seeds := make([]int64, cfg.trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*node, cfg.trees)
	workers := cfg.workers
	if workers > cfg.trees {
		workers = cfg.trees
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				trees[i] = growTree(x, y, classes, maxFeatures, cfg.maxDepth, seeds[i])
				if cfg.progress != nil {
					mu.Lock()
					done++
					cfg.progress(done, cfg.trees)
					mu.Unlock()
				}
			}
		}()
	}
	for i := range trees {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return trees
}

func validate(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return fmt.Errorf("%w: no features", ErrRaggedMatrix)
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, expected %d", ErrRaggedMatrix, i, len(row), width)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d", ErrNonFinite, i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return fmt.Errorf("%w: target %d", ErrNonFinite, i)
		}
	}
	return nil
}

func distinct(y []float64) []float64 {
	seen := make(map[float64]struct{})
	out := make([]float64, 0)
	for _, v := range y {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func clampFeatures(n, width int) int {
	if n < 1 {
		return 1
	}
	if n > width {
		return width
	}
	return n
}
