package trainer

import "github.com/okian/scoutlab/internal/domain/forest"

// Option applies a configuration option to a training run.
type Option func(*config)

type config struct {
	forest   []forest.Option
	progress func(done, total int)
	holdout  float64
	seed     int64
}

func newConfig(opts []Option) *config {
	c := &config{seed: forest.DefaultSeed}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(c *config) {
		c.forest = append(c.forest, forest.WithTrees(n))
	}
}

// WithSeed sets the seed for the ensemble and the holdout shuffle.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
		c.forest = append(c.forest, forest.WithSeed(seed))
	}
}

// WithWorkers sets how many trees are grown concurrently.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.forest = append(c.forest, forest.WithWorkers(n))
	}
}

// WithProgress reports per-tree progress of the returned model's fit.
func WithProgress(fn func(done, total int)) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithHoldout additionally scores a model fitted on a seeded (1-f) share of
// the rows against the remaining f. Zero disables the holdout.
func WithHoldout(f float64) Option {
	return func(c *config) {
		c.holdout = f
	}
}
