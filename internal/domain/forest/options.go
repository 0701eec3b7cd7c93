package forest

// Default ensemble configuration constants.
const (
	DefaultTrees = 100
	DefaultSeed  = 42
	minSplitSize = 2
)

// Option applies a configuration option to an ensemble fit.
type Option func(*config)

type config struct {
	trees       int
	seed        int64
	maxDepth    int
	maxFeatures int
	workers     int
	progress    func(done, total int)
}

func newConfig(opts []Option) *config {
	c := &config{
		trees:   DefaultTrees,
		seed:    DefaultSeed,
		workers: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.trees = n
		}
	}
}

// WithSeed sets the random seed used for bootstrap and feature sampling.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithMaxDepth limits tree depth. Zero grows trees until leaves are pure.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth >= 0 {
			c.maxDepth = depth
		}
	}
}

// WithMaxFeatures sets how many features each split considers. Zero keeps the
// task default: sqrt(p) for classification, p for regression.
func WithMaxFeatures(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxFeatures = n
		}
	}
}

// WithWorkers sets how many trees are grown concurrently. Results do not
// depend on the worker count.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProgress registers a callback invoked after each tree is grown.
func WithProgress(fn func(done, total int)) Option {
	return func(c *config) {
		c.progress = fn
	}
}
