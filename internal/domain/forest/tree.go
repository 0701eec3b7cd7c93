package forest

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// node is a binary decision node; leaves carry the prediction vector.
// For classification the vector holds class probabilities, for regression
// a single mean.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     []float64
}

func (n *node) predict(x []float64) []float64 {
	for n.left != nil {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type split struct {
	feature   int
	threshold float64
	score     float64
}

// builder grows one CART tree. y holds class indices when classes > 0,
// raw targets otherwise.
type builder struct {
	x           [][]float64
	y           []float64
	classes     int
	maxFeatures int
	maxDepth    int
	rng         *rand.Rand
}

func growTree(x [][]float64, y []float64, classes, maxFeatures, maxDepth int, seed int64) *node {
	b := &builder{
		x:           x,
		y:           y,
		classes:     classes,
		maxFeatures: maxFeatures,
		maxDepth:    maxDepth,
		rng:         rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic seed for reproducible models
	}
	n := len(x)
	sample := make([]int, n)
	for i := range sample {
		sample[i] = b.rng.Intn(n)
	}
	return b.grow(sample, 0)
}

func (b *builder) grow(idx []int, depth int) *node {
	n := &node{value: b.leafValue(idx)}
	if len(idx) < minSplitSize || (b.maxDepth > 0 && depth >= b.maxDepth) || b.pure(idx) {
		return n
	}
	s, ok := b.bestSplit(idx)
	if !ok {
		return n
	}
	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	n.feature, n.threshold, n.value = s.feature, s.threshold, nil
	n.left = b.grow(left, depth+1)
	n.right = b.grow(right, depth+1)
	return n
}

func (b *builder) leafValue(idx []int) []float64 {
	if b.classes == 0 {
		ys := make([]float64, len(idx))
		for j, i := range idx {
			ys[j] = b.y[i]
		}
		return []float64{stat.Mean(ys, nil)}
	}
	counts := make([]float64, b.classes)
	for _, i := range idx {
		counts[int(b.y[i])]++
	}
	floats.Scale(1/float64(len(idx)), counts)
	return counts
}

func (b *builder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit visits features in random order until maxFeatures non-constant
// features were scanned and at least one valid split was found.
func (b *builder) bestSplit(idx []int) (split, bool) {
	best := split{score: math.Inf(1)}
	found := false
	visited := 0
	order := make([]int, len(idx))
	for _, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.maxFeatures && found {
			break
		}
		copy(order, idx)
		sort.Slice(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}
		visited++
		var s split
		var ok bool
		if b.classes > 0 {
			s, ok = b.scanGini(order, f)
		} else {
			s, ok = b.scanVariance(order, f)
		}
		if ok && s.score < best.score {
			best, found = s, true
		}
	}
	return best, found
}

func (b *builder) scanGini(order []int, f int) (split, bool) {
	n := len(order)
	left := make([]float64, b.classes)
	right := make([]float64, b.classes)
	for _, i := range order {
		right[int(b.y[i])]++
	}
	best := split{feature: f, score: math.Inf(1)}
	found := false
	for j := 0; j < n-1; j++ {
		c := int(b.y[order[j]])
		left[c]++
		right[c]--
		v, next := b.x[order[j]][f], b.x[order[j+1]][f]
		if v == next {
			continue
		}
		nl, nr := float64(j+1), float64(n-j-1)
		score := nl*gini(left, nl) + nr*gini(right, nr)
		if score < best.score {
			best.score = score
			best.threshold = midpoint(v, next)
			found = true
		}
	}
	return best, found
}

func (b *builder) scanVariance(order []int, f int) (split, bool) {
	n := len(order)
	var sumR, sqR float64
	for _, i := range order {
		sumR += b.y[i]
		sqR += b.y[i] * b.y[i]
	}
	var sumL, sqL float64
	best := split{feature: f, score: math.Inf(1)}
	found := false
	for j := 0; j < n-1; j++ {
		y := b.y[order[j]]
		sumL += y
		sqL += y * y
		sumR -= y
		sqR -= y * y
		v, next := b.x[order[j]][f], b.x[order[j+1]][f]
		if v == next {
			continue
		}
		nl, nr := float64(j+1), float64(n-j-1)
		score := (sqL - sumL*sumL/nl) + (sqR - sumR*sumR/nr)
		if score < best.score {
			best.score = score
			best.threshold = midpoint(v, next)
			found = true
		}
	}
	return best, found
}

// gini returns the Gini impurity of a class count vector summing to n.
func gini(counts []float64, n float64) float64 {
	return 1 - floats.Dot(counts, counts)/(n*n)
}

func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t >= hi {
		return lo
	}
	return t
}
