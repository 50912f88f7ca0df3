package claimmodel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ForestConfig controls forest fitting. Zero values fall back to the defaults below.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
	Workers         int
}

const (
	DefaultTrees    = 100
	DefaultMaxDepth = 10
)

func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = DefaultTrees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Forest is a bagged ensemble of regression trees. Its prediction is the mean of the trees.
type Forest struct {
	trees    []*node
	features int
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Fit grows cfg.Trees trees in parallel, each on a bootstrap sample of m.
// Tree i draws from its own generator seeded with cfg.Seed+i, so results do not depend on scheduling.
func Fit(ctx context.Context, m *Matrix, cfg ForestConfig) (*Forest, error) {
	if len(m.Y) == 0 {
		return nil, ErrEmptyDataset
	}
	cfg = cfg.withDefaults()

	f := &Forest{trees: make([]*node, cfg.Trees), features: len(m.Features)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Trees; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := newRand(cfg.Seed + int64(i))
			sample := make([]int, len(m.Y))
			for j := range sample {
				sample[j] = rng.Intn(len(m.Y))
			}
			b := builder{m: m, maxDepth: cfg.MaxDepth, minSplit: cfg.MinSamplesSplit}
			f.trees[i] = b.grow(sample, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fit forest: %w", err)
	}
	return f, nil
}

// Predict returns the forest estimate for one feature row.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.features {
		return 0, fmt.Errorf("expected %d features, got %d", f.features, len(x))
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees)), nil
}

func (f *Forest) PredictAll(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		p, err := f.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (n *node) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// builder grows one CART regression tree, choosing splits that minimise the summed squared
// error of the two children.
type builder struct {
	m        *Matrix
	maxDepth int
	minSplit int
}

func (b *builder) grow(idx []int, depth int) *node {
	mean, sse := b.stats(idx)
	if depth >= b.maxDepth || len(idx) < b.minSplit || sse == 0 {
		return &node{leaf: true, value: mean}
	}

	feature, threshold, ok := b.bestSplit(idx, sse)
	if !ok {
		return &node{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if b.m.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.grow(left, depth+1),
		right:     b.grow(right, depth+1),
	}
}

func (b *builder) stats(idx []int) (mean, sse float64) {
	var sum, sq float64
	for _, i := range idx {
		y := b.m.Y[i]
		sum += y
		sq += y * y
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sq - sum*sum/n
	if sse < 1e-12 {
		sse = 0
	}
	return mean, sse
}

func (b *builder) bestSplit(idx []int, parentSSE float64) (feature int, threshold float64, ok bool) {
	sorted := make([]int, len(idx))
	best := parentSSE

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += b.m.Y[i]
		totalSq += b.m.Y[i] * b.m.Y[i]
	}
	n := float64(len(idx))

	for f := 0; f < len(b.m.Features); f++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.m.X[sorted[a]][f] < b.m.X[sorted[c]][f] })

		var leftSum, leftSq float64
		for k := 0; k < len(sorted)-1; k++ {
			y := b.m.Y[sorted[k]]
			leftSum += y
			leftSq += y * y

			cur, next := b.m.X[sorted[k]][f], b.m.X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			rightSum := totalSum - leftSum
			sse := (leftSq - leftSum*leftSum/nl) + (totalSq - leftSq - rightSum*rightSum/nr)
			if sse < best-1e-12 {
				best = sse
				feature = f
				threshold = cur + (next-cur)/2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// RMSE is the root mean squared error between actual and predicted values.
func RMSE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("length mismatch: %d actual, %d predicted", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, errors.New("no values to score")
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual))), nil
}
