// Package forest implements a random forest of CART classification trees.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNotFitted = errors.New("forest has not been fitted")
	ErrDimension = errors.New("feature dimension mismatch")
)

// Params are the forest hyperparameters.
type Params struct {
	Trees          int    `json:"trees"`
	MaxDepth       int    `json:"max_depth"`
	MinSamplesLeaf int    `json:"min_samples_leaf"`
	MaxFeatures    int    `json:"max_features,omitempty"` // 0 means sqrt(features)
	Bootstrap      bool   `json:"bootstrap"`
	Seed           uint64 `json:"seed"`
	Workers        int    `json:"-"`
}

// DefaultParams returns 200 bootstrapped trees of depth at most 12 with at
// least 3 samples per leaf.
func DefaultParams() Params {
	return Params{
		Trees:          200,
		MaxDepth:       12,
		MinSamplesLeaf: 3,
		Bootstrap:      true,
		Seed:           42,
	}
}

// Forest is a fitted (or unfitted) random forest. It serialises to JSON as is.
type Forest struct {
	Params      Params    `json:"params"`
	Classes     int       `json:"classes"`
	Features    int       `json:"features"`
	Trees       []*Tree   `json:"trees"`
	Importances []float64 `json:"importances"`
}

// AlgorithmName is the name persisted bundles record for forests.
const AlgorithmName = "random_forest"

// Algorithm implements the persisted-classifier naming contract.
func (f *Forest) Algorithm() string { return AlgorithmName }

// New returns an unfitted forest.
func New(p Params) *Forest {
	return &Forest{Params: p}
}

// Fit grows the forest on x with integer labels y in [0, classes). Tree t
// draws from the PCG stream (Seed, t), so the result does not depend on
// Workers.
func (f *Forest) Fit(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return errors.New("no training samples")
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d samples but %d labels", len(x), len(y))
	}
	if classes < 1 {
		return fmt.Errorf("classes must be positive, got %d", classes)
	}
	width := len(x[0])
	if width == 0 {
		return errors.New("samples have no features")
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: sample %d has %d features, want %d", ErrDimension, i, len(row), width)
		}
		if y[i] < 0 || y[i] >= classes {
			return fmt.Errorf("label %d of sample %d outside [0, %d)", y[i], i, classes)
		}
	}

	p := f.Params
	if p.Trees < 1 {
		p.Trees = 1
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	mtry := p.MaxFeatures
	if mtry <= 0 {
		mtry = max(1, int(math.Sqrt(float64(width))))
	}
	mtry = min(mtry, width)
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]*Tree, p.Trees)
	imps := make([][]float64, p.Trees)
	var g errgroup.Group
	g.SetLimit(workers)
	for t := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(p.Seed, uint64(t)))
			idx := make([]int, len(x))
			for i := range idx {
				if p.Bootstrap {
					idx[i] = rng.IntN(len(x))
				} else {
					idx[i] = i
				}
			}
			b := &builder{
				x: x, y: y,
				classes:    classes,
				features:   width,
				maxDepth:   p.MaxDepth,
				minLeaf:    p.MinSamplesLeaf,
				mtry:       mtry,
				rng:        rng,
				importance: make([]float64, width),
			}
			b.grow(idx, 0)
			trees[t] = &Tree{Nodes: b.nodes}
			imps[t] = b.importance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	importances := make([]float64, width)
	for _, imp := range imps {
		if s := floats.Sum(imp); s > 0 {
			floats.Scale(1/s, imp)
			floats.Add(importances, imp)
		}
	}
	if s := floats.Sum(importances); s > 0 {
		floats.Scale(1/s, importances)
	}

	f.Classes = classes
	f.Features = width
	f.Trees = trees
	f.Importances = importances
	return nil
}

// PredictProba averages the leaf class distributions of every tree.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != f.Features {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrDimension, len(x), f.Features)
	}
	proba := make([]float64, f.Classes)
	for _, t := range f.Trees {
		floats.Add(proba, t.leaf(x))
	}
	floats.Scale(1/float64(len(f.Trees)), proba)
	return proba, nil
}

// Predict returns the most probable class; ties go to the lowest index.
func (f *Forest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(proba), nil
}

// FeatureImportances returns the normalised mean impurity decrease per
// feature.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.Importances))
	copy(out, f.Importances)
	return out
}

// Validate checks a decoded forest for structural consistency.
func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return ErrNotFitted
	}
	if f.Classes < 1 || f.Features < 1 {
		return fmt.Errorf("invalid shape: %d classes, %d features", f.Classes, f.Features)
	}
	for ti, t := range f.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				if len(n.Dist) != f.Classes {
					return fmt.Errorf("tree %d node %d: leaf has %d classes, want %d", ti, ni, len(n.Dist), f.Classes)
				}
				continue
			}
			if n.Feature >= f.Features ||
				n.Left <= ni || n.Left >= len(t.Nodes) ||
				n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid split", ti, ni)
			}
		}
	}
	return nil
}
