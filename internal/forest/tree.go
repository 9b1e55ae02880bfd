package forest

import (
	"math/rand/v2"
	"sort"
)

// Node is one node of a fitted tree. Leaves have Feature -1 and carry the
// class distribution of the training samples that reached them.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Dist      []float64 `json:"p,omitempty"`
}

// Tree is a CART classification tree stored as a flat node slice; the root
// is node 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Dist
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type builder struct {
	x        [][]float64
	y        []int
	classes  int
	features int
	maxDepth int
	minLeaf  int
	mtry     int
	rng      *rand.Rand

	nodes      []Node
	importance []float64
}

func (b *builder) counts(idx []int) []int {
	c := make([]int, b.classes)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func (b *builder) grow(idx []int, depth int) int {
	counts := b.counts(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1})

	impurity := gini(counts, len(idx))
	if impurity == 0 ||
		(b.maxDepth > 0 && depth >= b.maxDepth) ||
		len(idx) < 2*b.minLeaf {
		b.nodes[id].Dist = distribution(counts, len(idx))
		return id
	}

	f, thr, gain, ok := b.bestSplit(idx, counts, impurity)
	if !ok {
		b.nodes[id].Dist = distribution(counts, len(idx))
		return id
	}
	b.importance[f] += float64(len(idx)) * gain

	var left, right []int
	for _, i := range idx {
		if b.x[i][f] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{Feature: f, Threshold: thr, Left: l, Right: r}
	return id
}

// bestSplit examines features in random order until mtry non-constant ones
// have been tried and returns the split with the largest impurity decrease.
func (b *builder) bestSplit(idx []int, parent []int, impurity float64) (int, float64, float64, bool) {
	n := len(idx)
	sorted := make([]int, n)
	left := make([]int, b.classes)
	right := make([]int, b.classes)

	bestFeature, bestThr, bestGain := -1, 0.0, 1e-12
	tried := 0
	for _, f := range b.rng.Perm(b.features) {
		if tried >= b.mtry {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })
		if b.x[sorted[0]][f] == b.x[sorted[n-1]][f] {
			continue
		}
		tried++

		clear(left)
		copy(right, parent)
		for k := 0; k < n-1; k++ {
			cls := b.y[sorted[k]]
			left[cls]++
			right[cls]--
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			weighted := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if gain := impurity - weighted; gain > bestGain {
				bestFeature, bestThr, bestGain = f, (lo+hi)/2, gain
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThr, bestGain, true
}

func distribution(counts []int, n int) []float64 {
	d := make([]float64, len(counts))
	if n == 0 {
		return d
	}
	for i, c := range counts {
		d[i] = float64(c) / float64(n)
	}
	return d
}
