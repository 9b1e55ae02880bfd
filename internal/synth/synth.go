package synth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/vantage/internal/dataset"
	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	"github.com/MikeSquared-Agency/vantage/internal/rules"
)

const (
	DefaultRows = 2000
	DefaultSeed = 42

	chunkSize = 256
)

// Options controls synthetic data generation.
type Options struct {
	Rows      int
	Seed      uint64
	NoiseRate float64
	// Workers bounds parallelism. Zero means GOMAXPROCS.
	Workers int
}

// Generate produces opts.Rows labelled rows. Row i draws from its own PCG
// stream seeded with (Seed, i), so the output depends only on Rows, Seed and
// NoiseRate.
func Generate(ctx context.Context, opts Options) ([]dataset.Row, error) {
	if opts.Rows < 0 {
		return nil, fmt.Errorf("rows must be non-negative, got %d", opts.Rows)
	}
	if opts.NoiseRate < 0 || opts.NoiseRate > 1 {
		return nil, fmt.Errorf("noise rate must be within [0, 1], got %v", opts.NoiseRate)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rows := make([]dataset.Row, opts.Rows)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < opts.Rows; start += chunkSize {
		end := min(start+chunkSize, opts.Rows)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rows[i] = Row(opts.Seed, uint64(i), opts.NoiseRate)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Row generates the i-th row for seed.
func Row(seed, i uint64, noiseRate float64) dataset.Row {
	r := rand.New(rand.NewPCG(seed, i))
	p := SampleProfile(r)
	return dataset.Row{
		Features: features.EncodeProfile(p),
		Label:    rules.Label(p, rules.Noise{Rate: noiseRate, Rand: r}),
	}
}

var (
	disorderCountWeights = []int{20, 40, 30, 10}

	supportLevels  = []profile.SupportLevel{profile.SupportLow, profile.SupportMedium, profile.SupportHigh}
	supportWeights = []int{25, 45, 30}

	densities      = []profile.Density{profile.DensityMinimal, profile.DensityModerate, profile.DensityFull}
	densityWeights = []int{30, 45, 25}

	horizons = []profile.TimeHorizon{profile.Horizon24h, profile.Horizon72h, profile.Horizon1Week, profile.Horizon2Weeks}
)

// sensory draws include a "none" slot that is discarded afterwards.
const (
	sensoryLight = iota
	sensorySound
	sensoryMotion
	sensoryNone
)

// SampleProfile draws a student profile from the population the models are
// trained on.
func SampleProfile(r *rand.Rand) profile.Profile {
	n := weighted(r, disorderCountWeights)
	p := profile.Profile{
		Disorders:   profile.SortedDisorders(sample(r, profile.AllDisorders, n)),
		Support:     supportLevels[weighted(r, supportWeights)],
		DensityPref: densities[weighted(r, densityWeights)],
		Horizon:     horizons[r.IntN(len(horizons))],
	}
	for _, s := range sample(r, []int{sensoryLight, sensorySound, sensoryMotion, sensoryNone}, r.IntN(3)) {
		switch s {
		case sensoryLight:
			p.Sensory.Light = true
		case sensorySound:
			p.Sensory.Sound = true
		case sensoryMotion:
			p.Sensory.Motion = true
		}
	}
	return p
}

func weighted(r *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	x := r.IntN(total)
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}

// sample picks k distinct elements of pool without modifying it.
func sample[T any](r *rand.Rand, pool []T, k int) []T {
	tmp := make([]T, len(pool))
	copy(tmp, pool)
	for i := 0; i < k; i++ {
		j := i + r.IntN(len(tmp)-i)
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp[:k]
}
