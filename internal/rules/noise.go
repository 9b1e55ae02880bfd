package rules

import (
	"math/rand/v2"

	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// DefaultNoiseRate is the per-field perturbation probability used when
// generating training data.
const DefaultNoiseRate = 0.08

var (
	noiseFontSizes = []string{ui.SizeDefault, ui.SizeLarge, ui.SizeXL}
	noiseMotions   = []string{ui.MotionOn, ui.MotionReduced, ui.MotionOff}
)

// Noise perturbs labels to simulate individual variance in synthetic data.
// It is only used for training data; serving never applies it.
type Noise struct {
	Rate float64
	Rand *rand.Rand
}

// Apply independently resamples font_size, resamples motion and flips
// read_aloud, each with probability n.Rate. A zero Noise is a no-op.
func (n Noise) Apply(cfg ui.UIConfig) ui.UIConfig {
	if n.Rand == nil || n.Rate <= 0 {
		return cfg
	}
	if n.Rand.Float64() < n.Rate {
		cfg.FontSize = noiseFontSizes[n.Rand.IntN(len(noiseFontSizes))]
	}
	if n.Rand.Float64() < n.Rate {
		cfg.Motion = noiseMotions[n.Rand.IntN(len(noiseMotions))]
	}
	if n.Rand.Float64() < n.Rate {
		cfg.ReadAloud = !cfg.ReadAloud
	}
	return cfg
}
