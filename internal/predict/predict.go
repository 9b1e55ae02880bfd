// Package predict assembles a full UI configuration from a model bundle.
package predict

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/model"
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrPredictionFailed = errors.New("prediction failed")
)

// Predictor answers UI-config predictions from a loaded bundle. It holds no
// mutable state and is safe for concurrent use.
type Predictor struct {
	bundle  *model.Bundle
	encoder *features.Encoder
}

// New returns a Predictor. A nil bundle yields ErrModelUnavailable on every
// call; a nil encoder encodes without reporting unmapped values.
func New(b *model.Bundle, enc *features.Encoder) *Predictor {
	if enc == nil {
		enc = features.NewEncoder(nil, nil)
	}
	return &Predictor{bundle: b, encoder: enc}
}

// Bundle returns the bundle in use, or nil.
func (p *Predictor) Bundle() *model.Bundle {
	return p.bundle
}

// PredictProfile encodes raw and predicts its configuration.
func (p *Predictor) PredictProfile(raw profile.RawProfile) (ui.UIConfig, error) {
	return p.Predict(p.encoder.Encode(raw))
}

// Predict returns a configuration with every attribute predicted, or an
// error. It never returns a partially filled configuration.
func (p *Predictor) Predict(v features.Vector) (ui.UIConfig, error) {
	b := p.bundle
	if b == nil {
		return ui.UIConfig{}, ErrModelUnavailable
	}
	if err := b.Complete(); err != nil {
		return ui.UIConfig{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	x := make([]float64, len(b.FeatureCols))
	for i, col := range b.FeatureCols {
		f, err := v.Get(col)
		if err != nil {
			return ui.UIConfig{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		x[i] = f
	}

	var cfg ui.UIConfig
	for _, t := range b.CategoricalTargets {
		label, err := b.Categorical[t].Predict(x)
		if err != nil {
			return ui.UIConfig{}, fmt.Errorf("%w: %s: %v", ErrPredictionFailed, t, err)
		}
		if cfg, err = cfg.WithValue(ui.Attribute(t), label); err != nil {
			return ui.UIConfig{}, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
		}
	}
	for _, t := range b.BinaryTargets {
		flag, err := b.Binary[t].Predict(x)
		if err != nil {
			return ui.UIConfig{}, fmt.Errorf("%w: %s: %v", ErrPredictionFailed, t, err)
		}
		if cfg, err = cfg.WithFlag(ui.Attribute(t), flag); err != nil {
			return ui.UIConfig{}, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
		}
	}
	return cfg, nil
}
