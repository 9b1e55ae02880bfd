package predict

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/model"
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// constant always predicts the same class and records the input it saw.
type constant struct {
	class int
	err   error
	seen  []float64
}

func (c *constant) Fit([][]float64, []int, int) error { return nil }

func (c *constant) Predict(x []float64) (int, error) {
	c.seen = x
	return c.class, c.err
}

func stubBundle() *model.Bundle {
	b := &model.Bundle{
		FeatureCols: append([]string(nil), features.Columns[:]...),
		Categorical: map[string]*model.CategoricalModel{},
		Binary:      map[string]*model.BinaryModel{},
	}
	classes := map[ui.Attribute][]string{
		ui.ColorTheme:  {"cream", "dark", "neutral"},
		ui.FontFamily:  {"inter", "lexend"},
		ui.FontSize:    {"default", "xl"},
		ui.Motion:      {"off", "on"},
		ui.InfoDensity: {"minimal", "moderate"},
	}
	for _, a := range ui.CategoricalAttributes {
		b.CategoricalTargets = append(b.CategoricalTargets, string(a))
		b.Categorical[string(a)] = &model.CategoricalModel{
			Target:     string(a),
			Encoder:    model.NewLabelEncoder(classes[a]),
			Classifier: &constant{class: 1},
		}
	}
	for _, a := range ui.BooleanAttributes {
		b.BinaryTargets = append(b.BinaryTargets, string(a))
		b.Binary[string(a)] = &model.BinaryModel{Target: string(a), Classifier: &constant{class: 1}}
	}
	return b
}

func TestPredict(t *testing.T) {
	p := New(stubBundle(), nil)
	cfg, err := p.Predict(features.Vector{})
	require.NoError(t, err)
	assert.Equal(t, ui.UIConfig{
		ColorTheme: "dark", FontFamily: "lexend", FontSize: "xl", Motion: "on", InfoDensity: "moderate",
		LargeTargets: true, ReadAloud: true, ProgressBars: true, NoTimers: true,
	}, cfg)
}

func TestPredict_UsesBundleColumnOrder(t *testing.T) {
	b := stubBundle()
	b.FeatureCols = []string{"time_horizon_enc", "has_adhd"}
	spy := &constant{}
	b.Binary["no_timers"].Classifier = spy

	v := features.Vector{1, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 1, 3}
	_, err := New(b, nil).Predict(v)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, spy.seen)
}

func TestPredict_ModelUnavailable(t *testing.T) {
	_, err := New(nil, nil).Predict(features.Vector{})
	assert.ErrorIs(t, err, ErrModelUnavailable)

	b := stubBundle()
	delete(b.Categorical, "font_size")
	_, err = New(b, nil).Predict(features.Vector{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "font_size")

	b = stubBundle()
	delete(b.Binary, "read_aloud")
	_, err = New(b, nil).Predict(features.Vector{})
	assert.ErrorIs(t, err, ErrModelUnavailable)

	b = stubBundle()
	b.BinaryTargets = b.BinaryTargets[:2]
	_, err = New(b, nil).Predict(features.Vector{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "missing binary target")

	b = stubBundle()
	b.FeatureCols = []string{"shoe_size"}
	_, err = New(b, nil).Predict(features.Vector{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestPredict_TargetFailure(t *testing.T) {
	b := stubBundle()
	b.Categorical["motion"].Classifier = &constant{err: errors.New("dimension mismatch")}
	cfg, err := New(b, nil).Predict(features.Vector{})
	assert.ErrorIs(t, err, ErrPredictionFailed)
	assert.Contains(t, err.Error(), "motion")
	assert.Equal(t, ui.UIConfig{}, cfg)

	b = stubBundle()
	b.Categorical["color_theme"].Classifier = &constant{class: 7}
	_, err = New(b, nil).Predict(features.Vector{})
	assert.ErrorIs(t, err, ErrPredictionFailed)
}

func TestPredictProfile_ReportsUnmapped(t *testing.T) {
	tally := features.NewTally()
	p := New(stubBundle(), features.NewEncoder(tally, nil))

	_, err := p.PredictProfile(profile.RawProfile{Disorders: []string{"dyslexia", "synesthesia"}})
	require.NoError(t, err)

	snap := tally.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "synesthesia", snap[0].Value)
}
