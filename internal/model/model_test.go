package model

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/vantage/internal/dataset"
	"github.com/MikeSquared-Agency/vantage/internal/forest"
	"github.com/MikeSquared-Agency/vantage/internal/synth"
)

func quickOptions() TrainOptions {
	opts := DefaultTrainOptions()
	opts.Params.Trees = 10
	opts.Folds = 3
	return opts
}

func trainingRows(t *testing.T, n int) []dataset.Row {
	t.Helper()
	rows, err := synth.Generate(context.Background(), synth.Options{Rows: n, Seed: 42})
	require.NoError(t, err)
	return rows
}

func trainQuick(t *testing.T) (*Bundle, *Report, []dataset.Row) {
	t.Helper()
	rows := trainingRows(t, 600)
	b, rep, err := Train(context.Background(), rows, quickOptions())
	require.NoError(t, err)
	return b, rep, rows
}

func TestTrain(t *testing.T) {
	b, rep, _ := trainQuick(t)

	assert.Equal(t, []string{"color_theme", "font_family", "font_size", "motion", "info_density"}, b.CategoricalTargets)
	assert.Equal(t, []string{"large_targets", "read_aloud", "progress_bars", "no_timers"}, b.BinaryTargets)
	assert.Len(t, b.FeatureCols, 14)
	assert.NotEmpty(t, b.Version)

	require.Len(t, rep.Targets, 9)
	assert.Equal(t, 600, rep.Rows)
	assert.Equal(t, 120, rep.TestRows)
	assert.Equal(t, 480, rep.TrainRows)
	assert.Greater(t, rep.Summary.Mean, 0.8)
	assert.LessOrEqual(t, rep.Summary.Min, rep.Summary.Median)
	assert.LessOrEqual(t, rep.Summary.Median, rep.Summary.Max)

	sum := 0.0
	for _, fi := range rep.Importances {
		sum += fi.Importance
	}
	assert.InDelta(t, 1.0, sum, 1e-6)

	for _, tr := range rep.Targets {
		assert.Equal(t, tr.TestAccuracy < rep.MinAccuracy, tr.Flagged, tr.Target)
		assert.NotEmpty(t, tr.Classes, tr.Target)
	}

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))
	assert.Contains(t, buf.String(), "Target: color_theme (categorical)")
	assert.Contains(t, buf.String(), "Feature importances")
}

func TestTrain_FlagsEverythingAboveImpossibleThreshold(t *testing.T) {
	opts := quickOptions()
	opts.MinAccuracy = 1.01
	_, rep, err := Train(context.Background(), trainingRows(t, 200), opts)
	require.NoError(t, err)
	assert.Len(t, rep.Flagged, 9)
}

func TestTrain_SelectsBestCandidate(t *testing.T) {
	stump := forest.DefaultParams()
	stump.Trees, stump.MaxDepth = 3, 1
	deep := forest.DefaultParams()
	deep.Trees = 10

	opts := quickOptions()
	opts.Candidates = []forest.Params{stump, deep}
	_, rep, err := Train(context.Background(), trainingRows(t, 400), opts)
	require.NoError(t, err)

	for _, tr := range rep.Targets {
		if tr.Target == "color_theme" {
			assert.Equal(t, deep.MaxDepth, tr.Params.MaxDepth)
		}
	}
}

// majority predicts the most frequent training class.
type majority struct {
	class int
}

func (m *majority) Fit(_ [][]float64, y []int, classes int) error {
	counts := make([]int, classes)
	for _, c := range y {
		counts[c]++
	}
	for c, n := range counts {
		if n > counts[m.class] {
			m.class = c
		}
	}
	return nil
}

func (m *majority) Predict([]float64) (int, error) { return m.class, nil }

func TestTrain_UsesClassifierFactory(t *testing.T) {
	var mu sync.Mutex
	built := 0
	opts := quickOptions()
	opts.NewClassifier = func(forest.Params) Classifier {
		mu.Lock()
		built++
		mu.Unlock()
		return &majority{}
	}

	b, rep, err := Train(context.Background(), trainingRows(t, 200), opts)
	require.NoError(t, err)

	// one per CV fold plus the final fit, for each of the 9 targets
	assert.Equal(t, 9*(opts.Folds+1), built)
	for _, m := range b.Categorical {
		assert.IsType(t, &majority{}, m.Classifier)
		assert.NotNil(t, m.Encoder)
	}
	for _, m := range b.Binary {
		assert.IsType(t, &majority{}, m.Classifier)
	}
	assert.Nil(t, b.Importances, "majority reports no importances")
	assert.Empty(t, rep.Importances)
	require.NoError(t, b.Complete())

	assert.Error(t, Save(&bytes.Buffer{}, b), "non-persistable classifiers cannot be saved")
}

func TestStrategies_Fit(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}}

	cm := &CategoricalModel{Target: "color_theme", Classifier: &majority{}}
	require.NoError(t, cm.Fit(x, []string{"dark", "cream", "dark"}))
	assert.Equal(t, []string{"cream", "dark"}, cm.Encoder.Classes())
	label, err := cm.Predict([]float64{5})
	require.NoError(t, err)
	assert.Equal(t, "dark", label)

	bm := &BinaryModel{Target: "no_timers", Classifier: &majority{}}
	require.NoError(t, bm.Fit(x, []bool{true, true, false}))
	flag, err := bm.Predict([]float64{5})
	require.NoError(t, err)
	assert.True(t, flag)
}

func TestTrain_RejectsBadInput(t *testing.T) {
	_, _, err := Train(context.Background(), trainingRows(t, 3), quickOptions())
	assert.Error(t, err)

	opts := quickOptions()
	opts.Folds = 1
	_, _, err = Train(context.Background(), trainingRows(t, 100), opts)
	assert.Error(t, err)
}

func TestSaveLoad_PreservesPredictions(t *testing.T) {
	b, _, rows := trainQuick(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, b))
	loaded, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, b.Version, loaded.Version)
	assert.Equal(t, b.Metadata().LabelClasses, loaded.Metadata().LabelClasses)
	for _, r := range rows[:40] {
		x := r.Features.Slice()
		for _, target := range b.CategoricalTargets {
			want, err := b.Categorical[target].Predict(x)
			require.NoError(t, err)
			got, err := loaded.Categorical[target].Predict(x)
			require.NoError(t, err)
			assert.Equal(t, want, got, target)
		}
		for _, target := range b.BinaryTargets {
			want, _ := b.Binary[target].Predict(x)
			got, _ := loaded.Binary[target].Predict(x)
			assert.Equal(t, want, got, target)
		}
	}
}

func TestLoad_Validation(t *testing.T) {
	b, _, _ := trainQuick(t)
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, b))

	mutate := func(f func(m map[string]any)) []byte {
		var m map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
		f(m)
		out, err := json.Marshal(m)
		require.NoError(t, err)
		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{")},
		{"reordered features", mutate(func(m map[string]any) {
			cols := m["feature_cols"].([]any)
			cols[0], cols[1] = cols[1], cols[0]
		})},
		{"missing model", mutate(func(m map[string]any) {
			delete(m["models"].(map[string]any), "font_size")
		})},
		{"missing encoder", mutate(func(m map[string]any) {
			delete(m["encoders"].(map[string]any), "motion")
		})},
		{"unknown algorithm", mutate(func(m map[string]any) {
			m["models"].(map[string]any)["no_timers"].(map[string]any)["algorithm"] = "svm"
		})},
		{"unknown target", mutate(func(m map[string]any) {
			m["binary_targets"] = append(m["binary_targets"].([]any), "sparkles")
		})},
		{"partial targets", mutate(func(m map[string]any) {
			m["categorical_targets"] = m["categorical_targets"].([]any)[:4]
			m["binary_targets"] = []any{}
		})},
		{"no binary targets", mutate(func(m map[string]any) {
			delete(m, "binary_targets")
		})},
		{"duplicate target", mutate(func(m map[string]any) {
			cats := m["categorical_targets"].([]any)
			cats[1] = cats[0]
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrInvalidBundle)
		})
	}
}

func TestLoadFile(t *testing.T) {
	b, _, _ := trainQuick(t)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, SaveFile(path, b))

	loaded, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, b.Version, loaded.Version)

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLabelEncoder(t *testing.T) {
	e := FitLabelEncoder([]string{"warm", "calm", "warm", "dark"})
	assert.Equal(t, []string{"calm", "dark", "warm"}, e.Classes())

	i, err := e.Transform("dark")
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	_, err = e.Transform("neon")
	assert.Error(t, err)

	l, err := e.Inverse(2)
	require.NoError(t, err)
	assert.Equal(t, "warm", l)
	_, err = e.Inverse(3)
	assert.Error(t, err)

	var dup LabelEncoder
	assert.Error(t, json.Unmarshal([]byte(`["a","a"]`), &dup))
}

func TestClassReports(t *testing.T) {
	want := []int{0, 0, 1, 1}
	got := []int{0, 1, 1, 1}
	reps := classReports(want, got, []string{"no", "yes"})
	require.Len(t, reps, 2)

	assert.Equal(t, ClassReport{Label: "no", Precision: 1, Recall: 0.5, F1: 2.0 / 3, Support: 2}, reps[0])
	assert.InDelta(t, 2.0/3, reps[1].Precision, 1e-9)
	assert.Equal(t, 1.0, reps[1].Recall)
	assert.Equal(t, 0.75, accuracy(want, got))
}

func TestKFold(t *testing.T) {
	folds := kFold(11, 3)
	require.Len(t, folds, 3)
	assert.Len(t, folds[0], 4)
	assert.Len(t, folds[1], 4)
	assert.Len(t, folds[2], 3)
	assert.Equal(t, 8, folds[2][0])
}

func TestAlgorithmsRegistered(t *testing.T) {
	assert.True(t, strings.Contains(strings.Join(Algorithms(), ","), forest.AlgorithmName))
}
