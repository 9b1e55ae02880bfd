package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MikeSquared-Agency/vantage/internal/dataset"
	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/forest"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

const (
	KindCategorical = "categorical"
	KindBinary      = "binary"
)

// ClassifierFactory returns an unfitted classifier for the given parameters.
type ClassifierFactory func(p forest.Params) Classifier

// NewForest is the default ClassifierFactory.
func NewForest(p forest.Params) Classifier {
	return forest.New(p)
}

// TrainOptions controls a training run.
type TrainOptions struct {
	Params forest.Params
	// NewClassifier builds each target's classifier; nil means NewForest.
	NewClassifier ClassifierFactory
	// Candidates, when set, replace Params: each is cross-validated per
	// target and the best mean CV accuracy wins, the earliest on ties.
	Candidates   []forest.Params
	TestFraction float64
	SplitSeed    uint64
	Folds        int
	MinAccuracy  float64
	Logger       *slog.Logger
}

// DefaultTrainOptions holds out 20% with seed 42, runs 5-fold CV and flags
// targets below 85% held-out accuracy.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Params:        forest.DefaultParams(),
		NewClassifier: NewForest,
		TestFraction:  0.2,
		SplitSeed:     42,
		Folds:         5,
		MinAccuracy:   0.85,
	}
}

type targetJob struct {
	name    string
	kind    string
	y       []int
	classes int
	labels  []string
	encoder *LabelEncoder
	// raw training labels, one of the two set by kind
	texts []string
	flags []bool
}

// fit trains a fresh model for the job through its strategy and returns the
// fitted classifier with the model wrapping it.
func (j targetJob) fit(c Classifier, x [][]float64, idx []int) (Classifier, any, error) {
	switch j.kind {
	case KindCategorical:
		m := &CategoricalModel{Target: j.name, Encoder: j.encoder, Classifier: c}
		if err := m.Fit(x, selectStrings(j.texts, idx)); err != nil {
			return nil, nil, err
		}
		return c, m, nil
	case KindBinary:
		m := &BinaryModel{Target: j.name, Classifier: c}
		if err := m.Fit(x, selectBools(j.flags, idx)); err != nil {
			return nil, nil, err
		}
		return c, m, nil
	}
	return nil, nil, fmt.Errorf("unknown target kind %q", j.kind)
}

// Train fits one model per UI attribute. Targets are trained concurrently;
// each owns its data and random streams.
func Train(ctx context.Context, rows []dataset.Row, opts TrainOptions) (*Bundle, *Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be within (0, 1), got %v", opts.TestFraction)
	}
	if opts.NewClassifier == nil {
		opts.NewClassifier = NewForest
	}
	if opts.Folds < 2 {
		return nil, nil, fmt.Errorf("need at least 2 folds, got %d", opts.Folds)
	}

	n := len(rows)
	nTest := int(math.Ceil(float64(n) * opts.TestFraction))
	nTrain := n - nTest
	if nTest < 1 || nTrain < opts.Folds {
		return nil, nil, fmt.Errorf("%d rows are too few to train", n)
	}

	perm := rand.New(rand.NewPCG(opts.SplitSeed, 0)).Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]
	xTrain := pick(rows, trainIdx)
	xTest := pick(rows, testIdx)

	jobs := targetJobs(rows)
	reports := make([]TargetReport, len(jobs))
	fitted := make([]Classifier, len(jobs))
	models := make([]any, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			yTrain := selectInts(job.y, trainIdx)
			yTest := selectInts(job.y, testIdx)

			params, scores, err := selectParams(gctx, job, xTrain, yTrain, trainIdx, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", job.name, err)
			}
			c, m, err := job.fit(opts.NewClassifier(params), xTrain, trainIdx)
			if err != nil {
				return err
			}
			pred, err := predictAll(c, xTest)
			if err != nil {
				return fmt.Errorf("%s: %w", job.name, err)
			}

			mean, std := stat.PopMeanStdDev(scores, nil)
			r := TargetReport{
				Target:       job.name,
				Kind:         job.kind,
				TestAccuracy: accuracy(yTest, pred),
				CVMean:       mean,
				CVStd:        std,
				Classes:      classReports(yTest, pred, job.labels),
				Params:       params,
			}
			r.Flagged = r.TestAccuracy < opts.MinAccuracy
			if r.Flagged {
				logger.Warn("target below accuracy threshold",
					"target", job.name, "accuracy", r.TestAccuracy, "threshold", opts.MinAccuracy)
			} else {
				logger.Info("target trained", "target", job.name, "accuracy", r.TestAccuracy, "cv_mean", mean)
			}
			reports[i] = r
			fitted[i] = c
			models[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	b := &Bundle{
		Version:     uuid.NewString(),
		TrainedAt:   time.Now().UTC(),
		FeatureCols: append([]string(nil), features.Columns[:]...),
		Categorical: make(map[string]*CategoricalModel),
		Binary:      make(map[string]*BinaryModel),
	}
	importances := make([]float64, features.Size)
	reporting := 0
	for i, job := range jobs {
		switch m := models[i].(type) {
		case *CategoricalModel:
			b.CategoricalTargets = append(b.CategoricalTargets, job.name)
			b.Categorical[job.name] = m
		case *BinaryModel:
			b.BinaryTargets = append(b.BinaryTargets, job.name)
			b.Binary[job.name] = m
		}
		if imp, ok := fitted[i].(Importancer); ok {
			if fi := imp.FeatureImportances(); len(fi) == features.Size {
				floats.Add(importances, fi)
				reporting++
			}
		}
	}
	if reporting > 0 {
		floats.Scale(1/float64(reporting), importances)
		b.Importances = importances
	}

	rep := &Report{
		Version:     b.Version,
		Rows:        n,
		TrainRows:   nTrain,
		TestRows:    nTest,
		MinAccuracy: opts.MinAccuracy,
		Targets:     reports,
		Importances: rankImportances(b.Importances),
	}
	for _, r := range reports {
		if r.Flagged {
			rep.Flagged = append(rep.Flagged, r.Target)
		}
	}
	summary, err := summarize(reports)
	if err != nil {
		return nil, nil, fmt.Errorf("summarize accuracy: %w", err)
	}
	rep.Summary = summary
	return b, rep, nil
}

func targetJobs(rows []dataset.Row) []targetJob {
	var jobs []targetJob
	for _, a := range ui.CategoricalAttributes {
		labels := make([]string, len(rows))
		for i, r := range rows {
			labels[i], _ = r.Label.Value(a)
		}
		enc := FitLabelEncoder(labels)
		y := make([]int, len(rows))
		for i, l := range labels {
			y[i], _ = enc.Transform(l)
		}
		jobs = append(jobs, targetJob{
			name: string(a), kind: KindCategorical,
			y: y, classes: enc.Len(), labels: enc.Classes(), encoder: enc, texts: labels,
		})
	}
	for _, a := range ui.BooleanAttributes {
		flags := make([]bool, len(rows))
		for i, r := range rows {
			flags[i], _ = r.Label.Flag(a)
		}
		jobs = append(jobs, targetJob{
			name: string(a), kind: KindBinary,
			y: boolClasses(flags), classes: 2, labels: []string{"0", "1"}, flags: flags,
		})
	}
	return jobs
}

// selectParams returns the parameters to fit with and their CV scores.
func selectParams(ctx context.Context, job targetJob, x [][]float64, y []int, idx []int, opts TrainOptions) (forest.Params, []float64, error) {
	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = []forest.Params{opts.Params}
	}
	var (
		best       forest.Params
		bestScores []float64
		bestMean   = -1.0
	)
	for _, p := range candidates {
		scores, err := crossValidate(ctx, job, x, y, idx, p, opts)
		if err != nil {
			return forest.Params{}, nil, err
		}
		if m := stat.Mean(scores, nil); m > bestMean {
			best, bestScores, bestMean = p, scores, m
		}
	}
	return best, bestScores, nil
}

// crossValidate scores p with k-fold CV over the training split. idx maps
// rows of x back to the job's label slices.
func crossValidate(ctx context.Context, job targetJob, x [][]float64, y []int, idx []int, p forest.Params, opts TrainOptions) ([]float64, error) {
	folds := kFold(len(x), opts.Folds)
	scores := make([]float64, 0, len(folds))
	for _, hold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		held := make(map[int]bool, len(hold))
		for _, i := range hold {
			held[i] = true
		}
		var xFit [][]float64
		var fitIdx []int
		for i := range x {
			if !held[i] {
				xFit = append(xFit, x[i])
				fitIdx = append(fitIdx, idx[i])
			}
		}
		c, _, err := job.fit(opts.NewClassifier(p), xFit, fitIdx)
		if err != nil {
			return nil, err
		}
		pred, err := predictAll(c, pickRows(x, hold))
		if err != nil {
			return nil, err
		}
		scores = append(scores, accuracy(selectInts(y, hold), pred))
	}
	if len(scores) == 0 {
		return nil, errors.New("no cross-validation folds")
	}
	return scores, nil
}

func predictAll(c Classifier, x [][]float64) ([]int, error) {
	out := make([]int, len(x))
	for i, row := range x {
		p, err := c.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func pick(rows []dataset.Row, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j].Features.Slice()
	}
	return out
}

func pickRows(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func selectStrings(s []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = s[j]
	}
	return out
}

func selectBools(b []bool, idx []int) []bool {
	out := make([]bool, len(idx))
	for i, j := range idx {
		out[i] = b[j]
	}
	return out
}

func selectInts(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func rankImportances(imp []float64) []FeatureImportance {
	out := make([]FeatureImportance, len(imp))
	for i, v := range imp {
		out[i] = FeatureImportance{Feature: features.Columns[i], Importance: v}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}
