package model

import (
	"fmt"
	"io"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/MikeSquared-Agency/vantage/internal/forest"
)

// TargetReport is the evaluation of one target's model.
type TargetReport struct {
	Target       string        `json:"target"`
	Kind         string        `json:"kind"`
	TestAccuracy float64       `json:"test_accuracy"`
	CVMean       float64       `json:"cv_mean"`
	CVStd        float64       `json:"cv_std"`
	Classes      []ClassReport `json:"classes"`
	Params       forest.Params `json:"params"`
	Flagged      bool          `json:"flagged"`
}

// FeatureImportance is one feature's importance averaged across targets.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// AccuracySummary describes held-out accuracy across all targets.
type AccuracySummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Report is the outcome of a training run.
type Report struct {
	Version     string              `json:"version"`
	Rows        int                 `json:"rows"`
	TrainRows   int                 `json:"train_rows"`
	TestRows    int                 `json:"test_rows"`
	MinAccuracy float64             `json:"min_accuracy"`
	Targets     []TargetReport      `json:"targets"`
	Importances []FeatureImportance `json:"importances"`
	Flagged     []string            `json:"flagged"`
	Summary     AccuracySummary     `json:"summary"`
}

// Accuracies maps each target to its held-out accuracy.
func (r *Report) Accuracies() map[string]float64 {
	out := make(map[string]float64, len(r.Targets))
	for _, t := range r.Targets {
		out[t.Target] = t.TestAccuracy
	}
	return out
}

func summarize(targets []TargetReport) (AccuracySummary, error) {
	data := make(stats.Float64Data, len(targets))
	for i, t := range targets {
		data[i] = t.TestAccuracy
	}
	var s AccuracySummary
	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}
	return s, nil
}

// Write renders the report as plain text.
func (r *Report) Write(w io.Writer) error {
	var b strings.Builder
	rule := strings.Repeat("─", 50)

	fmt.Fprintf(&b, "Trained %s on %d rows (%d train / %d test)\n", r.Version, r.Rows, r.TrainRows, r.TestRows)
	for _, t := range r.Targets {
		fmt.Fprintf(&b, "\n%s\n  Target: %s (%s)\n", rule, t.Target, t.Kind)
		fmt.Fprintf(&b, "  Test accuracy:  %.4f\n", t.TestAccuracy)
		fmt.Fprintf(&b, "  CV accuracy:    %.4f ± %.4f\n", t.CVMean, t.CVStd)
		if t.Flagged {
			fmt.Fprintf(&b, "  BELOW TARGET:   %.2f\n", r.MinAccuracy)
		}
		fmt.Fprintf(&b, "\n  %-14s %9s %9s %9s %8s\n", "class", "precision", "recall", "f1", "support")
		for _, c := range t.Classes {
			fmt.Fprintf(&b, "  %-14s %9.2f %9.2f %9.2f %8d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
		}
	}

	fmt.Fprintf(&b, "\n%s\n  Feature importances (averaged across targets)\n", rule)
	for _, fi := range r.Importances {
		fmt.Fprintf(&b, "  %-24s %.4f  %s\n", fi.Feature, fi.Importance, strings.Repeat("█", int(fi.Importance*100)))
	}
	fmt.Fprintf(&b, "\n  Accuracy mean %.4f  median %.4f  min %.4f  max %.4f\n",
		r.Summary.Mean, r.Summary.Median, r.Summary.Min, r.Summary.Max)
	if len(r.Flagged) > 0 {
		fmt.Fprintf(&b, "  Below %.2f: %s\n", r.MinAccuracy, strings.Join(r.Flagged, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
