package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vantage/internal/config"
	"github.com/MikeSquared-Agency/vantage/internal/dataset"
	"github.com/MikeSquared-Agency/vantage/internal/forest"
	"github.com/MikeSquared-Agency/vantage/internal/hermes"
	"github.com/MikeSquared-Agency/vantage/internal/model"
	"github.com/MikeSquared-Agency/vantage/internal/runlog"
	"github.com/MikeSquared-Agency/vantage/internal/slack"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the UI configuration model bundle",
	Long: "Train one random forest per UI attribute from a generated dataset, " +
		"report held-out and cross-validated accuracy, and write the model bundle.",
	RunE: runTrain,
}

func init() {
	defaults := config.Load().Training
	f := trainCmd.Flags()
	f.String("data", "ml/data/synthetic_cap_profiles.csv", "Training data (.csv or .xlsx)")
	f.String("out", config.Load().ModelBundle, "Model bundle output path")
	f.String("metadata", "", "Metadata output path (default: model_metadata.json next to the bundle)")
	f.Uint64("seed", uint64(defaults.Seed), "Forest and split seed")
	f.Int("trees", defaults.Trees, "Trees per forest")
	f.Int("max-depth", defaults.MaxDepth, "Maximum tree depth")
	f.Int("min-leaf", defaults.MinLeaf, "Minimum samples per leaf")
	f.Int("folds", defaults.Folds, "Cross-validation folds")
	f.Float64("min-accuracy", defaults.MinAccuracy, "Flag targets below this held-out accuracy")
	f.StringSlice("candidates", nil, "Hyper-parameter candidates as trees:depth:leaf, tried per target")
	f.Bool("notify", true, "Post to Slack and NATS when configured")

	envDefaults[trainCmd] = map[string]envDefault{
		"out":          bundlePath,
		"seed":         func(c config.Config) string { return itoa(c.Training.Seed) },
		"trees":        func(c config.Config) string { return itoa(c.Training.Trees) },
		"max-depth":    func(c config.Config) string { return itoa(c.Training.MaxDepth) },
		"min-leaf":     func(c config.Config) string { return itoa(c.Training.MinLeaf) },
		"folds":        func(c config.Config) string { return itoa(c.Training.Folds) },
		"min-accuracy": func(c config.Config) string { return ftoa(c.Training.MinAccuracy) },
	}
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	dataPath, _ := f.GetString("data")
	out, _ := f.GetString("out")
	metaPath, _ := f.GetString("metadata")
	notify, _ := f.GetBool("notify")

	opts, err := trainOptions(cmd)
	if err != nil {
		return err
	}

	rows, err := readDataset(dataPath)
	if err != nil {
		return err
	}

	started := time.Now().UTC()
	bundle, rep, err := model.Train(ctx, rows, opts)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	finished := time.Now().UTC()

	if err := ensureParent(out); err != nil {
		return err
	}
	if err := model.SaveFile(out, bundle); err != nil {
		return err
	}
	if metaPath == "" {
		metaPath = filepath.Join(filepath.Dir(out), "model_metadata.json")
	}
	if err := writeMetadata(metaPath, bundle, rep); err != nil {
		return err
	}

	if err := rep.Write(cmd.OutOrStdout()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nBundle:   %s\nMetadata: %s\n", out, metaPath)

	if err := recordRun(cmd, runlog.Run{
		Version:      rep.Version,
		DataPath:     dataPath,
		BundlePath:   out,
		Rows:         rep.Rows,
		Seed:         opts.SplitSeed,
		MeanAccuracy: rep.Summary.Mean,
		Accuracy:     rep.Accuracies(),
		Flagged:      rep.Flagged,
		StartedAt:    started,
		FinishedAt:   finished,
	}); err != nil {
		// Run history is best-effort once the bundle is written.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	if notify {
		announce(cmd, rep, out)
	}
	return nil
}

func trainOptions(cmd *cobra.Command) (model.TrainOptions, error) {
	f := cmd.Flags()
	seed, _ := f.GetUint64("seed")
	trees, _ := f.GetInt("trees")
	depth, _ := f.GetInt("max-depth")
	leaf, _ := f.GetInt("min-leaf")
	folds, _ := f.GetInt("folds")
	minAcc, _ := f.GetFloat64("min-accuracy")
	candidates, _ := f.GetStringSlice("candidates")

	opts := model.DefaultTrainOptions()
	opts.Params.Trees = trees
	opts.Params.MaxDepth = depth
	opts.Params.MinSamplesLeaf = leaf
	opts.Params.Seed = seed
	opts.SplitSeed = seed
	opts.Folds = folds
	opts.MinAccuracy = minAcc

	for _, c := range candidates {
		p, err := parseCandidate(c, opts.Params)
		if err != nil {
			return opts, err
		}
		opts.Candidates = append(opts.Candidates, p)
	}
	return opts, nil
}

// parseCandidate reads "trees:depth:leaf"; trailing parts may be omitted.
func parseCandidate(s string, base forest.Params) (forest.Params, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return base, fmt.Errorf("candidate %q: want trees:depth:leaf", s)
	}
	dst := []*int{&base.Trees, &base.MaxDepth, &base.MinSamplesLeaf}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return base, fmt.Errorf("candidate %q: %q is not a positive integer", s, p)
		}
		*dst[i] = n
	}
	return base, nil
}

func readDataset(path string) ([]dataset.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var rows []dataset.Row
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = dataset.ReadXLSX(f)
	} else {
		rows, err = dataset.ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func writeMetadata(path string, b *model.Bundle, rep *model.Report) error {
	data, err := json.MarshalIndent(struct {
		model.Metadata
		Report *model.Report `json:"report"`
	}{b.Metadata(), rep}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := ensureParent(path); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func recordRun(cmd *cobra.Command, run runlog.Run) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve run database: %w", err)
	}
	runs, err := runlog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer runs.Close()

	if _, err := runs.Record(cmd.Context(), run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// announce posts the report to Slack and publishes model.trained so running
// services reload. Both are skipped when unconfigured.
func announce(cmd *cobra.Command, rep *model.Report, bundlePath string) {
	ctx := cmd.Context()
	cfg := config.Load()
	logger := slog.Default()

	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		poster := slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, logger)
		ts, err := poster.PostTrainingReport(ctx, rep, bundlePath)
		if err != nil {
			logger.Warn("failed to post training report", "error", err)
		} else if err := poster.PostClassReports(ctx, ts, rep); err != nil {
			logger.Warn("failed to post class reports", "error", err)
		}
	}

	if cfg.NatsURL == "" {
		return
	}
	abs, err := filepath.Abs(bundlePath)
	if err != nil {
		abs = bundlePath
	}
	client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
	if err != nil {
		logger.Warn("failed to connect to NATS", "error", err)
		return
	}
	defer client.Close()

	evt := hermes.ModelTrainedEvent{
		Version:    rep.Version,
		BundlePath: abs,
		Rows:       rep.Rows,
		Accuracy:   rep.Accuracies(),
		Flagged:    rep.Flagged,
		Timestamp:  time.Now().UTC(),
	}
	if err := client.Publish(hermes.SubjectModelTrained, evt); err != nil {
		logger.Warn("failed to publish model trained event", "error", err)
		return
	}
	if err := client.Flush(ctx); err != nil {
		logger.Warn("failed to flush NATS", "error", err)
	}
}
