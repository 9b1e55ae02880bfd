package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vantage/internal/config"
	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/model"
	"github.com/MikeSquared-Agency/vantage/internal/predict"
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	"github.com/MikeSquared-Agency/vantage/internal/rules"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Show the UI configuration for a CAP",
	Long: "Print the rule-based configuration for a CAP and, when a model bundle " +
		"is available, the model's prediction next to it.",
	Example: "  vantagectl infer --disorders dyslexia,adhd --support full-agent --sensory bright",
	RunE:    runInfer,
}

func init() {
	f := inferCmd.Flags()
	f.StringSlice("disorders", nil, "Diagnosed conditions")
	f.String("support", "step-by-step", "Support level")
	f.String("density", "moderate", "Information density preference")
	f.String("horizon", "72h", "Deadline reminder horizon")
	f.StringSlice("sensory", nil, "Sensory flags")
	f.String("model", config.Load().ModelBundle, "Model bundle to compare against (empty to skip)")
	f.Bool("json", false, "Print JSON instead of a table")

	envDefaults[inferCmd] = map[string]envDefault{"model": bundlePath}
}

type inferResult struct {
	Profile  profile.Profile          `json:"profile"`
	Features features.Vector          `json:"features"`
	Rules    ui.UIConfig              `json:"rules"`
	Model    *ui.UIConfig             `json:"model,omitempty"`
	Version  string                   `json:"model_version,omitempty"`
	Unmapped []features.UnmappedCount `json:"unmapped,omitempty"`
}

func runInfer(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	disorders, _ := f.GetStringSlice("disorders")
	support, _ := f.GetString("support")
	density, _ := f.GetString("density")
	horizon, _ := f.GetString("horizon")
	sensory, _ := f.GetStringSlice("sensory")
	bundlePath, _ := f.GetString("model")
	asJSON, _ := f.GetBool("json")

	raw := profile.RawProfile{
		Disorders:          disorders,
		SupportLevel:       support,
		InformationDensity: density,
		TimeHorizon:        horizon,
		SensoryFlags:       sensory,
	}

	tally := features.NewTally()
	enc := features.NewEncoder(tally, nil)
	p := enc.Parse(raw)

	res := inferResult{
		Profile:  p,
		Features: features.EncodeProfile(p),
		Rules:    rules.Infer(p),
	}

	if bundlePath != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		b, err := model.LoadFile(ctx, bundlePath)
		cancel()
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Fprintf(cmd.ErrOrStderr(), "no model bundle at %s, showing rules only\n", bundlePath)
		case err != nil:
			return err
		default:
			cfg, err := predict.New(b, enc).Predict(res.Features)
			if err != nil {
				return err
			}
			res.Model = &cfg
			res.Version = b.Version
		}
	}
	res.Unmapped = tally.Snapshot()

	if asJSON {
		e := json.NewEncoder(cmd.OutOrStdout())
		e.SetIndent("", "  ")
		return e.Encode(res)
	}
	writeInfer(cmd.OutOrStdout(), res)
	return nil
}

func writeInfer(w io.Writer, res inferResult) {
	names := make([]string, len(res.Profile.Disorders))
	for i, d := range res.Profile.Disorders {
		names[i] = string(d)
	}
	fmt.Fprintf(w, "Profile: disorders=[%s] support=%s density=%s horizon=%s\n",
		strings.Join(names, ","), res.Profile.Support, res.Profile.DensityPref, res.Profile.Horizon)
	for _, u := range res.Unmapped {
		fmt.Fprintf(w, "  unmapped %s=%q\n", u.Field, u.Value)
	}
	fmt.Fprintln(w)

	header := fmt.Sprintf("%-15s  %-10s", "Attribute", "Rules")
	if res.Model != nil {
		header += fmt.Sprintf("  %-10s", "Model "+res.Version[:min(8, len(res.Version))])
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("─", len(header)))

	for _, a := range ui.CategoricalAttributes {
		r, _ := res.Rules.Value(a)
		line := fmt.Sprintf("%-15s  %-10s", a, r)
		if res.Model != nil {
			m, _ := res.Model.Value(a)
			line += fmt.Sprintf("  %-10s%s", m, diffMark(r != m))
		}
		fmt.Fprintln(w, line)
	}
	for _, a := range ui.BooleanAttributes {
		r, _ := res.Rules.Flag(a)
		line := fmt.Sprintf("%-15s  %-10t", a, r)
		if res.Model != nil {
			m, _ := res.Model.Flag(a)
			line += fmt.Sprintf("  %-10t%s", m, diffMark(r != m))
		}
		fmt.Fprintln(w, line)
	}
}

func diffMark(differs bool) string {
	if differs {
		return " *"
	}
	return ""
}
