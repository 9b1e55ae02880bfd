package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vantage/internal/config"
	"github.com/MikeSquared-Agency/vantage/internal/dataset"
	"github.com/MikeSquared-Agency/vantage/internal/synth"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a labelled synthetic CAP dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, _ := cmd.Flags().GetInt("rows")
		seed, _ := cmd.Flags().GetUint64("seed")
		noise, _ := cmd.Flags().GetFloat64("noise")
		workers, _ := cmd.Flags().GetInt("workers")
		out, _ := cmd.Flags().GetString("out")
		xlsx, _ := cmd.Flags().GetString("xlsx")

		data, err := synth.Generate(cmd.Context(), synth.Options{
			Rows:      rows,
			Seed:      seed,
			NoiseRate: noise,
			Workers:   workers,
		})
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}

		if err := writeFile(out, func(f *os.File) error { return dataset.WriteCSV(f, data) }); err != nil {
			return err
		}
		if xlsx != "" {
			if err := writeFile(xlsx, func(f *os.File) error { return dataset.WriteXLSX(f, data) }); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Generated %d rows -> %s\n\n", len(data), out)
		return synth.Summarize(data).Write(cmd.OutOrStdout())
	},
}

func init() {
	defaults := config.Load().Training
	generateCmd.Flags().Int("rows", defaults.Rows, "Number of profiles to generate")
	generateCmd.Flags().Uint64("seed", uint64(defaults.Seed), "Random seed")
	generateCmd.Flags().Float64("noise", defaults.NoiseRate, "Label noise rate in [0, 1]")
	generateCmd.Flags().Int("workers", 0, "Generator goroutines (0 = GOMAXPROCS)")
	generateCmd.Flags().String("out", "ml/data/synthetic_cap_profiles.csv", "CSV output path")
	generateCmd.Flags().String("xlsx", "", "Also write a spreadsheet copy to this path")

	envDefaults[generateCmd] = map[string]envDefault{
		"rows":  func(c config.Config) string { return itoa(c.Training.Rows) },
		"seed":  func(c config.Config) string { return itoa(c.Training.Seed) },
		"noise": func(c config.Config) string { return ftoa(c.Training.NoiseRate) },
	}
}

func writeFile(path string, write func(*os.File) error) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
