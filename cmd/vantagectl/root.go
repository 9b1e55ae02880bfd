package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vantage/internal/config"
	"github.com/MikeSquared-Agency/vantage/internal/logging"
	"github.com/MikeSquared-Agency/vantage/internal/runlog"
)

var rootCmd = &cobra.Command{
	Use:   "vantagectl",
	Short: "Generate data, train and inspect Vantage UI models",
	Long: "vantagectl builds the synthetic CAP dataset, trains the UI configuration " +
		"model bundle and inspects past training runs.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		level, _ := cmd.Flags().GetString("log-level")
		logging.Setup(level)
		return applyEnvDefaults(cmd, config.Load(), envDefaults[cmd])
	},
}

// envDefault reads a flag's fallback from the environment configuration.
type envDefault func(config.Config) string

// envDefaults holds, per command, the flags whose defaults come from the
// environment. They are resolved after .env is loaded, so flag registration
// in init never sees a half-populated environment.
var envDefaults = map[*cobra.Command]map[string]envDefault{}

// applyEnvDefaults sets every flag in defaults that was not given on the
// command line.
func applyEnvDefaults(cmd *cobra.Command, cfg config.Config, defaults map[string]envDefault) error {
	for name, get := range defaults {
		fl := cmd.Flags().Lookup(name)
		if fl == nil || fl.Changed {
			continue
		}
		if err := fl.Value.Set(get(cfg)); err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
	}
	return nil
}

func itoa(n int) string                 { return strconv.Itoa(n) }
func ftoa(f float64) string             { return strconv.FormatFloat(f, 'g', -1, 64) }
func bundlePath(c config.Config) string { return c.ModelBundle }

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to the training run database (overrides VANTAGE_RUNS_DB)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(runsCmd)
}

// resolveDBPath returns the run log path from --db, then VANTAGE_RUNS_DB,
// then the default, creating its directory.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("db")
	if p == "" {
		p = config.Load().RunsDB
	}
	return p, runlog.EnsureDir(p)
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
