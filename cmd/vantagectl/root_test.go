package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/vantage/internal/config"
)

// unsetenv clears key for the test and restores it afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestApplyEnvDefaults(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Int("trees", 200, "")
	cmd.Flags().Int("folds", 5, "")
	cmd.Flags().String("out", "default.json", "")
	require.NoError(t, cmd.Flags().Set("folds", "3"))

	cfg := config.Config{ModelBundle: "/models/from-env.json"}
	cfg.Training.Trees = 17
	cfg.Training.Folds = 9

	err := applyEnvDefaults(cmd, cfg, map[string]envDefault{
		"trees":   func(c config.Config) string { return itoa(c.Training.Trees) },
		"folds":   func(c config.Config) string { return itoa(c.Training.Folds) },
		"out":     bundlePath,
		"missing": bundlePath,
	})
	require.NoError(t, err)

	trees, _ := cmd.Flags().GetInt("trees")
	folds, _ := cmd.Flags().GetInt("folds")
	out, _ := cmd.Flags().GetString("out")
	assert.Equal(t, 17, trees)
	assert.Equal(t, 3, folds, "explicit flags win over the environment")
	assert.Equal(t, "/models/from-env.json", out)
}

func TestApplyEnvDefaults_BadValue(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Int("trees", 200, "")
	err := applyEnvDefaults(cmd, config.Config{}, map[string]envDefault{
		"trees": func(config.Config) string { return "many" },
	})
	assert.ErrorContains(t, err, "--trees")
}

func TestTrainReadsDotEnvDefaults(t *testing.T) {
	for _, key := range []string{"VANTAGE_MODEL_BUNDLE", "VANTAGE_TREES", "VANTAGE_MAX_DEPTH"} {
		unsetenv(t, key)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte(
		"VANTAGE_MODEL_BUNDLE=models/dotenv_bundle.json\nVANTAGE_TREES=17\nVANTAGE_MAX_DEPTH=4\n"), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"train", "--data", filepath.Join(dir, "missing.csv"), "--trees", "3"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err, "no dataset to train on")

	f := trainCmd.Flags()
	out, _ := f.GetString("out")
	trees, _ := f.GetInt("trees")
	depth, _ := f.GetInt("max-depth")
	assert.Equal(t, "models/dotenv_bundle.json", out)
	assert.Equal(t, 3, trees)
	assert.Equal(t, 4, depth)
}
