package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vantage/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past training runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent training runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		l, err := runlog.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer l.Close()

		runs, err := l.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No training runs found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-19s  %-6s  %-8s  %-8s  %s\n", "ID", "Finished", "Rows", "Mean", "Took", "Flagged")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, r := range runs {
			fmt.Fprintf(out, "%-36s  %-19s  %-6d  %-8.3f  %-8s  %s\n",
				r.ID,
				r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
				r.Rows,
				r.MeanAccuracy,
				r.Duration().Round(time.Millisecond),
				strings.Join(r.Flagged, ","),
			)
		}
		return nil
	},
}

var runsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show one training run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		l, err := runlog.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer l.Close()

		r, err := l.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:      %s\n", r.ID)
		fmt.Fprintf(out, "Version:  %s\n", r.Version)
		fmt.Fprintf(out, "Data:     %s (%d rows, seed %d)\n", r.DataPath, r.Rows, r.Seed)
		fmt.Fprintf(out, "Bundle:   %s\n", r.BundlePath)
		fmt.Fprintf(out, "Started:  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Took:     %s\n\n", r.Duration())

		targets := make([]string, 0, len(r.Accuracy))
		for t := range r.Accuracy {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			fmt.Fprintf(out, "  %-15s %.3f\n", t, r.Accuracy[t])
		}
		fmt.Fprintf(out, "\nMean accuracy: %.3f\n", r.MeanAccuracy)
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "Maximum runs to show")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsViewCmd)
}
