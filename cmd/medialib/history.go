package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"media-library/internal/tui"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the compression history",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryForgetCmd(), newHistoryRunsCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files already compressed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			for _, path := range env.ledger.Paths() {
				fmt.Fprintln(out, path)
			}
			return nil
		},
	}
}

func newHistoryForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <path>",
		Short: "Remove a file from the history so it is compressed again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if !env.ledger.Contains(path) {
				return fmt.Errorf("%s is not in the history", path)
			}
			if err := env.ledger.Forget(path); err != nil {
				return fmt.Errorf("failed to update history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", path)
			return nil
		},
	}
}

func newHistoryRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent compression runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			env, err := openEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			runs, err := env.db.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No compression runs recorded.")
				return nil
			}
			for _, run := range runs {
				status := "completed"
				if run.Cancelled {
					status = "cancelled"
				}
				target := run.Scope
				if run.Category != "" {
					target += " " + run.Category
				}
				rows := []tui.SummaryRow{
					{Label: "Run", Value: "#" + strconv.FormatInt(run.ID, 10) + " " + run.StartedAt.Local().Format(time.DateTime)},
					{Label: "Target", Value: target + " (" + run.Codec + ")"},
					{Label: "Status", Value: status},
					{Label: "Compressed", Value: fmt.Sprintf("%d/%d", run.Processed, run.Total)},
					{Label: "Skipped / failed", Value: fmt.Sprintf("%d / %d", run.Skipped, run.Failed)},
					{Label: "Duration", Value: run.Duration.Round(time.Second).String()},
				}
				fmt.Fprintln(out, tui.RenderSummary(rows))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
