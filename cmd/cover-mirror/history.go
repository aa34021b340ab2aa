// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cover-mirror/internal/history"
	"github.com/pdiddy/cover-mirror/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past runs, or the per-series detail of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", history.DefaultLimit, "number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := appConfig.History.Path
	if path == "" {
		return errors.New("run history is disabled (set history.path or --history-db)")
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		rep, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		report.WriteSummary(out, rep)
		report.WriteSeries(out, rep.Series)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	report.WriteHistory(out, runs)
	return nil
}
