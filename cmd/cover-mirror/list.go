// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cover-mirror/internal/library"
)

var listCmd = &cobra.Command{
	Use:   "list [term]",
	Short: "List local series, optionally filtered by a search term",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	names, err := library.ListSeries(appConfig.Mirror.SourceDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		term := args[0]
		names = library.Filter(names, term)
		if len(names) == 0 {
			fmt.Fprintf(out, "No series found matching %q\n", term)
			return nil
		}
		fmt.Fprintf(out, "Series matching %q (%d):\n", term, len(names))
	} else {
		fmt.Fprintf(out, "All series in %s (%d):\n", appConfig.Mirror.SourceDir, len(names))
	}

	for i, n := range names {
		fmt.Fprintf(out, "%3d. %s\n", i+1, n)
	}
	return nil
}
