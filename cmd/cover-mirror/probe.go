// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cover-mirror/internal/catalog"
	"github.com/pdiddy/cover-mirror/internal/fetch"
	"github.com/pdiddy/cover-mirror/internal/httputil"
	"github.com/pdiddy/cover-mirror/internal/match"
)

var probeCmd = &cobra.Command{
	Use:   "probe <title>",
	Short: "Show how a title resolves on the catalog without downloading",
	Long: `Probe searches the catalog for a title, shows which candidate would be
selected and lists every cover with its download URL and the local file name
it would be saved under. Nothing is written to disk.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	rawTitle := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	client := httputil.NewClient(cfg.Catalog.HTTPConfig)
	defer client.CloseIdleConnections()
	cat := catalog.New(client, cfg.Catalog, logger)
	fetcher := fetch.New(client, cfg.Catalog.UploadsBase, cfg.Mirror.DestDir, logger)

	fmt.Fprintf(out, "Search: %s\n", cat.SearchURL(rawTitle))
	found := cat.SearchByTitle(cmd.Context(), rawTitle)
	if found.Failed() {
		return fmt.Errorf("search failed: %w", found.Err)
	}
	fmt.Fprintf(out, "Candidates (%d):\n", len(found.Items))
	for _, c := range found.Items {
		fmt.Fprintf(out, "  %s  %s\n", c.ID, c.DisplayTitle())
	}

	best := match.SelectBestMatch(rawTitle, found.Items)
	if !best.Found() {
		fmt.Fprintln(out, "No match.")
		return nil
	}
	kind := "exact"
	if !best.Exact {
		kind = fmt.Sprintf("partial, score %.3f", best.Score)
	}
	fmt.Fprintf(out, "Selected: %s %q (%s)\n", best.Series.ID, best.Title, kind)

	covers := cat.ListCovers(cmd.Context(), best.Series.ID)
	if covers.Failed() {
		return fmt.Errorf("listing covers failed: %w", covers.Err)
	}
	fmt.Fprintf(out, "Covers (%d):\n", len(covers.Items))
	dir := fetcher.SeriesDir(rawTitle)
	for _, c := range covers.Items {
		name, err := fetch.FileName(dir, rawTitle, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s\n    -> %s\n", fetcher.CoverURL(best.Series.ID, c.FileName), filepath.Join(dir, name))
	}
	return nil
}
