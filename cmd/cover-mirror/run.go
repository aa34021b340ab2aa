// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cover-mirror/internal/catalog"
	"github.com/pdiddy/cover-mirror/internal/fetch"
	"github.com/pdiddy/cover-mirror/internal/history"
	"github.com/pdiddy/cover-mirror/internal/httputil"
	"github.com/pdiddy/cover-mirror/internal/library"
	"github.com/pdiddy/cover-mirror/internal/mirror"
	"github.com/pdiddy/cover-mirror/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run [series...]",
	Short: "Mirror covers for local series",
	Long: `Run matches local series against the catalog and downloads their covers.

With no series arguments every series directory in the source is processed,
after confirmation unless --yes is given. Names that do not exist in the
source directory are reported with close matches and skipped. Covers already
present in the destination are not downloaded again.`,
	RunE: runMirror,
}

func init() {
	runCmd.Flags().Float64("delay", 0, "seconds to pause after every cover and between series (default 1.0)")
	runCmd.Flags().StringArray("series", nil, "series directory name to process (repeatable)")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	runCmd.Flags().String("report", "", "write the run report to this .yaml or .json file")

	bindFlag("mirror.delay", runCmd.Flags().Lookup("delay"))
	bindFlag("mirror.assume_yes", runCmd.Flags().Lookup("yes"))

	rootCmd.AddCommand(runCmd)
}

func runMirror(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	requested, _ := cmd.Flags().GetStringArray("series")
	requested = append(requested, args...)
	if len(requested) == 0 {
		requested = cfg.Mirror.Series
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	available, err := library.ListSeries(cfg.Mirror.SourceDir)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return fmt.Errorf("no series found in %s", cfg.Mirror.SourceDir)
	}

	names := available
	if len(requested) > 0 {
		var unknown []string
		names, unknown = library.Resolve(available, requested)
		reportUnknown(out, available, unknown)
		if len(names) == 0 {
			return fmt.Errorf("none of the requested series exist in %s", cfg.Mirror.SourceDir)
		}
	} else if !cfg.Mirror.AssumeYes {
		ok, err := confirm(cmd.InOrStdin(), out,
			fmt.Sprintf("Download covers for all %d series?", len(names)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	lock, err := mirror.LockDest(cfg.Mirror.DestDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := httputil.NewClient(cfg.Catalog.HTTPConfig)
	defer client.CloseIdleConnections()

	opts := mirror.Options{
		SourceDir: cfg.Mirror.SourceDir,
		DestDir:   cfg.Mirror.DestDir,
		Delay:     cfg.Mirror.Delay,
		Out:       out,
	}
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("run history disabled")
		} else {
			defer store.Close()
			opts.History = store
		}
	}

	runner := mirror.New(
		catalog.New(client, cfg.Catalog, logger),
		fetch.New(client, cfg.Catalog.UploadsBase, cfg.Mirror.DestDir, logger),
		opts,
		logger,
	)

	fmt.Fprintf(out, "Mirroring %d series from %s into %s\n\n", len(names), cfg.Mirror.SourceDir, cfg.Mirror.DestDir)
	rep := runner.Run(ctx, names)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := report.Export(path, rep); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(out, "Report written to %s\n", path)
	}

	if rep.Interrupted {
		return errInterrupted
	}
	return nil
}

// reportUnknown prints requested names missing from the source with up to
// library.MaxSuggestions close names each.
func reportUnknown(w io.Writer, available, unknown []string) {
	for _, name := range unknown {
		fmt.Fprintf(w, "%q not found in source directory, skipping\n", name)
		if similar := library.Suggest(available, name); len(similar) > 0 {
			fmt.Fprintln(w, "Did you mean one of these?")
			for _, s := range similar {
				fmt.Fprintf(w, "  - %s\n", s)
			}
		}
	}
}

// confirm asks a yes/no question on w and reads the answer from r. Anything
// other than y or yes declines.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s (y/N): ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
