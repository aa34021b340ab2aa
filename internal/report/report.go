// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders run reports as terminal tables and exports them as
// YAML or JSON files.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cover-mirror/pkg/types"
)

// ErrUnknownFormat is returned by Export for an unsupported file extension.
var ErrUnknownFormat = errors.New("unknown report format")

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// WriteSummary writes the run statistics table.
func WriteSummary(w io.Writer, rep types.RunReport) {
	s := rep.Stats
	rows := [][]string{
		{"Total series", strconv.Itoa(s.TotalSeries)},
		{"Matched on remote", strconv.Itoa(s.MatchedOnRemote)},
		{"Covers downloaded", strconv.Itoa(s.CoversDownloaded)},
		{"  already present", strconv.Itoa(s.CoversSkipped)},
		{"Covers failed", strconv.Itoa(s.CoversFailed)},
		{"Downloaded", humanize.Bytes(uint64(max(s.BytesDownloaded, 0)))},
		{"Errors", strconv.Itoa(s.Errors)},
		{"Duration", formatDuration(rep.Duration())},
	}
	if rep.Interrupted {
		rows = append(rows, []string{"Interrupted", "yes"})
	}
	fmt.Fprintln(w, renderTable([]string{"Run " + shortID(rep.RunID), ""}, rows, []columnAlignment{alignLeft, alignRight}))
}

// WriteSeries writes one row per processed series.
func WriteSeries(w io.Writer, outcomes []types.SeriesOutcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.MatchedTitle
		if o.Error != "" {
			detail = o.Error
		}
		rows = append(rows, []string{
			o.Name,
			string(o.Status),
			strconv.Itoa(o.Downloaded) + "/" + strconv.Itoa(o.Covers),
			strconv.Itoa(o.Skipped),
			strconv.Itoa(o.Failed),
			detail,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Series", "Status", "Covers", "Present", "Failed", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

// WriteHistory writes one row per recorded run, most recent first as given.
func WriteHistory(w io.Writer, runs []types.RunReport) {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		state := "complete"
		if r.Interrupted {
			state = "interrupted"
		}
		rows = append(rows, []string{
			shortID(r.RunID),
			r.StartedAt.Local().Format(time.DateTime),
			formatDuration(r.Duration()),
			strconv.Itoa(r.Stats.TotalSeries),
			strconv.Itoa(r.Stats.MatchedOnRemote),
			strconv.Itoa(r.Stats.CoversDownloaded),
			strconv.Itoa(r.Stats.Errors),
			state,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Run", "Started", "Duration", "Series", "Matched", "Covers", "Errors", "State"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}

// Export writes rep to path. The format follows the extension: .yaml or .yml
// for YAML, .json for JSON.
func Export(path string, rep types.RunReport) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	case ".json":
		data, err = json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("%w %q (use .yaml, .yml or .json)", ErrUnknownFormat, ext)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
