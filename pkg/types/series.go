// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the cover-mirror pipeline:
// the series and cover records returned by the remote catalog, the outcome of
// a single cover download, and the statistics a run accumulates.
package types

import (
	"sort"
	"time"
)

// SeriesQuery is one batch entry: the local name of a series as it appears on
// disk. It is created per batch entry and consumed once.
type SeriesQuery struct {
	RawTitle string `json:"raw_title" yaml:"raw_title"`
}

// LocalizedTitles maps a locale code (e.g. "en", "ja-ro") to a title.
type LocalizedTitles map[string]string

// CandidateSeries is one series record returned by a catalog search.
type CandidateSeries struct {
	// ID is the catalog's opaque series identifier.
	ID string `json:"id" yaml:"id"`

	// Titles is the primary localized title mapping.
	Titles LocalizedTitles `json:"titles" yaml:"titles"`

	// AltTitles holds the catalog's alternative titles, each a single-locale map.
	AltTitles []LocalizedTitles `json:"alt_titles,omitempty" yaml:"alt_titles,omitempty"`
}

// AllTitles returns every localized title of the series in matching order:
// primary titles first, then alternates, each group sorted by locale key.
func (c CandidateSeries) AllTitles() []string {
	titles := sortedValues(c.Titles)
	for _, alt := range c.AltTitles {
		titles = append(titles, sortedValues(alt)...)
	}
	return titles
}

// DisplayTitle returns the English title if present, otherwise the first
// title in matching order, otherwise the ID.
func (c CandidateSeries) DisplayTitle() string {
	if t, ok := c.Titles["en"]; ok && t != "" {
		return t
	}
	if all := c.AllTitles(); len(all) > 0 {
		return all[0]
	}
	return c.ID
}

func sortedValues(m LocalizedTitles) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}
	return values
}

// MatchResult is the outcome of selecting a candidate for one query.
// Series is nil when no candidate matched.
type MatchResult struct {
	Series *CandidateSeries `json:"series,omitempty" yaml:"series,omitempty"`

	// Exact reports whether the selection came from the exact pass.
	Exact bool `json:"exact" yaml:"exact"`

	// Score is the partial-pass score of the selection; zero for exact matches.
	Score float64 `json:"score" yaml:"score"`

	// Title is the candidate title that produced the match.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Found reports whether a candidate was selected.
func (m MatchResult) Found() bool {
	return m.Series != nil
}

// CoverRecord is one cover image listed for a series.
type CoverRecord struct {
	ID       string `json:"id" yaml:"id"`
	FileName string `json:"file_name" yaml:"file_name"`

	// Volume is nil for a series-level cover not tied to a volume.
	Volume *string `json:"volume,omitempty" yaml:"volume,omitempty"`

	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`
}

// HasVolume reports whether the cover belongs to a specific volume.
func (c CoverRecord) HasVolume() bool {
	return c.Volume != nil && *c.Volume != ""
}

// DownloadOutcome is the result of one cover fetch.
type DownloadOutcome struct {
	LocalPath       string `json:"local_path" yaml:"local_path"`
	BytesWritten    int64  `json:"bytes_written" yaml:"bytes_written"`
	SkippedExisting bool   `json:"skipped_existing" yaml:"skipped_existing"`
}

// RunStats holds the counters accumulated during one run.
type RunStats struct {
	TotalSeries      int `json:"total_series" yaml:"total_series"`
	MatchedOnRemote  int `json:"matched_on_remote" yaml:"matched_on_remote"`
	CoversDownloaded int `json:"covers_downloaded" yaml:"covers_downloaded"`
	Errors           int `json:"errors" yaml:"errors"`

	// CoversSkipped counts covers already on disk; they are also included
	// in CoversDownloaded.
	CoversSkipped int `json:"covers_skipped" yaml:"covers_skipped"`
	CoversFailed  int `json:"covers_failed" yaml:"covers_failed"`

	// BytesDownloaded totals the bytes written by fresh downloads.
	BytesDownloaded int64 `json:"bytes_downloaded" yaml:"bytes_downloaded"`
}

// SeriesStatus classifies how processing of one series ended.
type SeriesStatus string

const (
	StatusMatched      SeriesStatus = "matched"
	StatusNotFound     SeriesStatus = "not_found"
	StatusSearchFailed SeriesStatus = "search_failed"
	StatusNoCovers     SeriesStatus = "no_covers"
)

// SeriesOutcome records what happened to one series during a run.
type SeriesOutcome struct {
	Name         string       `json:"name" yaml:"name"`
	Status       SeriesStatus `json:"status" yaml:"status"`
	SeriesID     string       `json:"series_id,omitempty" yaml:"series_id,omitempty"`
	MatchedTitle string       `json:"matched_title,omitempty" yaml:"matched_title,omitempty"`
	Exact        bool         `json:"exact,omitempty" yaml:"exact,omitempty"`
	Covers       int          `json:"covers" yaml:"covers"`
	Downloaded   int          `json:"downloaded" yaml:"downloaded"`
	Skipped      int          `json:"skipped" yaml:"skipped"`
	Failed       int          `json:"failed" yaml:"failed"`
	Error        string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunReport is the summary of one run: the statistics plus per-series detail.
type RunReport struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	SourceDir   string          `json:"source_dir" yaml:"source_dir"`
	DestDir     string          `json:"dest_dir" yaml:"dest_dir"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time       `json:"finished_at" yaml:"finished_at"`
	Interrupted bool            `json:"interrupted" yaml:"interrupted"`
	Stats       RunStats        `json:"stats" yaml:"stats"`
	Series      []SeriesOutcome `json:"series" yaml:"series"`
}

// Duration returns the wall-clock time the run took.
func (r RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
