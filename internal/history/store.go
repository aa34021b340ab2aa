// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists finished runs in a SQLite database so that past
// runs can be listed and inspected.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cover-mirror/pkg/types"
)

// DefaultLimit is the number of runs List returns when limit is not positive.
const DefaultLimit = 20

// ErrNotFound is returned by Get for an unknown run.
var ErrNotFound = errors.New("run not found")

// Store records runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating the schema
// when it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_dir TEXT,
			dest_dir TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			interrupted INTEGER NOT NULL DEFAULT 0,
			total_series INTEGER NOT NULL,
			matched_on_remote INTEGER NOT NULL,
			covers_downloaded INTEGER NOT NULL,
			covers_skipped INTEGER NOT NULL,
			covers_failed INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			bytes_downloaded INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS series_outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			series_id TEXT,
			matched_title TEXT,
			exact INTEGER NOT NULL DEFAULT 0,
			covers INTEGER NOT NULL,
			downloaded INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores rep and its series outcomes. Recording the same run ID again
// replaces the earlier record.
func (s *Store) Record(ctx context.Context, rep types.RunReport) error {
	if rep.RunID == "" {
		return errors.New("recording run: empty run ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM series_outcomes WHERE run_id = ?`, rep.RunID); err != nil {
		return fmt.Errorf("clearing series outcomes: %w", err)
	}

	st := rep.Stats
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, source_dir, dest_dir, started_at, finished_at, interrupted,
			total_series, matched_on_remote, covers_downloaded, covers_skipped, covers_failed, errors, bytes_downloaded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.SourceDir, rep.DestDir, formatTime(rep.StartedAt), formatTime(rep.FinishedAt), rep.Interrupted,
		st.TotalSeries, st.MatchedOnRemote, st.CoversDownloaded, st.CoversSkipped, st.CoversFailed, st.Errors, st.BytesDownloaded,
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series_outcomes (run_id, position, name, status, series_id, matched_title, exact,
			covers, downloaded, skipped, failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing outcome insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range rep.Series {
		if _, err := stmt.ExecContext(ctx,
			rep.RunID, i, o.Name, string(o.Status), o.SeriesID, o.MatchedTitle, o.Exact,
			o.Covers, o.Downloaded, o.Skipped, o.Failed, o.Error,
		); err != nil {
			return fmt.Errorf("inserting outcome for %s: %w", o.Name, err)
		}
	}

	return tx.Commit()
}

// List returns the most recent runs, newest first, without series detail.
func (s *Store) List(ctx context.Context, limit int) ([]types.RunReport, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunReport
	for rows.Next() {
		rep, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its series outcomes. id may be a unique prefix of
// the run ID.
func (s *Store) Get(ctx context.Context, id string) (types.RunReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return types.RunReport{}, fmt.Errorf("querying run: %w", err)
	}
	var matches []types.RunReport
	for rows.Next() {
		rep, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return types.RunReport{}, err
		}
		matches = append(matches, rep)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return types.RunReport{}, fmt.Errorf("iterating runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return types.RunReport{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	case 1:
	default:
		return types.RunReport{}, fmt.Errorf("run ID prefix %q is ambiguous", id)
	}

	rep := matches[0]
	rep.Series, err = s.outcomes(ctx, rep.RunID)
	if err != nil {
		return types.RunReport{}, err
	}
	return rep, nil
}

func (s *Store) outcomes(ctx context.Context, runID string) ([]types.SeriesOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, series_id, matched_title, exact, covers, downloaded, skipped, failed, error
		 FROM series_outcomes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying series outcomes: %w", err)
	}
	defer rows.Close()

	var out []types.SeriesOutcome
	for rows.Next() {
		var (
			o      types.SeriesOutcome
			status string
		)
		if err := rows.Scan(&o.Name, &status, &o.SeriesID, &o.MatchedTitle, &o.Exact,
			&o.Covers, &o.Downloaded, &o.Skipped, &o.Failed, &o.Error); err != nil {
			return nil, fmt.Errorf("scanning series outcome: %w", err)
		}
		o.Status = types.SeriesStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

const runColumns = `id, source_dir, dest_dir, started_at, finished_at, interrupted,
	total_series, matched_on_remote, covers_downloaded, covers_skipped, covers_failed, errors, bytes_downloaded`

func scanRun(rows *sql.Rows) (types.RunReport, error) {
	var (
		rep               types.RunReport
		started, finished string
	)
	st := &rep.Stats
	if err := rows.Scan(&rep.RunID, &rep.SourceDir, &rep.DestDir, &started, &finished, &rep.Interrupted,
		&st.TotalSeries, &st.MatchedOnRemote, &st.CoversDownloaded, &st.CoversSkipped, &st.CoversFailed, &st.Errors, &st.BytesDownloaded); err != nil {
		return types.RunReport{}, fmt.Errorf("scanning run: %w", err)
	}
	rep.StartedAt = parseTime(started)
	rep.FinishedAt = parseTime(finished)
	return rep, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
