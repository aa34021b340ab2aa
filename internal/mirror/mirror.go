// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mirror drives the cover pipeline over a batch of local series:
// search the catalog, pick the best match, list its covers and fetch each one,
// pausing between remote calls and accumulating run statistics.
//
// A run is strictly sequential. Every failure below the batch level is
// absorbed into the statistics; only cancellation ends a run early.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/cover-mirror/internal/catalog"
	"github.com/pdiddy/cover-mirror/internal/httputil"
	"github.com/pdiddy/cover-mirror/internal/match"
	"github.com/pdiddy/cover-mirror/internal/report"
	"github.com/pdiddy/cover-mirror/pkg/types"
)

// LockFileName is created in the destination directory while a run holds it.
const LockFileName = ".cover-mirror.lock"

// ErrLocked is returned by LockDest when another process holds the lock.
var ErrLocked = errors.New("destination is in use by another run")

// Catalog is the remote lookup the runner needs.
type Catalog interface {
	SearchByTitle(ctx context.Context, rawTitle string) catalog.Result[types.CandidateSeries]
	ListCovers(ctx context.Context, seriesID string) catalog.Result[types.CoverRecord]
}

// Fetcher stores one cover locally.
type Fetcher interface {
	FetchCover(ctx context.Context, seriesLocalName string, cover types.CoverRecord, seriesID string) (types.DownloadOutcome, error)
}

// Recorder persists a finished run.
type Recorder interface {
	Record(ctx context.Context, rep types.RunReport) error
}

// Options configures a Runner.
type Options struct {
	SourceDir string
	DestDir   string
	Delay     time.Duration
	// Out receives progress lines and the final summary table.
	Out io.Writer
	// History, when set, receives every finished run.
	History Recorder
}

// Runner executes mirroring runs.
type Runner struct {
	catalog Catalog
	fetcher Fetcher
	opts    Options
	log     zerolog.Logger

	wait func(ctx context.Context, d time.Duration) error
}

// New returns a Runner over the given catalog and fetcher.
func New(cat Catalog, fetcher Fetcher, opts Options, log zerolog.Logger) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{
		catalog: cat,
		fetcher: fetcher,
		opts:    opts,
		log:     log.With().Str("component", "mirror").Logger(),
		wait:    httputil.Wait,
	}
}

// LockDest takes the destination lock without blocking. The caller releases
// it with Unlock when the run is over.
func LockDest(destDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", destDir, err)
	}
	lock := flock.New(filepath.Join(destDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking destination: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", destDir, ErrLocked)
	}
	return lock, nil
}

// Run processes names in order and returns the run report. Cancelling ctx
// stops the run at the next request or pause; the partial report is still
// returned with Interrupted set.
func (r *Runner) Run(ctx context.Context, names []string) types.RunReport {
	rep := types.RunReport{
		RunID:     uuid.NewString(),
		SourceDir: r.opts.SourceDir,
		DestDir:   r.opts.DestDir,
		StartedAt: time.Now().UTC(),
	}
	rep.Stats.TotalSeries = len(names)
	log := r.log.With().Str("run_id", rep.RunID).Logger()
	log.Info().Int("series", len(names)).Msg("starting run")

	for i, name := range names {
		fmt.Fprintf(r.opts.Out, "[%d/%d] %s\n", i+1, len(names), name)

		outcome, err := r.processSeries(ctx, name, &rep.Stats)
		rep.Series = append(rep.Series, outcome)
		if err != nil {
			rep.Interrupted = true
			break
		}

		if i < len(names)-1 {
			if err := r.wait(ctx, r.opts.Delay); err != nil {
				rep.Interrupted = true
				break
			}
		}
	}

	rep.FinishedAt = time.Now().UTC()
	r.finish(ctx, &rep, log)
	return rep
}

// processSeries handles one series. It returns an error only when ctx was
// cancelled; every other failure is recorded in the outcome and stats.
func (r *Runner) processSeries(ctx context.Context, name string, stats *types.RunStats) (types.SeriesOutcome, error) {
	outcome := types.SeriesOutcome{Name: name}
	log := r.log.With().Str("series", name).Logger()

	found := r.catalog.SearchByTitle(ctx, name)
	if err := ctx.Err(); err != nil {
		outcome.Status = types.StatusSearchFailed
		outcome.Error = err.Error()
		return outcome, err
	}

	best := match.SelectBestMatch(name, found.Items)
	if !best.Found() {
		stats.Errors++
		outcome.Status = types.StatusNotFound
		if found.Failed() {
			outcome.Status = types.StatusSearchFailed
			outcome.Error = found.Err.Error()
		}
		log.Warn().Str("status", string(outcome.Status)).Int("candidates", len(found.Items)).Msg("no matching series")
		fmt.Fprintf(r.opts.Out, "  not found\n")
		return outcome, nil
	}

	stats.MatchedOnRemote++
	outcome.Status = types.StatusMatched
	outcome.SeriesID = best.Series.ID
	outcome.MatchedTitle = best.Title
	outcome.Exact = best.Exact
	log.Info().Str("series_id", best.Series.ID).Str("title", best.Title).Bool("exact", best.Exact).Float64("score", best.Score).Msg("matched series")

	covers := r.catalog.ListCovers(ctx, best.Series.ID)
	if err := ctx.Err(); err != nil {
		return outcome, err
	}
	if len(covers.Items) == 0 {
		outcome.Status = types.StatusNoCovers
		if covers.Failed() {
			outcome.Error = covers.Err.Error()
			log.Warn().Err(covers.Err).Str("series_id", best.Series.ID).Msg("listing covers failed")
			fmt.Fprintf(r.opts.Out, "  matched %q, cover listing failed\n", best.Title)
			return outcome, nil
		}
		log.Warn().Str("series_id", best.Series.ID).Msg("no covers listed")
		fmt.Fprintf(r.opts.Out, "  matched %q, no covers\n", best.Title)
		return outcome, nil
	}
	outcome.Covers = len(covers.Items)

	for _, cover := range covers.Items {
		res, err := r.fetcher.FetchCover(ctx, name, cover, best.Series.ID)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return outcome, ctxErr
			}
			stats.CoversFailed++
			outcome.Failed++
			log.Warn().Err(err).Str("cover_id", cover.ID).Msg("cover download failed")
		case res.SkippedExisting:
			stats.CoversDownloaded++
			stats.CoversSkipped++
			outcome.Downloaded++
			outcome.Skipped++
		default:
			stats.CoversDownloaded++
			stats.BytesDownloaded += res.BytesWritten
			outcome.Downloaded++
		}

		if err := r.wait(ctx, r.opts.Delay); err != nil {
			return outcome, err
		}
	}

	fmt.Fprintf(r.opts.Out, "  matched %q: %d/%d covers (%d already present)\n",
		best.Title, outcome.Downloaded, outcome.Covers, outcome.Skipped)
	return outcome, nil
}

func (r *Runner) finish(ctx context.Context, rep *types.RunReport, log zerolog.Logger) {
	ev := log.Info()
	if rep.Interrupted {
		ev = log.Warn().Bool("interrupted", true)
	}
	ev.Int("total_series", rep.Stats.TotalSeries).
		Int("matched_on_remote", rep.Stats.MatchedOnRemote).
		Int("covers_downloaded", rep.Stats.CoversDownloaded).
		Int("errors", rep.Stats.Errors).
		Int64("bytes_downloaded", rep.Stats.BytesDownloaded).
		Dur("duration", rep.Duration()).
		Msg("run finished")

	fmt.Fprintln(r.opts.Out)
	report.WriteSummary(r.opts.Out, *rep)

	if r.opts.History == nil {
		return
	}
	// The run is recorded even when it was interrupted.
	if err := r.opts.History.Record(context.WithoutCancel(ctx), *rep); err != nil {
		log.Warn().Err(err).Msg("recording run history")
	}
}
