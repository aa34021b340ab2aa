// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cover-mirror/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeRun(id string, started time.Time) types.RunReport {
	return types.RunReport{
		RunID:      id,
		SourceDir:  "/manga",
		DestDir:    "/covers",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Stats: types.RunStats{
			TotalSeries:      2,
			MatchedOnRemote:  1,
			CoversDownloaded: 3,
			Errors:           1,
			CoversSkipped:    1,
			BytesDownloaded:  48_213,
		},
		Series: []types.SeriesOutcome{
			{Name: "One Piece", Status: types.StatusMatched, SeriesID: "a1", MatchedTitle: "One Piece", Exact: true, Covers: 3, Downloaded: 3, Skipped: 1},
			{Name: "NonexistentSeries123", Status: types.StatusNotFound},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rep := makeRun("11111111-2222-3333-4444-555555555555", start)

	require.NoError(t, s.Record(ctx, rep))

	got, err := s.Get(ctx, rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, got.RunID)
	assert.Equal(t, rep.Stats, got.Stats)
	assert.True(t, rep.StartedAt.Equal(got.StartedAt))
	assert.True(t, rep.FinishedAt.Equal(got.FinishedAt))
	assert.Equal(t, rep.Series, got.Series)
	assert.False(t, got.Interrupted)

	byPrefix, err := s.Get(ctx, "11111111")
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, byPrefix.RunID)
}

func TestRecord_ReplacesSameRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rep := makeRun("run-a", time.Now().UTC())
	require.NoError(t, s.Record(ctx, rep))

	rep.Interrupted = true
	rep.Series = rep.Series[:1]
	require.NoError(t, s.Record(ctx, rep))

	got, err := s.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, got.Interrupted)
	assert.Len(t, got.Series, 1)

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecord_EmptyID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Record(context.Background(), types.RunReport{}))
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.Record(ctx, makeRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)
	assert.Empty(t, runs[0].Series)
}

func TestList_OrdersWithinOneSecond(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	// Whole second, then 100ms and 120ms past it: variable-width fractions
	// would sort these out of order.
	offsets := map[string]time.Duration{
		"whole": 0,
		"tenth": 100 * time.Millisecond,
		"later": 120 * time.Millisecond,
	}
	for id, d := range offsets {
		require.NoError(t, s.Record(ctx, makeRun(id, base.Add(d))))
	}

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "later", runs[0].RunID)
	assert.Equal(t, "tenth", runs[1].RunID)
	assert.Equal(t, "whole", runs[2].RunID)
	assert.True(t, base.Add(120*time.Millisecond).Equal(runs[0].StartedAt))
}

func TestFormatTime_FixedWidth(t *testing.T) {
	a := formatTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2026, 1, 1, 0, 0, 0, 5e8, time.FixedZone("X", 3600)))
	assert.Equal(t, "2026-01-01T00:00:00.000000000Z", a)
	assert.Equal(t, len(a), len(b))
	assert.Less(t, b, a)
	assert.Empty(t, formatTime(time.Time{}))
}

func TestGet_NotFoundAndAmbiguous(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, s.Record(ctx, makeRun("abc-1", now)))
	require.NoError(t, s.Record(ctx, makeRun("abc-2", now)))

	_, err := s.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "abc")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = s.Get(ctx, "abc_")
	assert.ErrorIs(t, err, ErrNotFound, "LIKE wildcards are matched literally")
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), makeRun("keep", time.Now().UTC())))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	runs, err := s2.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "keep", runs[0].RunID)
}
