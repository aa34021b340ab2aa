// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cover-mirror/pkg/types"
)

// setViper overrides key for the duration of the test.
func setViper(t *testing.T, key string, value any) {
	t.Helper()
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, nil) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setViper(t, "mirror.source_dir", "/lib/manga")
	setViper(t, "mirror.dest_dir", "/lib/covers")
	setViper(t, "mirror.delay", "0.25")
	setViper(t, "mirror.series", []string{"Berserk", "One Piece"})
	setViper(t, "catalog.timeout", "5s")
	setViper(t, "catalog.api_base", "http://localhost:9000")
	setViper(t, "catalog.search_limit", 25)
	setViper(t, "log.level", "debug")
	setViper(t, "history.path", "")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/lib/manga", cfg.Mirror.SourceDir)
	assert.Equal(t, "/lib/covers", cfg.Mirror.DestDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Mirror.Delay)
	assert.Equal(t, []string{"Berserk", "One Piece"}, cfg.Mirror.Series)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "http://localhost:9000", cfg.Catalog.APIBase)
	assert.Equal(t, types.DefaultUploadsBase, cfg.Catalog.UploadsBase)
	assert.Equal(t, 25, cfg.Catalog.SearchLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.History.Path)
}

func TestLoadConfig_BadDelay(t *testing.T) {
	setViper(t, "mirror.delay", "soon")
	_, err := loadConfig()
	assert.ErrorContains(t, err, "mirror.delay")
}

func TestLoadConfig_Environment(t *testing.T) {
	dest := t.TempDir()
	t.Setenv("COVER_MIRROR_MIRROR_DEST_DIR", dest)
	t.Setenv("COVER_MIRROR_MIRROR_DELAY", "2.5")
	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, dest, cfg.Mirror.DestDir)
	assert.Equal(t, 2500*time.Millisecond, cfg.Mirror.Delay)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{" YES \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirm(strings.NewReader(tt.input), &out, "Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Proceed? (y/N): ", out.String())
		})
	}
}

func TestReportUnknown(t *testing.T) {
	var out bytes.Buffer
	reportUnknown(&out, []string{"One Piece", "One-Punch Man", "Berserk"}, []string{"one", "Naruto"})

	got := out.String()
	assert.Contains(t, got, `"one" not found in source directory`)
	assert.Contains(t, got, "  - One Piece\n  - One-Punch Man\n")
	assert.Contains(t, got, `"Naruto" not found`)
	assert.Equal(t, 1, strings.Count(got, "Did you mean"))
}

func catalogStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("title") != "One Piece" {
			fmt.Fprint(w, `{"result":"ok","data":[]}`)
			return
		}
		fmt.Fprint(w, `{"result":"ok","data":[{"id":"op","attributes":{"title":{"en":"One Piece"}}}]}`)
	})
	mux.HandleFunc("/cover", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result":"ok","data":[
			{"id":"c1","attributes":{"fileName":"a.jpg","volume":"1"}},
			{"id":"c2","attributes":{"fileName":"b.jpg","volume":null}}
		]}`)
	})
	mux.HandleFunc("/covers/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("jpeg"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func executeArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := execute()
	return out.String(), err
}

func TestRunAndHistoryCommands(t *testing.T) {
	ts := catalogStub(t)
	root := t.TempDir()
	src := filepath.Join(root, "manga")
	dest := filepath.Join(root, "covers")
	for _, d := range []string{"One Piece", "Berserk"} {
		require.NoError(t, os.MkdirAll(filepath.Join(src, d), 0o755))
	}
	db := filepath.Join(root, "history.db")
	reportPath := filepath.Join(root, "run.yaml")

	out, err := executeArgs(t, "run",
		"--source", src, "--dest", dest,
		"--api-base", ts.URL, "--uploads-base", ts.URL,
		"--delay", "0", "--history-db", db, "--log-level", "error",
		"--report", reportPath,
		"--series", "One Piece", "berserk",
	)
	require.NoError(t, err)

	assert.Contains(t, out, `"berserk" not found in source directory`)
	assert.Contains(t, out, "  - Berserk")
	assert.Contains(t, out, "Mirroring 1 series")
	assert.Contains(t, out, "Total series")
	assert.FileExists(t, filepath.Join(dest, "One Piece", "One Piece - Volume 1.jpg"))
	assert.FileExists(t, filepath.Join(dest, "One Piece", "One Piece - Main Cover.jpg"))
	assert.FileExists(t, reportPath)
	assert.NoFileExists(t, filepath.Join(dest, "Berserk"))

	out, err = executeArgs(t, "history", "--history-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "complete")

	out, err = executeArgs(t, "list", "--source", src, "one")
	require.NoError(t, err)
	assert.Contains(t, out, "  1. One Piece")
	assert.NotContains(t, out, "Berserk")

	out, err = executeArgs(t, "probe", "--api-base", ts.URL, "--uploads-base", ts.URL, "--dest", dest, "One", "Piece")
	require.NoError(t, err)
	assert.Contains(t, out, `Selected: op "One Piece" (exact)`)
	assert.Contains(t, out, ts.URL+"/covers/op/a.jpg")
	assert.Contains(t, out, "One Piece - Volume 1.jpg")
}

func TestExecute_ClosesLogOnFailure(t *testing.T) {
	root := t.TempDir()
	logFile := filepath.Join(root, "logs", "run.log")

	closed := false
	closeLog = func() error { closed = true; return nil }
	t.Cleanup(func() { closeLog = func() error { return nil } })

	t.Cleanup(func() { rootCmd.PersistentFlags().Set("log-file", "") })

	_, err := executeArgs(t, "run", "--source", filepath.Join(root, "missing"), "--dest", filepath.Join(root, "covers"),
		"--history-db", "", "--log-file", logFile, "--yes")
	require.Error(t, err)
	assert.FileExists(t, logFile)
	// The command replaced the placeholder with the real closer, which execute
	// ran and then reset.
	assert.False(t, closed)
	assert.NoError(t, closeLog())
}

func TestExecute_ClosesLogOnUnknownCommand(t *testing.T) {
	closed := false
	closeLog = func() error { closed = true; return nil }
	t.Cleanup(func() { closeLog = func() error { return nil } })

	_, err := executeArgs(t, "no-such-command")
	require.Error(t, err)
	assert.True(t, closed)
}

func TestVersionCommand(t *testing.T) {
	out, err := executeArgs(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cover-mirror dev\n", out)
}
