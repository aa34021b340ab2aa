// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logx builds the zerolog logger used across cover-mirror.
//
// Console output is human-readable and coloured only when the destination is
// a terminal; the optional log file always receives JSON lines so that runs
// can be inspected afterwards.
package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options describes logger construction parameters.
type Options struct {
	// Level is one of trace, debug, info, warn, error (default info).
	Level string
	// Format is "console" (default) or "json".
	Format string
	// File, when set, additionally receives every event as JSON.
	File string
	// Out is the console destination (default os.Stderr).
	Out io.Writer
}

// New returns a logger for opts and a function releasing any file it opened.
func New(opts Options) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), noop, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var console io.Writer
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		console = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !IsTerminal(out),
			TimeFormat: time.DateTime,
		}
	case "json":
		console = out
	default:
		return zerolog.Nop(), noop, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	writer := console
	closeFn := noop
	if path := strings.TrimSpace(opts.File); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return zerolog.Nop(), noop, fmt.Errorf("creating log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("opening log file %s: %w", path, err)
		}
		writer = zerolog.MultiLevelWriter(console, f)
		closeFn = f.Close
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closeFn, nil
}

// ParseLevel maps a level name to a zerolog level; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
