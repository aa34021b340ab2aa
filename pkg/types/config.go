// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultAPIBase     = "https://api.mangadex.org"
	DefaultUploadsBase = "https://uploads.mangadex.org"
	DefaultUserAgent   = "cover-mirror/0.1"
	DefaultTimeout     = 30 * time.Second
	DefaultDelay       = 1 * time.Second
	DefaultSearchLimit = 10
	DefaultCoverLimit  = 100
)

// DefaultContentRatings includes every rating; the catalog excludes mature
// content unless asked for it explicitly.
var DefaultContentRatings = []string{"safe", "suggestive", "erotica", "pornographic"}

// HTTPConfig holds shared HTTP settings for the catalog and upload hosts.
type HTTPConfig struct {
	// Timeout bounds a single request including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is sent with every request (e.g. "cover-mirror/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CatalogConfig holds settings for the remote catalog client.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIBase is the catalog API root; search and cover listings hang off it.
	APIBase string `json:"api_base" yaml:"api_base"`

	// UploadsBase is the root serving cover binaries.
	UploadsBase string `json:"uploads_base" yaml:"uploads_base"`

	// SearchLimit caps the number of series returned by a title search.
	SearchLimit int `json:"search_limit" yaml:"search_limit"`

	// CoverLimit caps the number of covers listed per series.
	CoverLimit int `json:"cover_limit" yaml:"cover_limit"`

	ContentRatings []string `json:"content_ratings" yaml:"content_ratings"`
}

// MirrorConfig holds settings for one mirroring run.
type MirrorConfig struct {
	// SourceDir contains one subdirectory per locally known series.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// DestDir receives one subdirectory of covers per series.
	DestDir string `json:"dest_dir" yaml:"dest_dir"`

	// Delay is the pause after every cover fetch and between series.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// Series restricts the run to these local names; empty means all.
	Series []string `json:"series,omitempty" yaml:"series,omitempty"`

	// AssumeYes selects non-interactive mode: defaults are used for
	// anything not configured.
	AssumeYes bool `json:"assume_yes" yaml:"assume_yes"`
}

// LogConfig selects the log level, format and optional file sink.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// HistoryConfig locates the run history database.
type HistoryConfig struct {
	// Path is the SQLite file; empty disables history.
	Path string `json:"path" yaml:"path"`
}

// Config groups every setting of the tool.
type Config struct {
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Mirror  MirrorConfig  `json:"mirror" yaml:"mirror"`
	Log     LogConfig     `json:"log" yaml:"log"`
	History HistoryConfig `json:"history" yaml:"history"`
}

// DefaultConfig returns a Config populated with defaults. Directories default
// to ~/Documents/Manga and ~/Documents/Cover-Pages.
func DefaultConfig() Config {
	src, dst := DefaultDirectories()
	return Config{
		Catalog: CatalogConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   DefaultTimeout,
				UserAgent: DefaultUserAgent,
			},
			APIBase:        DefaultAPIBase,
			UploadsBase:    DefaultUploadsBase,
			SearchLimit:    DefaultSearchLimit,
			CoverLimit:     DefaultCoverLimit,
			ContentRatings: append([]string(nil), DefaultContentRatings...),
		},
		Mirror: MirrorConfig{
			SourceDir: src,
			DestDir:   dst,
			Delay:     DefaultDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		History: HistoryConfig{Path: DefaultHistoryPath()},
	}
}

// DefaultHistoryPath returns the history database location under the user's
// config directory, or "" (history disabled) when there is none.
func DefaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cover-mirror", "history.db")
}

// DefaultDirectories returns the default source and destination directories
// under the user's Documents folder. It falls back to relative paths when the
// home directory cannot be determined.
func DefaultDirectories() (source, dest string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Manga", "Cover-Pages"
	}
	return filepath.Join(home, "Documents", "Manga"), filepath.Join(home, "Documents", "Cover-Pages")
}

// SecondsToDuration converts a delay given in (possibly fractional) seconds.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// Validate reports every configuration problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Mirror.SourceDir) == "" {
		errs = append(errs, errors.New("source directory is not set"))
	}
	if strings.TrimSpace(c.Mirror.DestDir) == "" {
		errs = append(errs, errors.New("destination directory is not set"))
	}
	if c.Mirror.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative (got %v)", c.Mirror.Delay))
	}
	if c.Catalog.SearchLimit <= 0 || c.Catalog.SearchLimit > 100 {
		errs = append(errs, fmt.Errorf("search_limit must be between 1 and 100 (got %d)", c.Catalog.SearchLimit))
	}
	if c.Catalog.CoverLimit <= 0 || c.Catalog.CoverLimit > 100 {
		errs = append(errs, fmt.Errorf("cover_limit must be between 1 and 100 (got %d)", c.Catalog.CoverLimit))
	}
	if strings.TrimSpace(c.Catalog.APIBase) == "" || strings.TrimSpace(c.Catalog.UploadsBase) == "" {
		errs = append(errs, errors.New("api_base and uploads_base must be set"))
	}
	return errors.Join(errs...)
}
