// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cover-mirror CLI.
//
// cover-mirror finds each locally known comic series on the MangaDex catalog
// and mirrors its cover artwork into a destination tree, one directory per
// series. Subcommands: run, list, probe, history and version.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cover-mirror/internal/logx"
	"github.com/pdiddy/cover-mirror/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// exitInterrupted is the status used when a run is cut short by a signal.
const exitInterrupted = 130

// errInterrupted reports a run stopped by SIGINT or SIGTERM.
var errInterrupted = errors.New("interrupted")

var (
	// appConfig and logger are populated before any subcommand runs.
	appConfig types.Config
	logger    = zerolog.Nop()
	closeLog  = func() error { return nil }
)

// rootCmd is the base command for the cover-mirror CLI.
var rootCmd = &cobra.Command{
	Use:   "cover-mirror",
	Short: "Mirror comic series cover art from MangaDex",
	Long: `cover-mirror matches each series directory in a local library against the
MangaDex catalog and downloads every cover of the matched series into a
destination tree. Files already on disk are never downloaded again, so runs
can be repeated safely.

Settings come from flags, COVER_MIRROR_* environment variables and an optional
cover-mirror.yaml config file, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeFn, err := logx.New(logx.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
			Out:    cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		appConfig, logger, closeLog = cfg, log, closeFn
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./cover-mirror.yaml or ~/.config/cover-mirror/cover-mirror.yaml)")
	pf.String("source", "", "directory containing one folder per series (default ~/Documents/Manga)")
	pf.String("dest", "", "directory receiving the covers (default ~/Documents/Cover-Pages)")
	pf.String("api-base", "", "catalog API base URL")
	pf.String("uploads-base", "", "cover upload host base URL")
	pf.Duration("timeout", 0, "HTTP request timeout (default 30s)")
	pf.String("history-db", "", "run history database (empty string disables history)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("log-file", "", "also append JSON logs to this file")

	bindFlag("mirror.source_dir", pf.Lookup("source"))
	bindFlag("mirror.dest_dir", pf.Lookup("dest"))
	bindFlag("catalog.api_base", pf.Lookup("api-base"))
	bindFlag("catalog.uploads_base", pf.Lookup("uploads-base"))
	bindFlag("catalog.timeout", pf.Lookup("timeout"))
	bindFlag("history.path", pf.Lookup("history-db"))
	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("log.format", pf.Lookup("log-format"))
	bindFlag("log.file", pf.Lookup("log-file"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cover-mirror")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cover-mirror"))
		}
	}

	viper.SetEnvPrefix("COVER_MIRROR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// execute runs the selected command and closes the log file whether or not
// the command succeeded.
func execute() error {
	err := rootCmd.Execute()
	closeErr := closeLog()
	closeLog = func() error { return nil }
	if err == nil {
		err = closeErr
	}
	return err
}

func main() {
	if err := execute(); err != nil {
		if errors.Is(err, errInterrupted) {
			os.Exit(exitInterrupted)
		}
		os.Exit(1)
	}
}
