// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/cover-mirror/pkg/types"
)

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// loadConfig overlays every setting present in viper (flag, environment or
// config file) on the defaults.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()

	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}

	setString("catalog.api_base", &cfg.Catalog.APIBase)
	setString("catalog.uploads_base", &cfg.Catalog.UploadsBase)
	setString("catalog.user_agent", &cfg.Catalog.UserAgent)
	if viper.IsSet("catalog.timeout") {
		if d := viper.GetDuration("catalog.timeout"); d > 0 {
			cfg.Catalog.Timeout = d
		}
	}
	setInt("catalog.search_limit", &cfg.Catalog.SearchLimit)
	setInt("catalog.cover_limit", &cfg.Catalog.CoverLimit)
	if viper.IsSet("catalog.content_ratings") {
		cfg.Catalog.ContentRatings = viper.GetStringSlice("catalog.content_ratings")
	}

	setString("mirror.source_dir", &cfg.Mirror.SourceDir)
	setString("mirror.dest_dir", &cfg.Mirror.DestDir)
	if viper.IsSet("mirror.delay") {
		seconds, err := cast.ToFloat64E(viper.Get("mirror.delay"))
		if err != nil {
			return types.Config{}, fmt.Errorf("mirror.delay: expected seconds: %w", err)
		}
		cfg.Mirror.Delay = types.SecondsToDuration(seconds)
	}
	if viper.IsSet("mirror.series") {
		cfg.Mirror.Series = viper.GetStringSlice("mirror.series")
	}
	if viper.IsSet("mirror.assume_yes") {
		cfg.Mirror.AssumeYes = viper.GetBool("mirror.assume_yes")
	}

	setString("log.level", &cfg.Log.Level)
	setString("log.format", &cfg.Log.Format)
	setString("log.file", &cfg.Log.File)
	setString("history.path", &cfg.History.Path)

	return cfg, nil
}
