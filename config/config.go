// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/feedcast/feedcast/constant"
	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/key"
	"github.com/feedcast/feedcast/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.Feedcast)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Feedcast)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// DefaultFeedURL returns the configured default feed source.
// An empty setting resolves to feed.json inside the config directory.
func DefaultFeedURL() string {
	if u := strings.TrimSpace(viper.GetString(key.FeedsDefaultURL)); u != "" {
		return u
	}
	return filepath.Join(where.Config(), "feed.json")
}

// FetchTimeout returns the per-request feed timeout. Zero means no timeout.
func FetchTimeout() time.Duration {
	secs := viper.GetInt(key.FeedsFetchTimeout)
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// SeekStep returns the arrow-key seek distance in seconds.
func SeekStep() float64 {
	step := viper.GetInt(key.PlayerSeekStep)
	if step <= 0 {
		return 10
	}
	return float64(step)
}
