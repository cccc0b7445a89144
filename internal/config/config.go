// Package config loads bear's engine-level tunables. API-key retrieval and
// command-line flag parsing are out of scope here; the
// caller resolves those and constructs EngineOptions already populated.
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// EngineOptions are the tunables the engine reads on every session, loaded
// from environment variables and an optional .bear.yaml in the workspace
// root, in that precedence order.
type EngineOptions struct {
	MaxReviewIterations int           `mapstructure:"max_review_iterations"`
	BuildTestTimeout    time.Duration `mapstructure:"build_test_timeout"`
	KillGrace           time.Duration `mapstructure:"kill_grace"`
	EditorCommand       string        `mapstructure:"editor_command"`
}

// Defaults returns the built-in values used when neither an env var nor a
// config file entry overrides them. The editor falls back to $EDITOR
// before the hard-coded default.
func Defaults() EngineOptions {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "code --wait"
	}
	return EngineOptions{
		MaxReviewIterations: 3,
		BuildTestTimeout:    180 * time.Second,
		KillGrace:           15 * time.Second,
		EditorCommand:       editor,
	}
}

// Load reads EngineOptions for workspace, preferring BEAR_-prefixed
// environment variables over a .bear.yaml file in the workspace root, over
// the built-in defaults.
func Load(workspace string) (EngineOptions, error) {
	v := viper.New()
	v.SetConfigName(".bear")
	v.SetConfigType("yaml")
	v.AddConfigPath(workspace)
	v.SetEnvPrefix("BEAR")
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("max_review_iterations", defaults.MaxReviewIterations)
	v.SetDefault("build_test_timeout", defaults.BuildTestTimeout)
	v.SetDefault("kill_grace", defaults.KillGrace)
	v.SetDefault("editor_command", defaults.EditorCommand)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return EngineOptions{}, err
		}
	}

	var opts EngineOptions
	if err := v.Unmarshal(&opts); err != nil {
		return EngineOptions{}, err
	}
	return opts, nil
}
