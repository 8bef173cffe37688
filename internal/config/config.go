package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	// AppName names the config and state directories.
	AppName = "flatplay"

	// DefaultBuildDirName is the project-local directory holding build state.
	DefaultBuildDirName = ".flatplay"

	// EnvPrefix prefixes environment overrides (FLATPLAY_STATE_DIR, ...).
	EnvPrefix = "FLATPLAY"

	// ConfigFileName is the name of the user config file.
	ConfigFileName = "config.toml"
)

// defaultForwardEnv lists host variables passed into the sandbox on run.
var defaultForwardEnv = []string{
	"COLORTERM",
	"DESKTOP_SESSION",
	"LANG",
	"WAYLAND_DISPLAY",
	"XDG_CURRENT_DESKTOP",
	"XDG_SEAT",
	"XDG_SESSION_DESKTOP",
	"XDG_SESSION_ID",
	"XDG_SESSION_TYPE",
	"XDG_VTNR",
	"AT_SPI_BUS_ADDRESS",
}

// Config holds user configuration. Values are layered: defaults, then the
// TOML file, then FLATPLAY_* environment variables, then CLI flags.
type Config struct {
	StateDir            string   `toml:"state_dir" split_words:"true"`
	BuildDirName        string   `toml:"build_dir_name" split_words:"true"`
	SearchDepth         int      `toml:"search_depth" split_words:"true"`
	Ignore              []string `toml:"ignore"`
	StopTimeoutSeconds  int      `toml:"stop_timeout_seconds" split_words:"true"`
	BusDiscoverySeconds int      `toml:"bus_discovery_seconds" split_words:"true"`
	TailLines           int      `toml:"tail_lines" split_words:"true"`
	ForwardEnv          []string `toml:"forward_env" split_words:"true"`
	Ccache              bool     `toml:"ccache"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StateDir:            filepath.Join(xdgDir("XDG_STATE_HOME", ".local/state"), AppName),
		BuildDirName:        DefaultBuildDirName,
		SearchDepth:         3,
		StopTimeoutSeconds:  5,
		BusDiscoverySeconds: 3,
		TailLines:           20,
		ForwardEnv:          append([]string(nil), defaultForwardEnv...),
		Ccache:              true,
	}
}

// StopTimeout returns the graceful stop timeout as a duration.
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutSeconds) * time.Second
}

// BusDiscoveryTimeout returns how long run waits for the app's bus name.
func (c *Config) BusDiscoveryTimeout() time.Duration {
	return time.Duration(c.BusDiscoverySeconds) * time.Second
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	if c.BuildDirName == "" || filepath.Base(c.BuildDirName) != c.BuildDirName {
		return fmt.Errorf("build_dir_name must be a plain directory name (got %q)", c.BuildDirName)
	}
	if c.SearchDepth < 0 {
		return fmt.Errorf("search_depth must not be negative (got %d)", c.SearchDepth)
	}
	if c.StopTimeoutSeconds < 0 {
		return fmt.Errorf("stop_timeout_seconds must not be negative (got %d)", c.StopTimeoutSeconds)
	}
	if c.BusDiscoverySeconds < 0 {
		return fmt.Errorf("bus_discovery_seconds must not be negative (got %d)", c.BusDiscoverySeconds)
	}
	if c.TailLines < 1 {
		return fmt.Errorf("tail_lines must be at least 1 (got %d)", c.TailLines)
	}
	return nil
}

// DefaultConfigPath returns the user config file location.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), AppName, ConfigFileName)
}

// Load reads the config file at path (missing is fine) and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" && filepath.IsAbs(dir) {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback)
}
