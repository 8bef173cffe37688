// Package config loads flatplay's user configuration.
//
// # Sources
//
// Configuration is layered, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. $XDG_CONFIG_HOME/flatplay/config.toml
//  3. FLATPLAY_* environment variables (FLATPLAY_STATE_DIR, FLATPLAY_TAIL_LINES, ...)
//  4. Command line flags, applied by the cmd package
//
// # File Format
//
//	state_dir = "/home/me/.local/state/flatplay"
//	search_depth = 3
//	ignore = ["vendor/**", "subprojects/**"]
//	stop_timeout_seconds = 5
//	bus_discovery_seconds = 3
//	tail_lines = 20
//	forward_env = ["LANG", "WAYLAND_DISPLAY"]
//	ccache = true
package config
