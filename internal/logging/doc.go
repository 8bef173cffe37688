// Package logging provides logging utilities for flatplay.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("running command", "name", name, "args", args)
//	logging.Warn("session bus query failed", "app", appID, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Auto-selected manifest %s", path)
//	logging.UserSuccess("Started %s (pid %d)", appID, pid)
//	logging.UserWarning("Removed stale session for %s", appID)
//	logging.UserError("%v", err)
//	logging.UserCommand("flatpak", []string{"build-init", repo, appID})
//
// Output destinations:
//   - UserInfo, UserSuccess, UserCommand: stdout
//   - UserWarning, UserError: stderr
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
