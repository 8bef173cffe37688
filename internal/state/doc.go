// Package state persists per-project data across flatplay invocations:
// the selected manifest and the registry of running sessions.
//
// Each project has one JSON document at <state_dir>/projects/<hash>.json.
// Writers take an exclusive flock on a sibling .lock file and replace the
// document atomically, so a reader never observes a partial write.
package state
