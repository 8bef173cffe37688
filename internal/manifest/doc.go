// Package manifest parses Flatpak application manifests and locates the
// one a project builds.
//
// Manifests may be JSON (.json) or YAML (.yaml, .yml) and must carry an
// application id ("id" or "app-id") that is a valid D-Bus well-known name.
//
// Resolution order:
//
//  1. The persisted selection, if the file still exists and parses
//  2. The only manifest found in the project
//
// Zero candidates is ManifestNotFound; several without a selection is
// ManifestAmbiguous, resolved with select-manifest.
package manifest
