// Package project identifies a flatplay project and lays out its build state.
//
// Build state is kept per manifest under the project root:
//
//	<project>/.flatplay/<manifest stem>-<hash>/
//	├── repo/            # build-init repository, app installed into files/
//	├── _build/          # build directory of the application module
//	├── flatpak-builder/ # builder state dir (downloads, ccache, build dirs)
//	├── finalized-repo/  # export scratch copy of repo/
//	├── ostree/          # export repository
//	└── logs/            # output of detached runs
//
// Status is inferred from the filesystem: a repository is initialized once
// repo/metadata, repo/files and repo/var exist, and built once repo/files
// is non-empty.
package project
