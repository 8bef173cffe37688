package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/firefly-engineering/flatplay/internal/system"
)

// Project is a directory tree containing one or more manifests.
type Project struct {
	// Root is the canonical absolute path of the project.
	Root string
}

// New resolves dir to a canonical absolute path.
func New(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return &Project{Root: root}, nil
}

// Hash identifies the project in persisted state.
func (p *Project) Hash() string {
	return HashPath(p.Root)
}

// Rel returns path relative to the project root, or path unchanged if it
// lies outside.
func (p *Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// BuildDirs returns the build-state layout for manifestPath.
func (p *Project) BuildDirs(buildDirName, manifestPath string) BuildDirs {
	stem := strings.TrimSuffix(filepath.Base(manifestPath), filepath.Ext(manifestPath))
	key := fmt.Sprintf("%s-%s", stem, HashPath(manifestPath)[:8])
	return newBuildDirs(filepath.Join(p.Root, buildDirName, key))
}

// HashPath returns the 16 hex digit xxhash of path.
func HashPath(path string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(path))
}

// BuildDirs is the per-manifest build-state directory layout.
type BuildDirs struct {
	Root         string
	Repo         string
	Build        string
	BuilderState string
	Finalized    string
	Ostree       string
	Logs         string
}

func newBuildDirs(root string) BuildDirs {
	return BuildDirs{
		Root:         root,
		Repo:         filepath.Join(root, "repo"),
		Build:        filepath.Join(root, "_build"),
		BuilderState: filepath.Join(root, "flatpak-builder"),
		Finalized:    filepath.Join(root, "finalized-repo"),
		Ostree:       filepath.Join(root, "ostree"),
		Logs:         filepath.Join(root, "logs"),
	}
}

// IsInitialized reports whether build-init has populated the repository.
func (d BuildDirs) IsInitialized(fsys system.FileSystem) bool {
	metadata := filepath.Join(d.Repo, "metadata")
	return fsys.Exists(metadata) && !fsys.IsDir(metadata) &&
		fsys.IsDir(filepath.Join(d.Repo, "files")) &&
		fsys.IsDir(filepath.Join(d.Repo, "var"))
}

// IsBuilt reports whether the application has been installed into the repository.
func (d BuildDirs) IsBuilt(fsys system.FileSystem) bool {
	return nonEmptyDir(fsys, filepath.Join(d.Repo, "files"))
}

// SourcesFetched reports whether the builder has downloaded sources before.
func (d BuildDirs) SourcesFetched(fsys system.FileSystem) bool {
	return nonEmptyDir(fsys, filepath.Join(d.BuilderState, "downloads"))
}

// Clean removes all build state. Removing absent state is not an error.
func (d BuildDirs) Clean(fsys system.FileSystem) error {
	if err := fsys.RemoveAll(d.Root); err != nil {
		return fmt.Errorf("failed to remove %s: %w", d.Root, err)
	}
	return nil
}

// Ensure creates the root and logs directories.
func (d BuildDirs) Ensure(fsys system.FileSystem) error {
	for _, dir := range []string{d.Root, d.Logs} {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func nonEmptyDir(fsys system.FileSystem, path string) bool {
	if !fsys.IsDir(path) {
		return false
	}
	entries, err := fsys.ReadDir(path)
	return err == nil && len(entries) > 0
}
