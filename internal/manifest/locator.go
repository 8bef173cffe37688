package manifest

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
	"github.com/firefly-engineering/flatplay/internal/project"
	"github.com/firefly-engineering/flatplay/internal/state"
)

// skipDirs are never searched for manifests.
var skipDirs = map[string]bool{
	".git":             true,
	".flatplay":        true,
	".flatpak-builder": true,
	"node_modules":     true,
	"_build":           true,
	"target":           true,
}

// Candidate is a manifest found during discovery.
type Candidate struct {
	*Manifest
	// Depth is the number of directories between the project root and the file.
	Depth int
}

// Locator discovers manifests in a project and remembers which one is in use.
type Locator struct {
	project *project.Project
	store   *state.Store
	depth   int
	ignore  []string
}

// NewLocator creates a Locator searching up to depth directories below
// the project root, skipping paths matching any of the ignore globs.
func NewLocator(proj *project.Project, store *state.Store, depth int, ignore []string) *Locator {
	return &Locator{
		project: proj,
		store:   store,
		depth:   depth,
		ignore:  ignore,
	}
}

// Locate returns every valid manifest in the project, shallowest first and
// then by path.
func (l *Locator) Locate() ([]Candidate, error) {
	root := l.project.Root

	var (
		mu    sync.Mutex
		found []Candidate
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/")

		if d.IsDir() {
			if skipDirs[d.Name()] || depth+1 > l.depth || l.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !IsManifestFile(path) || l.ignored(rel) {
			return nil
		}

		m, loadErr := Load(path)
		if loadErr != nil {
			logging.Debug("not a manifest", "path", rel, "error", loadErr)
			return nil
		}

		mu.Lock()
		found = append(found, Candidate{Manifest: m, Depth: depth})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ExitGeneralError, "failed to search for manifests", err)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Depth != found[j].Depth {
			return found[i].Depth < found[j].Depth
		}
		return found[i].Path < found[j].Path
	})

	logging.Debug("manifest discovery finished", "root", root, "found", len(found))
	return found, nil
}

// Resolve returns the manifest to use: the persisted selection if it is
// still valid, otherwise the single manifest in the project.
func (l *Locator) Resolve() (*Manifest, error) {
	if m, ok := l.selected(); ok {
		return m, nil
	}

	candidates, err := l.Locate()
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, errors.ManifestNotFound("")
	case 1:
		m := candidates[0].Manifest
		if err := l.persist(m.Path); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.ManifestAmbiguous(l.relPaths(candidates))
	}
}

// Select makes choice the project's manifest. choice may be relative to
// the project root or absolute, but must name a discovered manifest.
func (l *Locator) Select(choice string) (*Manifest, error) {
	rel := choice
	if filepath.IsAbs(choice) {
		r, err := filepath.Rel(l.project.Root, choice)
		if err != nil || r == ".." || strings.HasPrefix(r, "../") {
			return nil, errors.ManifestNotFound(choice + " is outside the project")
		}
		rel = r
	}

	path, err := securejoin.SecureJoin(l.project.Root, rel)
	if err != nil {
		return nil, errors.ManifestNotFound(choice)
	}

	candidates, err := l.Locate()
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if c.Path == path {
			if err := l.persist(c.Path); err != nil {
				return nil, err
			}
			return c.Manifest, nil
		}
	}
	return nil, errors.ManifestNotFound(choice)
}

// SelectedPath returns the persisted manifest path, if any.
func (l *Locator) SelectedPath() string {
	st, err := l.store.Load()
	if err != nil || st.Selection == nil {
		return ""
	}
	return st.Selection.ManifestPath
}

// RelPath returns a candidate path relative to the project root for display.
func (l *Locator) RelPath(path string) string {
	return l.project.Rel(path)
}

func (l *Locator) selected() (*Manifest, bool) {
	path := l.SelectedPath()
	if path == "" {
		return nil, false
	}
	m, err := Load(path)
	if err == nil {
		return m, true
	}

	logging.Debug("discarding stale manifest selection", "path", path, "error", err)
	if err := l.store.Update(func(st *state.ProjectState) error {
		if st.Selection != nil && st.Selection.ManifestPath == path {
			st.Selection = nil
		}
		return nil
	}); err != nil {
		logging.Warn("failed to clear stale selection", "error", err)
	}
	return nil, false
}

func (l *Locator) persist(path string) error {
	err := l.store.Update(func(st *state.ProjectState) error {
		st.Selection = &state.Selection{
			ProjectPathHash: l.project.Hash(),
			ManifestPath:    path,
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to save manifest selection", err)
	}
	logging.Debug("manifest selected", "path", path)
	return nil
}

func (l *Locator) ignored(rel string) bool {
	for _, pattern := range l.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l *Locator) relPaths(candidates []Candidate) []string {
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = l.project.Rel(c.Path)
	}
	return paths
}
