package builder

import (
	"context"
	"path/filepath"

	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
	"github.com/firefly-engineering/flatplay/internal/manifest"
)

// DefaultBundlePath returns where Export writes m's bundle by default.
func (b *Builder) DefaultBundlePath(m *manifest.Manifest) string {
	return filepath.Join(b.opts.Project.Root, m.ID+".flatpak")
}

// Export finalizes a copy of the built repository and writes a
// single-file bundle to destination. It returns the bundle path.
func (b *Builder) Export(ctx context.Context, m *manifest.Manifest, destination string) (string, error) {
	dirs := b.Dirs(m)
	if !dirs.IsBuilt(b.opts.FS) {
		return "", errors.NotBuilt(m.ID)
	}

	if destination == "" {
		destination = b.DefaultBundlePath(m)
	} else if !filepath.IsAbs(destination) {
		destination = filepath.Join(b.opts.Project.Root, destination)
	}

	if err := b.opts.FS.RemoveAll(dirs.Finalized); err != nil {
		return "", errors.Wrap(errors.ExitExportFailed, "failed to remove previous finalized repository", err)
	}

	finish := []string{"build-finish"}
	finish = append(finish, m.FinishArgs...)
	finish = append(finish, "--command="+m.Command, dirs.Finalized)

	steps := []struct {
		step string
		name string
		args []string
	}{
		{"copy", "cp", []string{"-a", dirs.Repo, dirs.Finalized}},
		{"build-finish", "flatpak", finish},
		{"build-export", "flatpak", []string{"build-export", dirs.Ostree, dirs.Finalized}},
		{"build-bundle", "flatpak", []string{"build-bundle", dirs.Ostree, destination, m.ID}},
	}

	logging.UserInfo("Exporting %s...", m.ID)
	for _, s := range steps {
		res, err := b.run(ctx, s.name, s.args...)
		if err != nil {
			return "", err
		}
		if !res.Success() {
			return "", errors.ExportFailed(s.step, res.ExitCode, res.Tail)
		}
	}

	logging.Debug("bundle exported", "path", destination)
	return destination, nil
}
