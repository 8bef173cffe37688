package builder

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
	"github.com/firefly-engineering/flatplay/internal/manifest"
	"github.com/firefly-engineering/flatplay/internal/project"
	"github.com/firefly-engineering/flatplay/internal/system"
)

// builderFlatpak is the Flatpak-packaged builder used when flatpak-builder
// is not installed natively.
const builderFlatpak = "org.flatpak.Builder"

// Options configures a Builder.
type Options struct {
	Project      *project.Project
	BuildDirName string
	Runner       system.Runner
	Executor     system.CommandExecutor
	FS           system.FileSystem
	Host         system.Host
	Ccache       bool
	TailLines    int
	Stdout       io.Writer
	Stderr       io.Writer
}

// Builder drives flatpak and flatpak-builder for one project.
type Builder struct {
	opts Options

	// builder caches the resolved flatpak-builder invocation.
	builder []string
}

// BuildOptions controls a single Build.
type BuildOptions struct {
	// Clean removes all build state first.
	Clean bool
}

// New creates a Builder.
func New(opts Options) *Builder {
	if opts.TailLines < 1 {
		opts.TailLines = system.DefaultTailLines
	}
	return &Builder{opts: opts}
}

// Dirs returns the build-state layout for m.
func (b *Builder) Dirs(m *manifest.Manifest) project.BuildDirs {
	return b.opts.Project.BuildDirs(b.opts.BuildDirName, m.Path)
}

// IsBuilt reports whether m's application has been built.
func (b *Builder) IsBuilt(m *manifest.Manifest) bool {
	return b.Dirs(m).IsBuilt(b.opts.FS)
}

// Clean removes m's build state. Cleaning absent state is not an error.
func (b *Builder) Clean(m *manifest.Manifest) error {
	dirs := b.Dirs(m)
	logging.Debug("cleaning build state", "dir", dirs.Root)
	if err := dirs.Clean(b.opts.FS); err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to clean build state", err)
	}
	return nil
}

// Build initializes the repository if needed, builds the dependency
// modules, then builds and installs the application module.
func (b *Builder) Build(ctx context.Context, m *manifest.Manifest, opts BuildOptions) error {
	dirs := b.Dirs(m)

	if opts.Clean {
		if err := b.Clean(m); err != nil {
			return err
		}
	}
	if err := dirs.Ensure(b.opts.FS); err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to prepare build directory", err)
	}

	if !dirs.IsInitialized(b.opts.FS) {
		logging.UserInfo("Initializing build environment...")
		if err := b.buildStep(ctx, "build-init", "flatpak",
			"build-init", dirs.Repo, m.ID, m.SDK, m.Runtime, m.RuntimeVersion); err != nil {
			return err
		}
	}

	if !dirs.SourcesFetched(b.opts.FS) {
		if err := b.UpdateDependencies(ctx, m); err != nil {
			return err
		}
	}

	logging.UserInfo("Building dependencies...")
	if err := b.buildDependencies(ctx, m, dirs); err != nil {
		return err
	}

	app, ok := m.LastModule()
	if !ok || app.Reference {
		logging.Debug("no inline application module, skipping application build")
		return nil
	}

	logging.UserInfo("Building %s...", app.Name)
	return b.buildApplication(ctx, app, dirs)
}

// UpdateDependencies downloads or refreshes the sources of every module
// without building.
func (b *Builder) UpdateDependencies(ctx context.Context, m *manifest.Manifest) error {
	dirs := b.Dirs(m)
	if err := dirs.Ensure(b.opts.FS); err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to prepare build directory", err)
	}

	logging.UserInfo("Updating dependencies...")
	res, err := b.runBuilder(ctx, m, dirs, "--download-only")
	if err != nil {
		return err
	}
	if !res.Success() {
		return errors.DependencyUpdateFailed(res.ExitCode, res.Tail)
	}
	return nil
}

func (b *Builder) buildDependencies(ctx context.Context, m *manifest.Manifest, dirs project.BuildDirs) error {
	res, err := b.runBuilder(ctx, m, dirs,
		"--disable-download", "--build-only", "--keep-build-dirs")
	if err != nil {
		return err
	}
	if !res.Success() {
		return errors.BuildFailed("dependencies", res.ExitCode, res.Tail)
	}
	return nil
}

func (b *Builder) buildApplication(ctx context.Context, app manifest.Module, dirs project.BuildDirs) error {
	var steps [][]string

	switch app.BuildSystem {
	case manifest.BuildSystemMeson:
		if !b.opts.FS.Exists(filepath.Join(dirs.Build, "build.ninja")) {
			setup := append([]string{"meson", "setup"}, app.ConfigOpts...)
			steps = append(steps, append(setup, "--prefix=/app", dirs.Build))
		}
		steps = append(steps,
			[]string{"ninja", "-C", dirs.Build},
			[]string{"meson", "install", "-C", dirs.Build})

	case manifest.BuildSystemCMake, manifest.BuildSystemCMakeNinja:
		configure := []string{
			"cmake", "-G", "Ninja", "-B" + dirs.Build,
			"-DCMAKE_EXPORT_COMPILE_COMMANDS=1",
			"-DCMAKE_BUILD_TYPE=RelWithDebInfo",
			"-DCMAKE_INSTALL_PREFIX=/app",
		}
		configure = append(configure, app.ConfigOpts...)
		steps = append(steps,
			append(configure, "."),
			[]string{"ninja", "-C", dirs.Build},
			[]string{"ninja", "-C", dirs.Build, "install"})

	case manifest.BuildSystemSimple:
		for _, line := range app.BuildCommands {
			words, err := splitCommand(line)
			if err != nil {
				return err
			}
			steps = append(steps, words)
		}

	default:
		configure := append([]string{"./configure", "--prefix=/app"}, app.ConfigOpts...)
		steps = append(steps,
			configure,
			[]string{"make"},
			[]string{"make", "install"})
	}

	for _, line := range app.PostInstall {
		words, err := splitCommand(line)
		if err != nil {
			return err
		}
		steps = append(steps, words)
	}

	for _, step := range steps {
		args := append([]string{"build", dirs.Repo}, step...)
		if err := b.buildStep(ctx, step[0], "flatpak", args...); err != nil {
			return err
		}
	}
	return nil
}

// buildStep runs one command and maps a non-zero exit to BuildFailed.
func (b *Builder) buildStep(ctx context.Context, step, name string, args ...string) error {
	res, err := b.run(ctx, name, args...)
	if err != nil {
		return err
	}
	if !res.Success() {
		return errors.BuildFailed(step, res.ExitCode, res.Tail)
	}
	return nil
}

func (b *Builder) run(ctx context.Context, name string, args ...string) (*system.Result, error) {
	return b.opts.Runner.Run(ctx, system.Command{
		Name:      name,
		Args:      args,
		Dir:       b.opts.Project.Root,
		Stdout:    b.opts.Stdout,
		Stderr:    b.opts.Stderr,
		TailLines: b.opts.TailLines,
	})
}

// runBuilder invokes flatpak-builder on m with the shared flags plus mode.
func (b *Builder) runBuilder(ctx context.Context, m *manifest.Manifest, dirs project.BuildDirs, mode ...string) (*system.Result, error) {
	tool, err := b.builderCommand(ctx)
	if err != nil {
		return nil, err
	}

	var args []string
	args = append(args, tool[1:]...)
	if b.opts.Ccache {
		args = append(args, "--ccache")
	}
	args = append(args, "--force-clean", "--disable-updates")
	args = append(args, mode...)
	if b.opts.Host.Container {
		args = append(args, "--disable-rofiles-fuse")
	}
	args = append(args, "--state-dir="+dirs.BuilderState)
	if last, ok := m.LastModule(); ok {
		args = append(args, "--stop-at="+last.Name)
	}
	args = append(args, dirs.Repo, m.Path)

	return b.run(ctx, tool[0], args...)
}

// builderCommand finds flatpak-builder, preferring the native binary over
// the Flatpak-packaged one.
func (b *Builder) builderCommand(ctx context.Context) ([]string, error) {
	if b.builder != nil {
		return b.builder, nil
	}

	if _, err := b.opts.Executor.LookPath("flatpak-builder"); err == nil {
		b.builder = []string{"flatpak-builder"}
	} else if _, err := b.opts.Executor.Execute(ctx, "flatpak", "run", builderFlatpak, "--version"); err == nil {
		b.builder = []string{"flatpak", "run", builderFlatpak}
	} else {
		return nil, errors.ToolUnavailable("flatpak-builder",
			fmt.Errorf("install flatpak-builder from your distribution or %s with flatpak install", builderFlatpak))
	}

	logging.Debug("resolved builder", "command", strings.Join(b.builder, " "))
	return b.builder, nil
}

func splitCommand(line string) ([]string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, errors.Wrap(errors.ExitBuildFailed, fmt.Sprintf("invalid command %q", line), err)
	}
	if len(words) == 0 {
		return nil, errors.New(errors.ExitBuildFailed, "empty build command")
	}
	return words, nil
}
