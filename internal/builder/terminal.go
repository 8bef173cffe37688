package builder

import (
	"context"

	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/manifest"
)

// RuntimeTerminal opens an interactive shell in m's SDK.
func (b *Builder) RuntimeTerminal(ctx context.Context, m *manifest.Manifest) error {
	return b.interactive(ctx, "flatpak", "run", "--command=bash", m.SDKRef())
}

// BuildTerminal opens an interactive shell in m's build environment.
func (b *Builder) BuildTerminal(ctx context.Context, m *manifest.Manifest) error {
	dirs := b.Dirs(m)
	if !dirs.IsInitialized(b.opts.FS) {
		return errors.NotBuilt(m.ID)
	}
	return b.interactive(ctx, "flatpak", "build", dirs.Repo, "bash")
}

func (b *Builder) interactive(ctx context.Context, name string, args ...string) error {
	if _, err := b.opts.Executor.LookPath(name); err != nil {
		return errors.ToolUnavailable(name, err)
	}
	if err := b.opts.Executor.ExecuteInteractive(ctx, name, args...); err != nil {
		if ctx.Err() != nil {
			return errors.Cancelled(name)
		}
		return errors.Wrap(errors.ExitGeneralError, "terminal exited with an error", err)
	}
	return nil
}
