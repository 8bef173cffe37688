package cmd

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/flatplay/internal/app"
	"github.com/firefly-engineering/flatplay/internal/audit"
	"github.com/firefly-engineering/flatplay/internal/builder"
	"github.com/firefly-engineering/flatplay/internal/manifest"
	"github.com/firefly-engineering/flatplay/internal/state"
)

// current returns the App of this invocation.
func current() *app.App {
	return app.Default
}

// resolveManifest returns the project's manifest, auto-selecting it when
// the project has exactly one.
func resolveManifest() (*manifest.Manifest, error) {
	a := current()
	hadSelection := a.Locator.SelectedPath() != ""

	m, err := a.Locator.Resolve()
	if err != nil {
		return nil, err
	}
	if !hadSelection {
		logInfo("Using manifest %s", a.Locator.RelPath(m.Path))
		a.Record(audit.EventSelect, m.ID, a.Locator.RelPath(m.Path))
	}
	return m, nil
}

// buildManifest builds m and records the outcome in the audit log.
func buildManifest(ctx context.Context, m *manifest.Manifest, clean bool) error {
	a := current()

	logInfo("Building %s", m.ID)
	if err := a.Builder.Build(ctx, m, builder.BuildOptions{Clean: clean}); err != nil {
		a.Record(audit.EventError, m.ID, "build: "+err.Error())
		return err
	}

	a.Record(audit.EventBuild, m.ID, fmt.Sprintf("clean=%t", clean))
	logSuccess("Built %s", m.ID)
	return nil
}

// runManifest starts m's application and reports the new session.
func runManifest(ctx context.Context, m *manifest.Manifest) (*state.Session, error) {
	a := current()

	sess, err := a.Controller.Run(ctx, m)
	if err != nil {
		return nil, err
	}

	a.Record(audit.EventRun, m.ID, fmt.Sprintf("pid=%d run=%s", sess.ProcessID, sess.RunID))
	logSuccess("Started %s (pid %d)", m.ID, sess.ProcessID)
	logInfo("Output: %s", sess.LogPath)
	return sess, nil
}
