// Package app wires flatplay's components for one invocation.
// It allows dependency injection for testing.
package app

import (
	"io"
	"os"

	"github.com/firefly-engineering/flatplay/internal/audit"
	"github.com/firefly-engineering/flatplay/internal/builder"
	"github.com/firefly-engineering/flatplay/internal/config"
	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
	"github.com/firefly-engineering/flatplay/internal/manifest"
	"github.com/firefly-engineering/flatplay/internal/project"
	"github.com/firefly-engineering/flatplay/internal/session"
	"github.com/firefly-engineering/flatplay/internal/state"
	"github.com/firefly-engineering/flatplay/internal/system"
)

// App holds the dependencies of one invocation, bound to one project.
type App struct {
	Config  *config.Config
	Project *project.Project

	FS        system.FileSystem
	Host      *system.Host
	Executor  system.CommandExecutor
	Runner    system.Runner
	Spawner   system.Spawner
	Processes system.Processes
	Bus       session.Bus

	Stdout io.Writer
	Stderr io.Writer

	Store      *state.Store
	Audit      *audit.Logger
	Locator    *manifest.Locator
	Builder    *builder.Builder
	Controller *session.Controller
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets the configuration instead of loading it from disk.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithFS sets a custom filesystem
func WithFS(fs system.FileSystem) Option {
	return func(a *App) {
		a.FS = fs
	}
}

// WithHost overrides host detection.
func WithHost(host system.Host) Option {
	return func(a *App) {
		a.Host = &host
	}
}

// WithExecutor sets a custom command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = exec
	}
}

// WithRunner sets a custom streaming runner
func WithRunner(r system.Runner) Option {
	return func(a *App) {
		a.Runner = r
	}
}

// WithSpawner sets a custom detached spawner
func WithSpawner(s system.Spawner) Option {
	return func(a *App) {
		a.Spawner = s
	}
}

// WithProcesses sets a custom process table
func WithProcesses(p system.Processes) Option {
	return func(a *App) {
		a.Processes = p
	}
}

// WithBus sets a custom session bus client
func WithBus(b session.Bus) Option {
	return func(a *App) {
		a.Bus = b
	}
}

// WithOutput sets where subprocess output is streamed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.Stdout = stdout
		a.Stderr = stderr
	}
}

// New creates an App for the project rooted at projectDir.
// Dependencies not provided via options are created for the real host.
func New(projectDir string, opts ...Option) (*App, error) {
	app := &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.Config == nil {
		cfg, err := config.Load(config.DefaultConfigPath())
		if err != nil {
			return nil, errors.ConfigError("failed to load configuration", err)
		}
		app.Config = cfg
	}

	proj, err := project.New(projectDir)
	if err != nil {
		return nil, errors.Wrap(errors.ExitGeneralError, "invalid project directory", err)
	}
	app.Project = proj

	if app.FS == nil {
		app.FS = system.DefaultFS()
	}
	if app.Host == nil {
		host := system.DetectHost(app.FS)
		app.Host = &host
	}
	if app.Executor == nil {
		app.Executor = system.NewExecutor(*app.Host)
	}
	if app.Runner == nil {
		app.Runner = system.NewRunner(*app.Host)
	}
	if app.Spawner == nil {
		app.Spawner = system.NewSpawner(*app.Host)
	}
	if app.Processes == nil {
		procs, err := system.NewProcesses()
		if err != nil {
			return nil, errors.Wrap(errors.ExitGeneralError, "failed to open /proc", err)
		}
		app.Processes = procs
	}
	if app.Bus == nil {
		app.Bus = session.NewGDBus(app.Executor)
	}

	logging.Debug("project resolved",
		"root", proj.Root,
		"hash", proj.Hash(),
		"sandboxed", app.Host.Sandboxed,
		"container", app.Host.Container)

	cfg := app.Config
	app.Store = state.NewStore(cfg.StateDir, proj)
	app.Audit = audit.NewLogger(app.Store.EventsPath())
	app.Locator = manifest.NewLocator(proj, app.Store, cfg.SearchDepth, cfg.Ignore)
	app.Builder = builder.New(builder.Options{
		Project:      proj,
		BuildDirName: cfg.BuildDirName,
		Runner:       app.Runner,
		Executor:     app.Executor,
		FS:           app.FS,
		Host:         *app.Host,
		Ccache:       cfg.Ccache,
		TailLines:    cfg.TailLines,
		Stdout:       app.Stdout,
		Stderr:       app.Stderr,
	})
	app.Controller = session.NewController(session.Options{
		Project:      proj,
		BuildDirName: cfg.BuildDirName,
		Store:        app.Store,
		Spawner:      app.Spawner,
		Processes:    app.Processes,
		Bus:          app.Bus,
		FS:           app.FS,
		StopTimeout:  cfg.StopTimeout(),
		BusDiscovery: cfg.BusDiscoveryTimeout(),
		ForwardEnv:   cfg.ForwardEnv,
	})

	return app, nil
}

// Record appends a lifecycle event to the project's audit log. Failures are
// logged and otherwise ignored.
func (a *App) Record(eventType audit.EventType, appID, details string) {
	if err := a.Audit.LogEvent(eventType, appID, details); err != nil {
		logging.Warn("failed to write audit event", "type", eventType, "error", err)
	}
}

// BuildDirs returns the build state directories of m.
func (a *App) BuildDirs(m *manifest.Manifest) project.BuildDirs {
	return a.Project.BuildDirs(a.Config.BuildDirName, m.Path)
}

// Default is the App of the running command. It is created by the root
// command unless a test installed one first.
var Default *App

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault clears the default application instance
func ResetDefault() {
	Default = nil
}
