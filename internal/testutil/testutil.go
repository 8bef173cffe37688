package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/flatplay/internal/app"
	"github.com/firefly-engineering/flatplay/internal/config"
	"github.com/firefly-engineering/flatplay/internal/manifest"
	"github.com/firefly-engineering/flatplay/internal/project"
	"github.com/firefly-engineering/flatplay/internal/session"
	"github.com/firefly-engineering/flatplay/internal/system"
)

// TestEnv holds a project directory, a private state directory and an App
// whose external effects all go to mocks.
type TestEnv struct {
	T          *testing.T
	ProjectDir string
	StateDir   string
	Config     *config.Config

	Executor  *system.MockExecutor
	Runner    *system.MockRunner
	Spawner   *system.MockSpawner
	Processes *system.MockProcesses
	Bus       *session.MockBus

	App     *app.App
	cleanup func()
}

// NewTestEnv creates a new test environment and installs its App as the
// default. Spawned processes are alive until signalled.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project")
	stateDir := filepath.Join(tmpDir, "state")
	for _, dir := range []string{projectDir, stateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	cfg := config.Default()
	cfg.StateDir = stateDir
	cfg.BusDiscoverySeconds = 0

	env := &TestEnv{
		T:         t,
		StateDir:  stateDir,
		Config:    cfg,
		Executor:  system.NewMockExecutor(),
		Runner:    system.NewMockRunner(),
		Spawner:   system.NewMockSpawner(),
		Processes: system.NewMockProcesses(),
		Bus:       session.NewMockBus(),
	}
	env.Spawner.OnSpawn = func(c system.Command, pid int) {
		env.Processes.AddProcess(pid, uint64(pid))
	}

	testApp, err := app.New(projectDir,
		app.WithConfig(cfg),
		app.WithHost(system.Host{}),
		app.WithExecutor(env.Executor),
		app.WithRunner(env.Runner),
		app.WithSpawner(env.Spawner),
		app.WithProcesses(env.Processes),
		app.WithBus(env.Bus),
		app.WithOutput(io.Discard, io.Discard),
	)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	env.App = testApp
	env.ProjectDir = testApp.Project.Root

	originalDefault := app.Default
	app.SetDefault(testApp)
	env.cleanup = func() {
		app.SetDefault(originalDefault)
	}
	t.Cleanup(env.Cleanup)

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

// AddManifest writes the named fixture into the project at rel (the fixture
// name when empty) and returns its absolute path.
func (e *TestEnv) AddManifest(fixture, rel string) string {
	e.T.Helper()
	return WriteFixture(e.T, e.ProjectDir, fixture, rel)
}

// Manifest parses the manifest at path.
func (e *TestEnv) Manifest(path string) *manifest.Manifest {
	e.T.Helper()

	m, err := manifest.Load(path)
	if err != nil {
		e.T.Fatalf("Failed to load manifest %s: %v", path, err)
	}
	return m
}

// BuildDirs returns the build state directories of the manifest at path.
func (e *TestEnv) BuildDirs(path string) project.BuildDirs {
	return e.App.Project.BuildDirs(e.Config.BuildDirName, path)
}

// MarkInitialized makes the repository look like build-init ran.
func (e *TestEnv) MarkInitialized(path string) {
	e.T.Helper()

	repo := e.BuildDirs(path).Repo
	e.mkdir(filepath.Join(repo, "files"))
	e.mkdir(filepath.Join(repo, "var"))
	e.writeFile(filepath.Join(repo, "metadata"), "[Application]\n")
}

// MarkFetched makes the builder state look like sources were downloaded.
func (e *TestEnv) MarkFetched(path string) {
	e.T.Helper()
	e.writeFile(filepath.Join(e.BuildDirs(path).BuilderState, "downloads", "checksum"), "")
}

// MarkBuilt makes the manifest look fully built.
func (e *TestEnv) MarkBuilt(path string) {
	e.T.Helper()

	e.MarkInitialized(path)
	e.MarkFetched(path)
	e.writeFile(filepath.Join(e.BuildDirs(path).Repo, "files", "bin", "app"), "")
}

func (e *TestEnv) mkdir(path string) {
	e.T.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		e.T.Fatalf("Failed to create %s: %v", path, err)
	}
}

func (e *TestEnv) writeFile(path, content string) {
	e.T.Helper()
	e.mkdir(filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.T.Fatalf("Failed to write %s: %v", path, err)
	}
}
