package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/flatplay/internal/audit"
	"github.com/firefly-engineering/flatplay/internal/config"
	"github.com/firefly-engineering/flatplay/internal/session"
	"github.com/firefly-engineering/flatplay/internal/system"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StateDir = t.TempDir()
	return cfg
}

func TestNew_WithDependencies(t *testing.T) {
	dir := t.TempDir()
	runner := system.NewMockRunner()
	spawner := system.NewMockSpawner()
	procs := system.NewMockProcesses()
	bus := session.NewMockBus()
	exec := system.NewMockExecutor()

	a, err := New(dir,
		WithConfig(testConfig(t)),
		WithHost(system.Host{}),
		WithExecutor(exec),
		WithRunner(runner),
		WithSpawner(spawner),
		WithProcesses(procs),
		WithBus(bus),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if a.Runner != runner {
		t.Error("WithRunner did not set runner")
	}
	if a.Spawner != spawner {
		t.Error("WithSpawner did not set spawner")
	}
	if a.Processes != procs {
		t.Error("WithProcesses did not set processes")
	}
	if a.Bus != bus {
		t.Error("WithBus did not set bus")
	}
	if a.Executor != exec {
		t.Error("WithExecutor did not set executor")
	}
	if a.Store == nil || a.Locator == nil || a.Builder == nil || a.Controller == nil || a.Audit == nil {
		t.Fatal("components should be wired")
	}

	realDir, _ := filepath.EvalSymlinks(dir)
	if a.Project.Root != realDir {
		t.Errorf("Project.Root = %q, want %q", a.Project.Root, realDir)
	}
}

func TestNew_DefaultsForHost(t *testing.T) {
	a, err := New(t.TempDir(), WithConfig(testConfig(t)), WithFS(system.NewMockFS()))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if a.Host == nil {
		t.Fatal("Host should be detected")
	}
	if a.Host.Sandboxed || a.Host.Container {
		t.Errorf("empty filesystem should not look sandboxed: %+v", a.Host)
	}
	if a.Executor == nil || a.Runner == nil || a.Spawner == nil || a.Processes == nil || a.Bus == nil {
		t.Error("real implementations should be created")
	}
}

func TestNew_InvalidProjectDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), WithConfig(testConfig(t)))
	if err == nil {
		t.Fatal("New() should fail for a missing project directory")
	}
}

func TestRecord(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(t.TempDir(), WithConfig(cfg), WithHost(system.Host{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	a.Record(audit.EventBuild, "org.example.App", "clean=false")

	events, err := a.Audit.Events(0)
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if len(events) != 1 || events[0].Type != audit.EventBuild {
		t.Fatalf("events = %+v, want one build event", events)
	}

	if _, err := os.Stat(a.Store.EventsPath()); err != nil {
		t.Errorf("audit log should live next to the state file: %v", err)
	}
	if filepath.Dir(a.Store.EventsPath()) != filepath.Join(cfg.StateDir, "projects") {
		t.Errorf("EventsPath() = %q", a.Store.EventsPath())
	}
}

func TestSetDefault(t *testing.T) {
	t.Cleanup(ResetDefault)

	a := &App{}
	SetDefault(a)
	if Default != a {
		t.Error("SetDefault did not install the app")
	}

	ResetDefault()
	if Default != nil {
		t.Error("ResetDefault should clear the default app")
	}
}
