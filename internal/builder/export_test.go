package builder

import (
	"context"
	"strings"
	"testing"

	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/system"
)

func TestExport_NotBuilt(t *testing.T) {
	env := newTestEnv(t, mesonApp, system.Host{})

	_, err := env.builder.Export(context.Background(), env.manifest, "")
	if !errors.HasCode(err, errors.ExitNotBuilt) {
		t.Errorf("Export error = %v, want NotBuilt", err)
	}
	if len(env.runner.Commands) != 0 {
		t.Error("no command should run when not built")
	}
}

func TestExport_DefaultDestination(t *testing.T) {
	env := newTestEnv(t, mesonApp, system.Host{})
	env.markBuilt()
	env.fs.AddFile(env.dirs.Finalized+"/stale", []byte("old"), 0644)

	path, err := env.builder.Export(context.Background(), env.manifest, "")
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if path != "/proj/org.example.App.flatpak" {
		t.Errorf("bundle path = %q", path)
	}
	if env.fs.Exists(env.dirs.Finalized + "/stale") {
		t.Error("previous finalized repository should be removed")
	}

	want := []string{
		"cp -a $B/repo $B/finalized-repo",
		"flatpak build-finish --share=ipc --command=example-app $B/finalized-repo",
		"flatpak build-export $B/ostree $B/finalized-repo",
		"flatpak build-bundle $B/ostree /proj/org.example.App.flatpak org.example.App",
	}
	got := env.relLines()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("commands:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestExport_RelativeDestination(t *testing.T) {
	env := newTestEnv(t, mesonApp, system.Host{})
	env.markBuilt()

	path, err := env.builder.Export(context.Background(), env.manifest, "dist/app.flatpak")
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if path != "/proj/dist/app.flatpak" {
		t.Errorf("bundle path = %q, want resolved under project root", path)
	}
}

func TestExport_StepFailure(t *testing.T) {
	env := newTestEnv(t, mesonApp, system.Host{})
	env.markBuilt()
	env.runner.AddResponse("flatpak build-export", 1, "error: No such ref")

	_, err := env.builder.Export(context.Background(), env.manifest, "")
	if !errors.HasCode(err, errors.ExitExportFailed) {
		t.Fatalf("Export error = %v, want ExportFailed", err)
	}
	var fe *errors.FlatplayError
	if errors.As(err, &fe) && (len(fe.Tail) != 1 || fe.Tail[0] != "error: No such ref") {
		t.Errorf("Tail = %v", fe.Tail)
	}
	for _, line := range env.relLines() {
		if strings.Contains(line, "build-bundle") {
			t.Error("build-bundle should not run after a failed export")
		}
	}
}

func TestTerminals(t *testing.T) {
	env := newTestEnv(t, mesonApp, system.Host{})

	if err := env.builder.RuntimeTerminal(context.Background(), env.manifest); err != nil {
		t.Fatalf("RuntimeTerminal error: %v", err)
	}
	cmd, _ := env.executor.LastCommand()
	if got := cmd.Name + " " + strings.Join(cmd.Args, " "); got != "flatpak run --command=bash org.gnome.Sdk//47" {
		t.Errorf("runtime terminal = %q", got)
	}

	err := env.builder.BuildTerminal(context.Background(), env.manifest)
	if !errors.HasCode(err, errors.ExitNotBuilt) {
		t.Errorf("BuildTerminal error = %v, want NotBuilt before build-init", err)
	}

	env.markInitialized()
	if err := env.builder.BuildTerminal(context.Background(), env.manifest); err != nil {
		t.Fatalf("BuildTerminal error: %v", err)
	}
	cmd, _ = env.executor.LastCommand()
	if got := strings.Join(cmd.Args, " "); got != "build "+env.dirs.Repo+" bash" {
		t.Errorf("build terminal args = %q", got)
	}
}

func TestTerminals_MissingFlatpak(t *testing.T) {
	env := newTestEnv(t, mesonApp, system.Host{})
	env.executor.MissingTools["flatpak"] = true

	err := env.builder.RuntimeTerminal(context.Background(), env.manifest)
	if !errors.HasCode(err, errors.ExitToolUnavailable) {
		t.Errorf("RuntimeTerminal error = %v, want ToolUnavailable", err)
	}
}
