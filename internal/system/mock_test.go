package system

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"syscall"
	"testing"
)

func TestMockFS_ReadFile(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/test/file.txt", []byte("hello world"), 0644)

	data, err := mockFS.ReadFile("/test/file.txt")
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}

	if string(data) != "hello world" {
		t.Errorf("ReadFile = %q, want %q", string(data), "hello world")
	}
}

func TestMockFS_ReadFile_NotExists(t *testing.T) {
	mockFS := NewMockFS()

	_, err := mockFS.ReadFile("/nonexistent")
	if err != fs.ErrNotExist {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
}

func TestMockFS_Stat(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/test/file.txt", []byte("content"), 0644)
	mockFS.AddDir("/test/dir")

	info, err := mockFS.Stat("/test/file.txt")
	if err != nil {
		t.Fatalf("Stat file error: %v", err)
	}
	if info.IsDir() {
		t.Error("File should not be a directory")
	}
	if info.Name() != "file.txt" {
		t.Errorf("Name = %q, want %q", info.Name(), "file.txt")
	}

	info, err = mockFS.Stat("/test/dir")
	if err != nil {
		t.Fatalf("Stat dir error: %v", err)
	}
	if !info.IsDir() {
		t.Error("Dir should be a directory")
	}
}

func TestMockFS_ExistsAndIsDir(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/file.txt", []byte("x"), 0644)
	mockFS.AddDir("/dir")

	if !mockFS.Exists("/file.txt") {
		t.Error("File should exist")
	}
	if !mockFS.Exists("/dir") {
		t.Error("Dir should exist")
	}
	if mockFS.Exists("/nonexistent") {
		t.Error("Nonexistent should not exist")
	}
	if mockFS.IsDir("/file.txt") {
		t.Error("File should not be a dir")
	}
	if !mockFS.IsDir("/dir") {
		t.Error("Dir should be a dir")
	}
}

func TestMockFS_RemoveAll(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/proj/.flatplay/app/repo/metadata", []byte("x"), 0644)
	mockFS.AddFile("/proj/manifest.json", []byte("{}"), 0644)

	if err := mockFS.RemoveAll("/proj/.flatplay"); err != nil {
		t.Fatalf("RemoveAll error: %v", err)
	}

	if mockFS.Exists("/proj/.flatplay/app/repo/metadata") {
		t.Error("Nested file should be removed")
	}
	if mockFS.Exists("/proj/.flatplay") {
		t.Error("Directory should be removed")
	}
	if !mockFS.Exists("/proj/manifest.json") {
		t.Error("Sibling file should remain")
	}
}

func TestMockFS_ReadDir(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/repo/files/bin/app", []byte("x"), 0755)
	mockFS.AddFile("/repo/files/share", []byte("x"), 0644)

	entries, err := mockFS.ReadDir("/repo/files")
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ReadDir returned %d entries, want 2", len(entries))
	}
}

func TestMockFS_ErrorInjection(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.StatErr = errors.New("stat failed")

	if _, err := mockFS.Stat("/anything"); err == nil {
		t.Error("Expected injected Stat error")
	}
}

func TestMockExecutor_Execute(t *testing.T) {
	mock := NewMockExecutor()
	mock.AddResponse("gdbus call", []byte("(true,)"), nil)

	output, err := mock.Execute(context.Background(), "gdbus", "call", "--session")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if string(output) != "(true,)" {
		t.Errorf("Output = %q, want %q", string(output), "(true,)")
	}

	cmd, ok := mock.LastCommand()
	if !ok {
		t.Fatal("LastCommand should return a command")
	}
	if cmd.Name != "gdbus" {
		t.Errorf("Command name = %q, want %q", cmd.Name, "gdbus")
	}
	if len(cmd.Args) != 2 {
		t.Errorf("Args length = %d, want 2", len(cmd.Args))
	}
}

func TestMockExecutor_LongestPrefixWins(t *testing.T) {
	mock := NewMockExecutor()
	mock.AddResponse("flatpak", []byte("generic"), nil)
	mock.AddResponse("flatpak info org.flatpak.Builder", []byte("specific"), nil)

	out, _ := mock.Execute(context.Background(), "flatpak", "info", "org.flatpak.Builder")
	if string(out) != "specific" {
		t.Errorf("Output = %q, want %q", out, "specific")
	}

	out, _ = mock.Execute(context.Background(), "flatpak", "--version")
	if string(out) != "generic" {
		t.Errorf("Output = %q, want %q", out, "generic")
	}

	// A key only matches on word boundaries.
	out, _ = mock.Execute(context.Background(), "flatpak-builder")
	if string(out) != "" {
		t.Errorf("Output = %q, want default empty output", out)
	}
}

func TestMockExecutor_DefaultResponse(t *testing.T) {
	mock := NewMockExecutor()
	mock.DefaultResponse = MockResponse{Output: []byte("default"), Err: nil}

	output, err := mock.Execute(context.Background(), "unknown", "command")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if string(output) != "default" {
		t.Errorf("Output = %q, want %q", string(output), "default")
	}
}

func TestMockExecutor_LookPath(t *testing.T) {
	mock := NewMockExecutor()
	mock.MissingTools["flatpak-builder"] = true

	if _, err := mock.LookPath("flatpak"); err != nil {
		t.Errorf("LookPath(flatpak) error = %v, want nil", err)
	}
	if _, err := mock.LookPath("flatpak-builder"); err == nil {
		t.Error("LookPath(flatpak-builder) should fail")
	}
}

func TestMockExecutor_Reset(t *testing.T) {
	mock := NewMockExecutor()

	_, _ = mock.Execute(context.Background(), "cmd1")
	_ = mock.ExecuteInteractive(context.Background(), "cmd2")

	if len(mock.Commands) != 2 {
		t.Errorf("Commands length = %d, want 2", len(mock.Commands))
	}

	mock.Reset()

	if len(mock.Commands) != 0 {
		t.Errorf("Commands length after reset = %d, want 0", len(mock.Commands))
	}
}

func TestMockRunner(t *testing.T) {
	mock := NewMockRunner()
	mock.AddResponse("flatpak build-init", 0)
	mock.AddResponse("flatpak build", 2, "line 1", "line 2", "error: boom")

	res, err := mock.Run(context.Background(), Command{Name: "flatpak", Args: []string{"build-init", "repo"}})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !res.Success() {
		t.Errorf("build-init ExitCode = %d, want 0", res.ExitCode)
	}

	res, err = mock.Run(context.Background(), Command{
		Name:      "flatpak",
		Args:      []string{"build", "repo", "make"},
		TailLines: 2,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", res.ExitCode)
	}
	if strings.Join(res.Tail, "|") != "line 2|error: boom" {
		t.Errorf("Tail = %v, want last two lines", res.Tail)
	}

	lines := mock.CommandLines()
	if len(lines) != 2 || lines[1] != "flatpak build repo make" {
		t.Errorf("CommandLines = %v", lines)
	}
}

func TestMockRunner_Error(t *testing.T) {
	mock := NewMockRunner()
	mock.AddError("flatpak-builder", errors.New("not found"))

	if _, err := mock.Run(context.Background(), Command{Name: "flatpak-builder"}); err == nil {
		t.Error("Expected injected error")
	}
}

func TestMockSpawner(t *testing.T) {
	mock := NewMockSpawner()

	pid1, err := mock.Spawn(context.Background(), Command{Name: "flatpak"}, "/tmp/a.log")
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	pid2, _ := mock.Spawn(context.Background(), Command{Name: "flatpak"}, "/tmp/b.log")

	if pid1 != 4000 || pid2 != 4001 {
		t.Errorf("pids = %d, %d, want 4000, 4001", pid1, pid2)
	}
	if mock.SpawnCount() != 2 {
		t.Errorf("SpawnCount = %d, want 2", mock.SpawnCount())
	}
}

func TestMockProcesses(t *testing.T) {
	mock := NewMockProcesses()
	mock.AddProcess(10, 555)

	if !mock.Alive(10) {
		t.Error("Process 10 should be alive")
	}
	ticks, err := mock.StartTicks(10)
	if err != nil || ticks != 555 {
		t.Errorf("StartTicks = %d, %v, want 555, nil", ticks, err)
	}

	mock.IgnoreTerm = true
	_ = mock.SignalGroup(10, syscall.SIGTERM)
	if !mock.Alive(10) {
		t.Error("Process should survive SIGTERM when IgnoreTerm is set")
	}

	_ = mock.SignalGroup(10, syscall.SIGKILL)
	if mock.Alive(10) {
		t.Error("Process should be gone after SIGKILL")
	}
	if len(mock.SignalsSent()) != 2 {
		t.Errorf("SignalsSent = %d, want 2", len(mock.SignalsSent()))
	}
}
