package system

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ferrors "github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	logging.SetUserOutput(io.Discard, io.Discard)
	t.Cleanup(func() { logging.SetUserOutput(nil, nil) })
}

func TestRunner_StreamsAndKeepsTail(t *testing.T) {
	requireShell(t)

	var out bytes.Buffer
	r := NewRunner(Host{})
	res, err := r.Run(context.Background(), Command{
		Name:      "sh",
		Args:      []string{"-c", "for i in 1 2 3 4 5; do echo line$i; done"},
		Stdout:    &out,
		Stderr:    &out,
		TailLines: 2,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !res.Success() {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(out.String(), "line1") || !strings.Contains(out.String(), "line5") {
		t.Errorf("streamed output = %q, want all lines", out.String())
	}
	if strings.Join(res.Tail, ",") != "line4,line5" {
		t.Errorf("Tail = %v, want [line4 line5]", res.Tail)
	}
}

func TestRunner_NonZeroExitIsNotAnError(t *testing.T) {
	requireShell(t)

	r := NewRunner(Host{})
	res, err := r.Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "echo failing >&2; exit 3"},
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if len(res.Tail) != 1 || res.Tail[0] != "failing" {
		t.Errorf("Tail = %v, want [failing]", res.Tail)
	}
}

func TestRunner_DirAndEnv(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	var out bytes.Buffer
	r := NewRunner(Host{})
	_, err := r.Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "pwd; echo $FLATPLAY_TEST_VALUE"},
		Dir:    dir,
		Env:    []string{"FLATPLAY_TEST_VALUE=forwarded"},
		Stdout: &out,
		Stderr: io.Discard,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if !strings.Contains(out.String(), "forwarded") {
		t.Errorf("output = %q, want env value", out.String())
	}
	if !strings.Contains(out.String(), filepath.Base(dir)) {
		t.Errorf("output = %q, want working dir %q", out.String(), dir)
	}
}

func TestRunner_ToolUnavailable(t *testing.T) {
	r := NewRunner(Host{})
	_, err := r.Run(context.Background(), Command{Name: "flatplay-definitely-missing-tool"})
	if !ferrors.HasCode(err, ferrors.ExitToolUnavailable) {
		t.Errorf("Run error = %v, want ToolUnavailable", err)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(Host{})

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, Command{
			Name:   "sh",
			Args:   []string{"-c", "sleep 30"},
			Stdout: io.Discard,
			Stderr: io.Discard,
		})
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !ferrors.HasCode(err, ferrors.ExitCancelled) {
			t.Errorf("Run error = %v, want Cancelled", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunner_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(Host{})
	if _, err := r.Run(ctx, Command{Name: "true"}); !ferrors.HasCode(err, ferrors.ExitCancelled) {
		t.Errorf("Run error = %v, want Cancelled", err)
	}
}
