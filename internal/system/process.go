package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/flatplay/internal/logging"
)

const pollInterval = 100 * time.Millisecond

// osProcesses implements Processes on Linux using kill(2) and procfs.
type osProcesses struct {
	fs procfs.FS
}

// NewProcesses returns a Processes backed by /proc.
func NewProcesses() (Processes, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}
	return &osProcesses{fs: fs}, nil
}

func (p *osProcesses) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}
	proc, err := p.fs.Proc(pid)
	if err != nil {
		// Signal 0 succeeded, so the process exists even if /proc is hidden.
		return true
	}
	stat, err := proc.Stat()
	if err != nil {
		return true
	}
	return stat.State != "Z" && stat.State != "X"
}

func (p *osProcesses) StartTicks(pid int) (uint64, error) {
	proc, err := p.fs.Proc(pid)
	if err != nil {
		return 0, err
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Starttime, nil
}

func (p *osProcesses) SignalGroup(pid int, sig syscall.Signal) error {
	return signalGroup(pid, sig)
}

func (p *osProcesses) WaitExit(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if !p.Alive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !p.Alive(pid)
		case <-deadline.C:
			return !p.Alive(pid)
		case <-ticker.C:
		}
	}
}

func signalGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		err = unix.Kill(pid, sig)
	}
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to send %s to %d: %w", sig, pid, err)
	}
	logging.Debug("signalled process group", "pid", pid, "signal", sig.String())
	return nil
}

// osSpawner implements Spawner with os/exec.
type osSpawner struct {
	host  Host
	tools toolLookup
}

// NewSpawner returns a Spawner that starts detached commands through host.
func NewSpawner(host Host) Spawner {
	return &osSpawner{host: host, tools: newToolLookup(host)}
}

func (s *osSpawner) Spawn(ctx context.Context, c Command, logPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := s.tools.check(c.Name); err != nil {
		return 0, err
	}
	name, args := s.host.WrapDetached(c.Name, c.Args)

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logging.UserCommand(c.Name, c.Args)

	// Not CommandContext: the process must outlive this invocation.
	cmd := exec.Command(name, args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	pid := cmd.Process.Pid
	// Reap the child if it exits while flatplay is still running.
	go func() { _ = cmd.Wait() }()

	logging.Debug("spawned detached process", "name", name, "pid", pid, "log", logPath)
	return pid, nil
}
