package system

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	ferrors "github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
)

// DefaultKillDelay is how long a cancelled command may take to exit after
// SIGTERM before its process group is killed.
const DefaultKillDelay = 5 * time.Second

// osRunner implements Runner with os/exec.
type osRunner struct {
	host      Host
	tools     toolLookup
	killDelay time.Duration
}

// NewRunner returns a Runner that executes commands through host.
func NewRunner(host Host) Runner {
	return &osRunner{host: host, tools: newToolLookup(host), killDelay: DefaultKillDelay}
}

func (r *osRunner) Run(ctx context.Context, c Command) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, ferrors.Cancelled(c.Name)
	}

	if err := r.tools.check(c.Name); err != nil {
		return nil, err
	}
	name, args := r.host.Wrap(c.Name, c.Args)

	logging.UserCommand(c.Name, c.Args)
	logging.Debug("running command", "name", name, "args", args, "dir", c.Dir)

	tail := NewTailBuffer(c.TailLines)
	stdout, stderr := c.Stdout, c.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = io.MultiWriter(stdout, tail)
	cmd.Stderr = io.MultiWriter(stderr, tail)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = r.killDelay

	err := cmd.Run()

	if ctx.Err() != nil {
		if cmd.Process != nil {
			_ = signalGroup(cmd.Process.Pid, syscall.SIGKILL)
		}
		return &Result{ExitCode: exitCode(cmd, err), Tail: tail.Lines()}, ferrors.Cancelled(c.Name)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, ferrors.Wrap(ferrors.ExitGeneralError, "failed to run "+c.Name, err)
		}
	}

	res := &Result{ExitCode: exitCode(cmd, err), Tail: tail.Lines()}
	logging.Debug("command finished", "name", c.Name, "exit", res.ExitCode)
	return res, nil
}

// exitCode maps a finished command to a shell-style status, using
// 128+signal for signalled processes.
func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState == nil {
		if err != nil {
			return -1
		}
		return 0
	}
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return cmd.ProcessState.ExitCode()
}
