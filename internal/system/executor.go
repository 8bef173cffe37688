package system

import (
	"context"
	"os"
	"os/exec"

	"github.com/firefly-engineering/flatplay/internal/logging"
)

// osExecutor implements CommandExecutor using real OS operations.
type osExecutor struct {
	host Host
}

// NewExecutor returns a CommandExecutor that runs commands through host.
func NewExecutor(host Host) CommandExecutor {
	return &osExecutor{host: host}
}

func (e *osExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	name, args = e.host.Wrap(name, args)
	logging.Debug("executing command", "name", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func (e *osExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	name, args = e.host.Wrap(name, args)
	logging.UserCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (e *osExecutor) LookPath(name string) (string, error) {
	if e.host.Sandboxed {
		// Host binaries are not visible from inside the sandbox; ask the host.
		wrapped, args := e.host.Wrap("which", []string{name})
		out, err := exec.Command(wrapped, args...).Output()
		if err != nil {
			return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
		}
		return string(trimNewline(out)), nil
	}
	return exec.LookPath(name)
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
