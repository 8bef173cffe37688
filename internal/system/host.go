package system

import (
	"os/exec"

	ferrors "github.com/firefly-engineering/flatplay/internal/errors"
)

const (
	flatpakInfoPath  = "/.flatpak-info"
	containerEnvPath = "/run/.containerenv"
)

// Host describes where flatplay itself is running. Inside a Flatpak
// sandbox every external command must be escaped to the host.
type Host struct {
	Sandboxed bool
	Container bool
	HostSpawn bool
}

// DetectHost inspects marker files to determine the execution environment.
func DetectHost(fsys FileSystem) Host {
	h := Host{
		Sandboxed: fsys.Exists(flatpakInfoPath),
		Container: fsys.Exists(containerEnvPath),
	}
	if h.Sandboxed {
		_, err := exec.LookPath("host-spawn")
		h.HostSpawn = err == nil
	}
	return h
}

// Wrap returns the program and arguments that run name on the host.
func (h Host) Wrap(name string, args []string) (string, []string) {
	return h.wrap(name, args, true)
}

// WrapDetached is like Wrap, but the host process is not tied to
// flatplay's bus connection, so it survives flatplay exiting.
func (h Host) WrapDetached(name string, args []string) (string, []string) {
	return h.wrap(name, args, false)
}

func (h Host) wrap(name string, args []string, watchBus bool) (string, []string) {
	if !h.Sandboxed {
		return name, args
	}
	if h.HostSpawn {
		return "host-spawn", append([]string{name}, args...)
	}
	wrapped := []string{"--host"}
	if watchBus {
		wrapped = append(wrapped, "--watch-bus")
	}
	wrapped = append(wrapped, "--env=TERM=xterm-256color", name)
	return "flatpak-spawn", append(wrapped, args...)
}

// toolLookup checks that commands can be started through a Host.
type toolLookup struct {
	host Host
	// local searches flatplay's own PATH.
	local func(string) (string, error)
	// onHost searches the PATH the command will actually run with.
	onHost func(string) (string, error)
}

func newToolLookup(h Host) toolLookup {
	return toolLookup{host: h, local: exec.LookPath, onHost: NewExecutor(h).LookPath}
}

// check reports a missing name, or a missing host escape, as ToolUnavailable.
func (t toolLookup) check(name string) error {
	if wrapper, _ := t.host.Wrap(name, nil); wrapper != name {
		if _, err := t.local(wrapper); err != nil {
			return ferrors.ToolUnavailable(wrapper, err)
		}
	}
	if _, err := t.onHost(name); err != nil {
		return ferrors.ToolUnavailable(name, err)
	}
	return nil
}
