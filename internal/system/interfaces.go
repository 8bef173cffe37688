// Package system provides abstractions for OS operations to enable testing.
package system

import (
	"context"
	"io"
	"io/fs"
	"os"
	"syscall"
	"time"
)

// FileSystem abstracts file system operations for testability.
type FileSystem interface {
	// ReadFile reads the named file and returns the contents.
	ReadFile(path string) ([]byte, error)

	// RemoveAll removes path and any children it contains.
	RemoveAll(path string) error

	// Stat returns file info for the named file.
	Stat(path string) (fs.FileInfo, error)

	// MkdirAll creates a directory named path, along with any necessary parents.
	MkdirAll(path string, perm fs.FileMode) error

	// Exists returns true if the path exists.
	Exists(path string) bool

	// IsDir returns true if the path is a directory.
	IsDir(path string) bool

	// ReadDir reads the named directory, returning all its directory entries.
	ReadDir(path string) ([]fs.DirEntry, error)
}

// CommandExecutor abstracts short, captured-output command execution.
type CommandExecutor interface {
	// Execute runs a command and returns its combined output.
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// ExecuteInteractive runs a command with stdin/stdout/stderr connected to the terminal.
	ExecuteInteractive(ctx context.Context, name string, args ...string) error

	// LookPath reports where an executable lives, as exec.LookPath does.
	LookPath(name string) (string, error)
}

// Command describes a long-running external program.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the inherited environment.
	Env []string

	// Stdout and Stderr receive output as it arrives. Nil means the
	// terminal's stdout/stderr.
	Stdout io.Writer
	Stderr io.Writer

	// TailLines bounds how many trailing output lines are kept in Result.
	TailLines int
}

// Result is the outcome of a completed Command.
type Result struct {
	ExitCode int
	Tail     []string
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner executes commands to completion while streaming their output.
// A non-zero exit status is reported in Result, not as an error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Spawner starts detached processes that outlive flatplay.
type Spawner interface {
	// Spawn starts cmd in a new session with output appended to logPath
	// and returns its pid without waiting for it.
	Spawn(ctx context.Context, cmd Command, logPath string) (int, error)
}

// Processes inspects and signals processes by pid.
type Processes interface {
	// Alive reports whether pid names a running, non-zombie process.
	Alive(pid int) bool

	// StartTicks returns the process start time in clock ticks since boot.
	StartTicks(pid int) (uint64, error)

	// SignalGroup sends sig to the process group led by pid, falling back to
	// the process itself. A process that is already gone is not an error.
	SignalGroup(pid int, sig syscall.Signal) error

	// WaitExit polls until pid is gone or the timeout elapses and reports
	// whether it exited.
	WaitExit(ctx context.Context, pid int, timeout time.Duration) bool
}

// DefaultFS returns the FileSystem backed by real OS operations.
func DefaultFS() FileSystem {
	return &osFileSystem{}
}

// osFileSystem implements FileSystem using real OS operations.
type osFileSystem struct{}

func (f *osFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (f *osFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (f *osFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (f *osFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (f *osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (f *osFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (f *osFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}
