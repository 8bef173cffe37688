package system

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// matchResponse returns the response whose key is the longest word-prefix
// of "name arg1 arg2...".
func matchResponse[T any](responses map[string]T, name string, args []string) (T, bool) {
	line := strings.Join(append([]string{name}, args...), " ")
	var (
		best    T
		bestLen = -1
	)
	for key, resp := range responses {
		if (line == key || strings.HasPrefix(line, key+" ")) && len(key) > bestLen {
			best, bestLen = resp, len(key)
		}
	}
	return best, bestLen >= 0
}

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands for verification.
	Commands []MockCommand

	// Responses maps command prefixes to responses.
	// Key format: "command arg1 arg2..."; the longest matching key wins.
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse

	// InteractiveErr is returned by ExecuteInteractive if set.
	InteractiveErr error

	// MissingTools lists executables LookPath reports as absent.
	MissingTools map[string]bool
}

// MockCommand records an executed command.
type MockCommand struct {
	Name string
	Args []string
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Output []byte
	Err    error
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:     make([]MockCommand, 0),
		Responses:    make(map[string]MockResponse),
		MissingTools: make(map[string]bool),
	}
}

// AddResponse adds a response for a specific command pattern.
func (m *MockExecutor) AddResponse(pattern string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockResponse{Output: output, Err: err}
}

func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, MockCommand{Name: name, Args: args})

	if resp, ok := matchResponse(m.Responses, name, args); ok {
		return resp.Output, resp.Err
	}
	return m.DefaultResponse.Output, m.DefaultResponse.Err
}

func (m *MockExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, MockCommand{Name: name, Args: args})
	return m.InteractiveErr
}

func (m *MockExecutor) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MissingTools[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// Reset clears all recorded commands.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]MockCommand, 0)
}

// MockRunResponse defines the outcome of a command run by MockRunner.
type MockRunResponse struct {
	ExitCode int
	Output   []string
	Err      error
}

// MockRunner implements Runner for testing.
type MockRunner struct {
	mu sync.Mutex

	// Commands records every command in the order it was run.
	Commands []Command

	// Responses maps command prefixes to outcomes; the longest matching key wins.
	Responses map[string]MockRunResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockRunResponse

	// OnRun, if set, is called for every command before it completes.
	OnRun func(Command)
}

// NewMockRunner creates a new MockRunner where every command succeeds.
func NewMockRunner() *MockRunner {
	return &MockRunner{Responses: make(map[string]MockRunResponse)}
}

// AddResponse sets the outcome for commands starting with pattern.
func (m *MockRunner) AddResponse(pattern string, exitCode int, output ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockRunResponse{ExitCode: exitCode, Output: output}
}

// AddError makes commands starting with pattern fail to run at all.
func (m *MockRunner) AddError(pattern string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockRunResponse{Err: err}
}

func (m *MockRunner) Run(ctx context.Context, c Command) (*Result, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, c)
	resp, ok := matchResponse(m.Responses, c.Name, c.Args)
	if !ok {
		resp = m.DefaultResponse
	}
	onRun := m.OnRun
	m.mu.Unlock()

	if onRun != nil {
		onRun(c)
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	tail := NewTailBuffer(c.TailLines)
	out := c.Stdout
	if out == nil {
		out = io.Discard
	}
	for _, line := range resp.Output {
		fmt.Fprintln(io.MultiWriter(out, tail), line)
	}
	return &Result{ExitCode: resp.ExitCode, Tail: tail.Lines()}, nil
}

// CommandLines returns each recorded command as a single space-joined line.
func (m *MockRunner) CommandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		lines[i] = strings.Join(append([]string{c.Name}, c.Args...), " ")
	}
	return lines
}

// MockSpawner implements Spawner for testing.
type MockSpawner struct {
	mu sync.Mutex

	// Spawned records every spawned command.
	Spawned []Command

	// LogPaths records the log path given for each spawn.
	LogPaths []string

	// NextPID is the pid returned by the next Spawn; it increments afterwards.
	NextPID int

	// Err, if set, is returned by Spawn.
	Err error

	// OnSpawn, if set, is called with each spawned command and its pid.
	OnSpawn func(c Command, pid int)
}

// NewMockSpawner creates a MockSpawner handing out pids from 4000.
func NewMockSpawner() *MockSpawner {
	return &MockSpawner{NextPID: 4000}
}

func (m *MockSpawner) Spawn(ctx context.Context, c Command, logPath string) (int, error) {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return 0, m.Err
	}
	m.Spawned = append(m.Spawned, c)
	m.LogPaths = append(m.LogPaths, logPath)
	pid := m.NextPID
	m.NextPID++
	onSpawn := m.OnSpawn
	m.mu.Unlock()

	if onSpawn != nil {
		onSpawn(c, pid)
	}
	return pid, nil
}

// SpawnCount returns how many commands were spawned.
func (m *MockSpawner) SpawnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Spawned)
}

// MockSignal records a signal sent through MockProcesses.
type MockSignal struct {
	PID    int
	Signal syscall.Signal
}

// MockProcesses implements Processes over an in-memory process table.
type MockProcesses struct {
	mu    sync.Mutex
	procs map[int]uint64

	// Signals records every signal sent.
	Signals []MockSignal

	// IgnoreTerm keeps processes alive after SIGTERM.
	IgnoreTerm bool
}

// NewMockProcesses creates an empty process table.
func NewMockProcesses() *MockProcesses {
	return &MockProcesses{procs: make(map[int]uint64)}
}

// AddProcess registers a live process with the given start ticks.
func (m *MockProcesses) AddProcess(pid int, startTicks uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procs[pid] = startTicks
}

// Exit removes a process from the table.
func (m *MockProcesses) Exit(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.procs, pid)
}

func (m *MockProcesses) Alive(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.procs[pid]
	return ok
}

func (m *MockProcesses) StartTicks(pid int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticks, ok := m.procs[pid]
	if !ok {
		return 0, fmt.Errorf("process %d not found", pid)
	}
	return ticks, nil
}

func (m *MockProcesses) SignalGroup(pid int, sig syscall.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Signals = append(m.Signals, MockSignal{PID: pid, Signal: sig})
	if sig == syscall.SIGKILL || (sig == syscall.SIGTERM && !m.IgnoreTerm) {
		delete(m.procs, pid)
	}
	return nil
}

func (m *MockProcesses) WaitExit(ctx context.Context, pid int, timeout time.Duration) bool {
	return !m.Alive(pid)
}

// SignalsSent returns the signals sent so far.
func (m *MockProcesses) SignalsSent() []MockSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockSignal(nil), m.Signals...)
}
