package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/flatplay/internal/logging"
	"github.com/firefly-engineering/flatplay/internal/project"
)

// Version is the persisted state format version.
const Version = 1

// Selection records which manifest the user chose for a project.
type Selection struct {
	ProjectPathHash string `json:"projectPathHash"`
	ManifestPath    string `json:"manifestPath"`
}

// Session records a running sandboxed application.
type Session struct {
	ApplicationID     string    `json:"applicationId"`
	ProcessID         int       `json:"processId"`
	SandboxBusID      string    `json:"sandboxBusId,omitempty"`
	StartedAt         time.Time `json:"startedAt"`
	ProcessStartTicks uint64    `json:"processStartTicks,omitempty"`
	RunID             string    `json:"runId"`
	LogPath           string    `json:"logPath"`
}

// ProjectState is everything flatplay remembers about one project.
type ProjectState struct {
	Version     int                 `json:"version"`
	ProjectPath string              `json:"projectPath"`
	Selection   *Selection          `json:"selection,omitempty"`
	Sessions    map[string]*Session `json:"sessions"`
}

// Store persists ProjectState for a single project. Every read-modify-write
// holds an exclusive flock, so concurrent flatplay invocations serialize.
type Store struct {
	project *project.Project
	path    string
}

// NewStore returns the store for proj under stateDir.
func NewStore(stateDir string, proj *project.Project) *Store {
	return &Store{
		project: proj,
		path:    filepath.Join(stateDir, "projects", proj.Hash()+".json"),
	}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// EventsPath returns the location of the project's audit event log.
func (s *Store) EventsPath() string {
	return filepath.Join(filepath.Dir(s.path), s.project.Hash()+".events.jsonl")
}

// Load returns a snapshot of the current state under a shared lock.
func (s *Store) Load() (*ProjectState, error) {
	unlock, err := s.lock(unix.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.read(), nil
}

// Update applies fn to the current state and persists the result
// atomically. If fn returns an error nothing is written.
func (s *Store) Update(fn func(*ProjectState) error) error {
	unlock, err := s.lock(unix.LOCK_EX)
	if err != nil {
		return err
	}
	defer unlock()

	st := s.read()
	if err := fn(st); err != nil {
		return err
	}
	return s.write(st)
}

func (s *Store) empty() *ProjectState {
	return &ProjectState{
		Version:     Version,
		ProjectPath: s.project.Root,
		Sessions:    make(map[string]*Session),
	}
}

// read loads the state file. Missing, corrupt or foreign data yields an
// empty state.
func (s *Store) read() *ProjectState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("failed to read state, starting fresh", "path", s.path, "error", err)
		}
		return s.empty()
	}

	var st ProjectState
	if err := json.Unmarshal(data, &st); err != nil {
		logging.Warn("corrupt state file, starting fresh", "path", s.path, "error", err)
		return s.empty()
	}
	if st.Version != Version {
		logging.Warn("unknown state version, starting fresh", "path", s.path, "version", st.Version)
		return s.empty()
	}
	if st.ProjectPath != s.project.Root {
		logging.Warn("state belongs to another project, starting fresh", "path", s.path, "project", st.ProjectPath)
		return s.empty()
	}
	if st.Sessions == nil {
		st.Sessions = make(map[string]*Session)
	}
	for id, sess := range st.Sessions {
		if sess == nil || sess.ApplicationID != id || sess.ProcessID <= 0 {
			logging.Debug("discarding malformed session", "app", id)
			delete(st.Sessions, id)
		}
	}
	if st.Selection != nil && st.Selection.ProjectPathHash != s.project.Hash() {
		logging.Debug("discarding selection with mismatched project hash", "hash", st.Selection.ProjectPathHash)
		st.Selection = nil
	}
	return &st
}

func (s *Store) write(st *ProjectState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	logging.Debug("state saved", "path", s.path, "sessions", len(st.Sessions))
	return nil
}

func (s *Store) lock(how int) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open state lock: %w", err)
	}
	for {
		err = unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock state: %w", err)
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
