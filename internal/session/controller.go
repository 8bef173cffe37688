package session

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/flatplay/internal/errors"
	"github.com/firefly-engineering/flatplay/internal/logging"
	"github.com/firefly-engineering/flatplay/internal/manifest"
	"github.com/firefly-engineering/flatplay/internal/project"
	"github.com/firefly-engineering/flatplay/internal/state"
	"github.com/firefly-engineering/flatplay/internal/system"
)

const (
	busPollInterval = 100 * time.Millisecond
	killGrace       = time.Second
	logTailLines    = 20
)

// Options configures a Controller.
type Options struct {
	Project      *project.Project
	BuildDirName string
	Store        *state.Store
	Spawner      system.Spawner
	Processes    system.Processes
	Bus          Bus
	FS           system.FileSystem

	StopTimeout  time.Duration
	BusDiscovery time.Duration
	ForwardEnv   []string

	// LookupEnv reads host environment variables; defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller starts, tracks and stops sandboxed application sessions.
type Controller struct {
	opts Options
}

// Status describes a registered session.
type Status struct {
	Session *state.Session
	Alive   bool
	Uptime  time.Duration
}

// NewController creates a Controller.
func NewController(opts Options) *Controller {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{opts: opts}
}

// Run launches m's built application detached and registers the session.
func (c *Controller) Run(ctx context.Context, m *manifest.Manifest) (*state.Session, error) {
	dirs := c.opts.Project.BuildDirs(c.opts.BuildDirName, m.Path)
	if !dirs.IsBuilt(c.opts.FS) {
		return nil, errors.NotBuilt(m.ID)
	}

	err := c.opts.Store.Update(func(st *state.ProjectState) error {
		existing := st.Sessions[m.ID]
		if existing == nil {
			return nil
		}
		if c.alive(ctx, existing) {
			return errors.SessionAlreadyRunning(m.ID, existing.ProcessID)
		}
		logging.Debug("dropping stale session", "app", m.ID, "pid", existing.ProcessID)
		delete(st.Sessions, m.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := dirs.Ensure(c.opts.FS); err != nil {
		return nil, errors.Wrap(errors.ExitGeneralError, "failed to prepare log directory", err)
	}

	runID := uuid.Must(uuid.NewV7()).String()
	logPath := filepath.Join(dirs.Logs, runID+".log")
	previousOwner := c.currentOwner(ctx, m.ID)

	pid, err := c.opts.Spawner.Spawn(ctx, system.Command{
		Name: "flatpak",
		Args: c.runArgs(ctx, m, dirs),
		Dir:  c.opts.Project.Root,
	}, logPath)
	if err != nil {
		if errors.HasCode(err, errors.ExitToolUnavailable) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ExitGeneralError, "failed to start "+m.ID, err)
	}

	sess := &state.Session{
		ApplicationID: m.ID,
		ProcessID:     pid,
		StartedAt:     c.opts.Now().UTC(),
		RunID:         runID,
		LogPath:       logPath,
	}
	if ticks, err := c.opts.Processes.StartTicks(pid); err == nil {
		sess.ProcessStartTicks = ticks
	}
	sess.SandboxBusID = c.discoverBus(ctx, m.ID, pid, previousOwner)

	if !c.opts.Processes.Alive(pid) {
		e := errors.New(errors.ExitGeneralError, m.ID+" exited immediately, see "+logPath)
		e.Tail = readTail(logPath, logTailLines)
		return nil, e
	}

	err = c.opts.Store.Update(func(st *state.ProjectState) error {
		if other := st.Sessions[m.ID]; other != nil && other.ProcessID != pid && c.alive(ctx, other) {
			return errors.SessionAlreadyRunning(m.ID, other.ProcessID)
		}
		st.Sessions[m.ID] = sess
		return nil
	})
	if err != nil {
		// Another invocation registered first; do not leave an untracked process.
		if errors.HasCode(err, errors.ExitSessionAlreadyRunning) {
			c.terminate(ctx, pid)
		}
		return nil, err
	}

	logging.Info("session started", "app", m.ID, "pid", pid, "bus", sess.SandboxBusID, "run", runID)
	return sess, nil
}

// Stop ends appID's session, gracefully if possible, and unregisters it.
func (c *Controller) Stop(ctx context.Context, appID string) (*state.Session, error) {
	st, err := c.opts.Store.Load()
	if err != nil {
		return nil, err
	}
	sess := st.Sessions[appID]
	if sess == nil {
		return nil, errors.SessionNotFound(appID)
	}

	if !c.alive(ctx, sess) {
		if err := c.unregister(appID, sess.ProcessID); err != nil {
			return nil, err
		}
		return nil, errors.SessionNotFound(appID)
	}

	if !c.quitGracefully(ctx, sess) {
		if err := c.opts.Processes.SignalGroup(sess.ProcessID, syscall.SIGTERM); err != nil {
			logging.Warn("failed to send SIGTERM", "pid", sess.ProcessID, "error", err)
		}
	}

	if !c.opts.Processes.WaitExit(ctx, sess.ProcessID, c.opts.StopTimeout) {
		logging.Debug("session did not exit in time, killing", "app", appID, "pid", sess.ProcessID)
		if err := c.opts.Processes.SignalGroup(sess.ProcessID, syscall.SIGKILL); err != nil {
			return nil, errors.Wrap(errors.ExitGeneralError, "failed to kill "+appID, err)
		}
		c.opts.Processes.WaitExit(ctx, sess.ProcessID, killGrace)
	}

	if err := c.unregister(appID, sess.ProcessID); err != nil {
		return nil, err
	}
	logging.Info("session stopped", "app", appID, "pid", sess.ProcessID)
	return sess, nil
}

// Status returns appID's session. Stale sessions are dropped and reported
// as SessionNotFound.
func (c *Controller) Status(ctx context.Context, appID string) (*Status, error) {
	statuses, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range statuses {
		if s.Session.ApplicationID == appID {
			return s, nil
		}
	}
	return nil, errors.SessionNotFound(appID)
}

// List returns every live session of the project, dropping stale ones.
func (c *Controller) List(ctx context.Context) ([]*Status, error) {
	var live []*Status
	err := c.opts.Store.Update(func(st *state.ProjectState) error {
		live = live[:0]
		for id, sess := range st.Sessions {
			if !c.alive(ctx, sess) {
				logging.Debug("dropping stale session", "app", id, "pid", sess.ProcessID)
				delete(st.Sessions, id)
				continue
			}
			live = append(live, &Status{
				Session: sess,
				Alive:   true,
				Uptime:  c.opts.Now().Sub(sess.StartedAt),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortStatuses(live)
	return live, nil
}

// alive reports whether sess still denotes the process it registered.
func (c *Controller) alive(ctx context.Context, sess *state.Session) bool {
	if !c.opts.Processes.Alive(sess.ProcessID) {
		return false
	}
	if sess.ProcessStartTicks != 0 {
		ticks, err := c.opts.Processes.StartTicks(sess.ProcessID)
		if err == nil && ticks != sess.ProcessStartTicks {
			logging.Debug("pid reused", "pid", sess.ProcessID)
			return false
		}
	}
	if sess.SandboxBusID != "" && c.opts.Bus.Available() {
		has, err := c.opts.Bus.NameHasOwner(ctx, sess.SandboxBusID)
		if err == nil && !has {
			return false
		}
	}
	return true
}

func (c *Controller) runArgs(ctx context.Context, m *manifest.Manifest, dirs project.BuildDirs) []string {
	args := []string{
		"build",
		"--with-appdir",
		"--allow=devel",
		"--talk-name=org.freedesktop.portal.*",
		"--talk-name=org.a11y.Bus",
	}
	args = append(args, hostEnvArgs(c.opts.ForwardEnv, c.opts.LookupEnv)...)
	if c.opts.Bus.Available() {
		if address, err := c.opts.Bus.A11yAddress(ctx); err == nil {
			args = append(args, a11yArgs(address)...)
		} else {
			logging.Debug("accessibility bus unavailable", "error", err)
		}
	}
	args = append(args, m.FinishArgs...)
	args = append(args, dirs.Repo, m.Command)
	return append(args, m.RunArgs...)
}

// currentOwner returns the unique name owning appID, or "".
func (c *Controller) currentOwner(ctx context.Context, appID string) string {
	if c.opts.BusDiscovery <= 0 || !c.opts.Bus.Available() {
		return ""
	}
	owner, err := c.opts.Bus.NameOwner(ctx, appID)
	if err != nil {
		return ""
	}
	logging.Debug("application name already owned", "app", appID, "owner", owner)
	return owner
}

// discoverBus waits for the spawned application to claim its well-known
// name and returns the owning unique name, or "" if it never appears.
// An owner equal to previous belongs to another instance and is skipped.
func (c *Controller) discoverBus(ctx context.Context, appID string, pid int, previous string) string {
	if c.opts.BusDiscovery <= 0 || !c.opts.Bus.Available() {
		return ""
	}

	deadline := time.NewTimer(c.opts.BusDiscovery)
	defer deadline.Stop()
	ticker := time.NewTicker(busPollInterval)
	defer ticker.Stop()

	for {
		owner, err := c.opts.Bus.NameOwner(ctx, appID)
		if !c.opts.Processes.Alive(pid) {
			return ""
		}
		if err == nil && owner != previous {
			return owner
		}
		select {
		case <-ctx.Done():
			return ""
		case <-deadline.C:
			logging.Debug("application did not appear on the session bus", "app", appID)
			return ""
		case <-ticker.C:
		}
	}
}

func (c *Controller) quitGracefully(ctx context.Context, sess *state.Session) bool {
	if sess.SandboxBusID == "" || !c.opts.Bus.Available() {
		return false
	}
	if err := c.opts.Bus.Quit(ctx, sess.SandboxBusID, sess.ApplicationID); err != nil {
		logging.Debug("quit action failed, falling back to SIGTERM", "app", sess.ApplicationID, "error", err)
		return false
	}
	return true
}

func (c *Controller) terminate(ctx context.Context, pid int) {
	_ = c.opts.Processes.SignalGroup(pid, syscall.SIGTERM)
	if !c.opts.Processes.WaitExit(ctx, pid, c.opts.StopTimeout) {
		_ = c.opts.Processes.SignalGroup(pid, syscall.SIGKILL)
	}
}

// unregister removes appID's session if it still records pid.
func (c *Controller) unregister(appID string, pid int) error {
	return c.opts.Store.Update(func(st *state.ProjectState) error {
		if sess := st.Sessions[appID]; sess != nil && sess.ProcessID == pid {
			delete(st.Sessions, appID)
		}
		return nil
	})
}

func readTail(path string, n int) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	tail := system.NewTailBuffer(n)
	_, _ = tail.Write(data)
	return tail.Lines()
}

func sortStatuses(statuses []*Status) {
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Session.ApplicationID < statuses[j].Session.ApplicationID
	})
}
