package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/flatplay/internal/system"
)

// Bus queries and drives applications over the D-Bus session bus.
type Bus interface {
	// Available reports whether the bus can be reached at all.
	Available() bool

	// NameOwner returns the unique connection name owning name.
	NameOwner(ctx context.Context, name string) (string, error)

	// NameHasOwner reports whether name currently has an owner.
	NameHasOwner(ctx context.Context, name string) (bool, error)

	// Quit activates the application's "quit" action.
	Quit(ctx context.Context, busID, appID string) error

	// A11yAddress returns the accessibility bus address.
	A11yAddress(ctx context.Context) (string, error)
}

// gdbusBus implements Bus by calling the gdbus command line tool.
type gdbusBus struct {
	exec system.CommandExecutor
}

// NewGDBus returns a Bus backed by gdbus.
func NewGDBus(exec system.CommandExecutor) Bus {
	return &gdbusBus{exec: exec}
}

func (b *gdbusBus) Available() bool {
	_, err := b.exec.LookPath("gdbus")
	return err == nil
}

func (b *gdbusBus) call(ctx context.Context, dest, path, method string, args ...string) (string, error) {
	cmdArgs := []string{
		"call", "--session",
		"--dest=" + dest,
		"--object-path=" + path,
		"--method=" + method,
	}
	out, err := b.exec.Execute(ctx, "gdbus", append(cmdArgs, args...)...)
	if err != nil {
		return "", fmt.Errorf("gdbus %s: %w: %s", method, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func (b *gdbusBus) NameOwner(ctx context.Context, name string) (string, error) {
	out, err := b.call(ctx, "org.freedesktop.DBus", "/org/freedesktop/DBus",
		"org.freedesktop.DBus.GetNameOwner", name)
	if err != nil {
		return "", err
	}
	owner := parseStringReply(out)
	if owner == "" {
		return "", fmt.Errorf("no owner for %s", name)
	}
	return owner, nil
}

func (b *gdbusBus) NameHasOwner(ctx context.Context, name string) (bool, error) {
	out, err := b.call(ctx, "org.freedesktop.DBus", "/org/freedesktop/DBus",
		"org.freedesktop.DBus.NameHasOwner", name)
	if err != nil {
		return false, err
	}
	return out == "(true,)", nil
}

func (b *gdbusBus) Quit(ctx context.Context, busID, appID string) error {
	_, err := b.call(ctx, busID, ObjectPath(appID), "org.gtk.Actions.Activate", "quit", "[]", "{}")
	return err
}

func (b *gdbusBus) A11yAddress(ctx context.Context) (string, error) {
	out, err := b.call(ctx, "org.a11y.Bus", "/org/a11y/bus", "org.a11y.Bus.GetAddress")
	if err != nil {
		return "", err
	}
	return parseStringReply(out), nil
}

// ObjectPath returns the conventional object path for appID, e.g.
// org.example.My-App becomes /org/example/My_App.
func ObjectPath(appID string) string {
	return "/" + strings.NewReplacer(".", "/", "-", "_").Replace(appID)
}

// parseStringReply extracts s from a gdbus reply of the form ('s',).
func parseStringReply(out string) string {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "(")
	out = strings.TrimSuffix(out, ")")
	out = strings.TrimSuffix(out, ",")
	return strings.Trim(out, "'")
}
