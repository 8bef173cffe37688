package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	shellquote "github.com/kballard/go-shellquote"
)

// User-facing output functions with emoji prefixes.
// These write to stdout/stderr directly for CLI output,
// separate from the structured debug logging.

var (
	userOut io.Writer = os.Stdout
	userErr io.Writer = os.Stderr
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	commandStyle = lipgloss.NewStyle().Italic(true)
)

// SetUserOutput redirects user-facing output. Nil restores the default.
func SetUserOutput(out, errOut io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	userOut = out
	userErr = errOut
}

// UserInfo prints an info message to stdout.
func UserInfo(format string, args ...interface{}) {
	fmt.Fprintf(userOut, "ℹ "+format+"\n", args...)
}

// UserSuccess prints a success message to stdout.
func UserSuccess(format string, args ...interface{}) {
	fmt.Fprintf(userOut, "✓ "+format+"\n", args...)
}

// UserWarning prints a warning message to stderr.
func UserWarning(format string, args ...interface{}) {
	fmt.Fprintf(userErr, "⚠ "+format+"\n", args...)
}

// UserError prints an error message to stderr.
func UserError(format string, args ...interface{}) {
	fmt.Fprintf(userErr, "✗ "+format+"\n", args...)
}

// UserCommand echoes an external command line before it runs.
func UserCommand(name string, args []string) {
	fmt.Fprintf(userOut, "\n%s %s\n",
		promptStyle.Render(">"),
		commandStyle.Render(shellquote.Join(append([]string{name}, args...)...)))
}
