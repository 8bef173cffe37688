package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for flatplay
const (
	ExitSuccess                = 0
	ExitGeneralError           = 1
	ExitManifestNotFound       = 2
	ExitManifestAmbiguous      = 3
	ExitBuildFailed            = 4
	ExitDependencyUpdateFailed = 5
	ExitNotBuilt               = 6
	ExitSessionAlreadyRunning  = 7
	ExitSessionNotFound        = 8
	ExitToolUnavailable        = 9
	ExitExportFailed           = 10
	ExitConfigError            = 11
	ExitCancelled              = 130
)

// FlatplayError is the base error type for flatplay
type FlatplayError struct {
	Code    int
	Message string
	Cause   error

	// ExitStatus is the exit status of the external tool that failed, if any.
	ExitStatus int
	// Tail holds the last lines of output of the failed tool.
	Tail []string
	// Tool names the external command involved, if any.
	Tool string
}

func (e *FlatplayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *FlatplayError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *FlatplayError) ExitCode() int {
	return e.Code
}

// OutputTail returns the captured output tail joined by newlines.
func (e *FlatplayError) OutputTail() string {
	return strings.Join(e.Tail, "\n")
}

// New creates a new FlatplayError
func New(code int, message string) *FlatplayError {
	return &FlatplayError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a FlatplayError
func Wrap(code int, message string, cause error) *FlatplayError {
	return &FlatplayError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ManifestNotFound returns an error when no manifest can be found or the
// requested one is not a known candidate.
func ManifestNotFound(detail string) *FlatplayError {
	if detail == "" {
		return New(ExitManifestNotFound, "no manifest found")
	}
	return New(ExitManifestNotFound, fmt.Sprintf("manifest not found: %s", detail))
}

// ManifestAmbiguous returns an error listing the candidates when more than one
// manifest was found and none is selected.
func ManifestAmbiguous(candidates []string) *FlatplayError {
	msg := fmt.Sprintf("found %d manifests, run `flatplay select-manifest <path>` to choose one", len(candidates))
	if len(candidates) > 0 {
		msg += ":\n  " + strings.Join(candidates, "\n  ")
	}
	return New(ExitManifestAmbiguous, msg)
}

// NotBuilt returns an error when the application has no usable repository.
func NotBuilt(appID string) *FlatplayError {
	return New(ExitNotBuilt, fmt.Sprintf("application %s is not built, run `flatplay build` first", appID))
}

// BuildFailed returns an error for a non-zero exit of a build step
func BuildFailed(step string, exitStatus int, tail []string) *FlatplayError {
	return &FlatplayError{
		Code:       ExitBuildFailed,
		Message:    fmt.Sprintf("build failed during %s (exit status %d)", step, exitStatus),
		ExitStatus: exitStatus,
		Tail:       tail,
	}
}

// DependencyUpdateFailed returns an error for a failed source update
func DependencyUpdateFailed(exitStatus int, tail []string) *FlatplayError {
	return &FlatplayError{
		Code:       ExitDependencyUpdateFailed,
		Message:    fmt.Sprintf("dependency update failed (exit status %d)", exitStatus),
		ExitStatus: exitStatus,
		Tail:       tail,
	}
}

// ExportFailed returns an error for a failed export step
func ExportFailed(step string, exitStatus int, tail []string) *FlatplayError {
	return &FlatplayError{
		Code:       ExitExportFailed,
		Message:    fmt.Sprintf("export failed during %s (exit status %d)", step, exitStatus),
		ExitStatus: exitStatus,
		Tail:       tail,
	}
}

// SessionAlreadyRunning returns an error when a live session is registered
func SessionAlreadyRunning(appID string, pid int) *FlatplayError {
	return New(ExitSessionAlreadyRunning,
		fmt.Sprintf("%s is already running (pid %d), run `flatplay stop` first", appID, pid))
}

// SessionNotFound returns an error when no live session is registered
func SessionNotFound(appID string) *FlatplayError {
	return New(ExitSessionNotFound, fmt.Sprintf("no running session for %s", appID))
}

// ToolUnavailable returns an error for a missing external command
func ToolUnavailable(tool string, cause error) *FlatplayError {
	return &FlatplayError{
		Code:    ExitToolUnavailable,
		Message: fmt.Sprintf("required tool not found: %s", tool),
		Cause:   cause,
		Tool:    tool,
	}
}

// Cancelled returns an error for a user-initiated interruption
func Cancelled(op string) *FlatplayError {
	return New(ExitCancelled, fmt.Sprintf("%s cancelled", op))
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *FlatplayError {
	return Wrap(ExitConfigError, message, cause)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var flatplayErr *FlatplayError
	if errors.As(err, &flatplayErr) {
		return flatplayErr.ExitCode()
	}
	return ExitGeneralError
}

// HasCode reports whether err carries a FlatplayError with the given code.
func HasCode(err error, code int) bool {
	var flatplayErr *FlatplayError
	if errors.As(err, &flatplayErr) {
		return flatplayErr.Code == code
	}
	return false
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
