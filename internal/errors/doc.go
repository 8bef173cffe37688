// Package errors provides typed errors with exit codes for flatplay.
//
// # Error Types
//
// FlatplayError is the base error type that wraps an error with an exit code:
//
//	type FlatplayError struct {
//	    Code       int      // Exit code
//	    Message    string   // User-facing message
//	    Cause      error    // Wrapped error
//	    ExitStatus int      // Exit status of the failed external tool
//	    Tail       []string // Last lines of the failed tool's output
//	    Tool       string   // External command involved
//	}
//
// # Exit Codes
//
//	ExitSuccess                = 0
//	ExitGeneralError           = 1
//	ExitManifestNotFound       = 2
//	ExitManifestAmbiguous      = 3
//	ExitBuildFailed            = 4
//	ExitDependencyUpdateFailed = 5
//	ExitNotBuilt               = 6
//	ExitSessionAlreadyRunning  = 7
//	ExitSessionNotFound        = 8
//	ExitToolUnavailable        = 9
//	ExitExportFailed           = 10
//	ExitConfigError            = 11
//	ExitCancelled              = 130
//
// # Error Constructors
//
// Use the provided constructors for consistent error creation:
//
//	errors.ManifestAmbiguous(paths)
//	errors.BuildFailed("build-init", 1, tail)
//	errors.SessionNotFound("org.example.App")
//	errors.ToolUnavailable("flatpak-builder", err)
//
// # Extracting Exit Codes
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
