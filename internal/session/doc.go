// Package session runs built applications in the Flatpak sandbox and
// tracks them across flatplay invocations.
//
// A run is spawned detached and registered in the project's state store
// with its pid, the pid's start time and, when the application claims its
// name on the session bus, its unique bus name. A registered session only
// counts as running while all recorded identities still match, so a
// crashed sandbox or a reused pid never blocks the next run.
//
// Stopping first asks the application to quit through its org.gtk.Actions
// "quit" action, then falls back to SIGTERM and finally SIGKILL for the
// whole process group.
package session
