// Package tui provides terminal user interface components for flatplay.
//
// The manifest picker lists the manifests found in a project, marks the
// current selection with "*" and preselects it:
//
//	result, err := tui.RunPicker(entries)
//	switch result.Action {
//	case tui.ActionSelect:
//	    // Persist result.Entry.Path
//	case tui.ActionQuit:
//	    // Keep the previous selection
//	}
//
// SimpleList renders the same entries when stdout is not a terminal.
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
