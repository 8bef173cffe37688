package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionQuit
)

// Entry is a manifest offered by the picker.
type Entry struct {
	// Path is the absolute manifest path.
	Path string
	// RelPath is the path shown to the user.
	RelPath string
	AppID   string
	// Current marks the manifest recorded as the project's selection.
	Current bool
}

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	Entry  *Entry
}

// manifestItem implements list.Item for manifest display
type manifestItem struct {
	entry *Entry
}

func (i manifestItem) Title() string {
	if i.entry.Current {
		return "* " + i.entry.RelPath
	}
	return "  " + i.entry.RelPath
}

func (i manifestItem) Description() string {
	appID := i.entry.AppID
	if appID == "" {
		appID = "(no application id)"
	}
	return "  " + appID
}

func (i manifestItem) FilterValue() string {
	return i.entry.RelPath + " " + i.entry.AppID
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the manifest picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a manifest picker with the current selection preselected.
func NewPicker(entries []*Entry) Model {
	items := make([]list.Item, len(entries))
	current := 0
	for i, e := range entries {
		items[i] = manifestItem{entry: e}
		if e.Current {
			current = i
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "flatplay - Select Manifest"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Select(current)

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(manifestItem); ok {
				m.result = PickerResult{
					Action: ActionSelect,
					Entry:  item.entry,
				}
				m.quitting = true
				return m, tea.Quit
			}

		case "q", "esc", "ctrl+c":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Select  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive manifest picker
func RunPicker(entries []*Entry) (PickerResult, error) {
	if len(entries) == 0 {
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(entries)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimpleList renders the manifests for non-interactive output.
func SimpleList(entries []*Entry) string {
	var sb strings.Builder

	if len(entries) == 0 {
		sb.WriteString("No manifests found.\n")
		return sb.String()
	}

	for i, e := range entries {
		marker := " "
		if e.Current {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s", marker, i+1, e.RelPath))
		if e.AppID != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", e.AppID))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
