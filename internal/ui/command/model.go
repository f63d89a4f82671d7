package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/theme"
)

// Command names understood by the application.
const (
	Inbox   = "inbox"
	AutoTag = "autotag"
	Seed    = "seed"
	Prompts = "prompts"
	Chat    = "chat"
	Week    = "week"
	Clear   = "clear"
	Connect = "connect"
	Help    = "help"
	Quit    = "quit"
)

// Spec describes a command for suggestions and help.
type Spec struct {
	Name    string
	Summary string
}

// Specs lists every command in display order.
var Specs = []Spec{
	{Inbox, "show the inbox"},
	{AutoTag, "categorize every uncategorized email"},
	{Seed, "replace the inbox with the mock data set"},
	{Prompts, "edit the prompt brain"},
	{Chat, "ask the inbox agent"},
	{Week, "open the 7-day planner"},
	{Clear, "clear the chat transcript"},
	{Connect, "set the model provider and API key"},
	{Help, "show keyboard shortcuts"},
	{Quit, "exit"},
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Args []string
}

// Known reports whether the command name is recognised.
func (c CommandMsg) Known() bool {
	for _, s := range Specs {
		if s.Name == c.Name {
			return true
		}
	}
	return false
}

// Parse splits a command line into a CommandMsg. Names are
// case-insensitive and a leading ':' is ignored.
func Parse(line string) (CommandMsg, bool) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if len(fields) == 0 {
		return CommandMsg{}, false
	}
	return CommandMsg{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	names := make([]string, len(Specs))
	for i, s := range Specs {
		names[i] = s.Name
	}
	ti.SetSuggestions(names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			line := m.input.Value()
			m.input.Reset()
			if c, ok := Parse(line); ok {
				return m, func() tea.Msg {
					return c
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()
	hint := theme.HelpStyle.Render("tab completes · esc closes")

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, hint)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
