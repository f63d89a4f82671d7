package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/keys"
	"github.com/nhle/inbox-agent/internal/theme"
	"github.com/nhle/inbox-agent/internal/ui/command"
)

const sectionGap = 4

// Model lists the key bindings by section and the palette commands.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{keys: k, help: h, width: width, height: height}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(theme.ColorWhite).
	MarginBottom(1)

func (m Model) View() string {
	var cols []string
	for _, s := range m.keys.Sections() {
		body := m.help.FullHelpView([][]key.Binding{s.Bindings})
		col := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(s.Title), body)
		cols = append(cols, lipgloss.NewStyle().MarginRight(sectionGap).Render(col))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		"",
		titleStyle.Render("Commands"),
		commandList(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// commandList renders the palette commands as ":name  summary" lines.
func commandList() string {
	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(12)
	lines := make([]string, len(command.Specs))
	for i, c := range command.Specs {
		lines[i] = nameStyle.Render(":"+c.Name) + theme.HelpStyle.Render(c.Summary)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
