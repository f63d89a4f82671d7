package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/ai"
	"github.com/nhle/inbox-agent/internal/theme"
)

// Asker answers a question about the inbox.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// CloseMsg signals the parent to close the chat view.
type CloseMsg struct{}

// AnswerMsg carries the assistant's answer.
type AnswerMsg struct {
	Text string
	Err  error
}

// Model is the chat view: a transcript viewport above a question input.
// Each question is answered independently from the current inbox digest.
type Model struct {
	asker      Asker
	transcript *ai.Transcript
	input      textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	waiting    bool
	width      int
	height     int
}

// New creates a chat model. A nil asker shows configuration help instead.
func New(asker Asker, transcript *ai.Transcript, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ex: Do I have any deadlines today?"
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vp := viewport.New(width-4, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if transcript == nil {
		transcript = ai.NewTranscript(0)
	}

	m := Model{
		asker:      asker,
		transcript: transcript,
		input:      ta,
		viewport:   vp,
		spinner:    sp,
		width:      width,
		height:     height,
	}
	m.refreshViewport()
	return m
}

func viewportHeight(height int) int {
	h := height - 8 // input area + borders
	if h < 4 {
		h = 4
	}
	return h
}

// Init returns the initial command for the chat view.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AnswerMsg:
		m.waiting = false
		text := msg.Text
		if msg.Err != nil {
			text = "Error: " + msg.Err.Error()
		}
		m.transcript.Add(ai.RoleAssistant, text)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return CloseMsg{} }

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m, cmd = m.Ask(text)
		if cmd != nil {
			m.input.Reset()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Ask records question in the transcript and sends it. It does nothing
// while another question is in flight.
func (m Model) Ask(question string) (Model, tea.Cmd) {
	question = strings.TrimSpace(question)
	if m.asker == nil || m.waiting || question == "" {
		return m, nil
	}

	m.transcript.Add(ai.RoleUser, question)
	m.waiting = true
	m.refreshViewport()

	return m, tea.Batch(m.ask(question), m.spinner.Tick)
}

func (m Model) ask(question string) tea.Cmd {
	asker := m.asker
	return func() tea.Msg {
		answer, err := asker.Ask(context.Background(), question)
		return AnswerMsg{Text: answer, Err: err}
	}
}

// Waiting reports whether a question is in flight.
func (m Model) Waiting() bool {
	return m.waiting
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	turns := m.transcript.Turns()
	if len(turns) == 0 {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Ask questions about your emails. Each answer is based on " +
				"the current inbox summary.")
	}

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	assistantStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Width(max(m.width-8, 10))

	var sections []string
	for _, t := range turns {
		label := assistantStyle.Render("Assistant:")
		if t.Role == ai.RoleUser {
			label = userStyle.Render("You:")
		}
		sections = append(sections, label, contentStyle.Render(t.Content), "")
	}

	if m.waiting {
		sections = append(sections, theme.HelpStyle.Render(m.spinner.View()+" Scanning inbox"))
	}

	return strings.Join(sections, "\n")
}

// View renders the chat view.
func (m Model) View() string {
	if m.asker == nil {
		return m.renderNoAPIKey()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-6, 80), 0)))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Chat with Inbox"),
		m.viewport.View(),
		separator,
		m.input.View(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width-4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "Chat requires a model API key.\n\n" +
		"Set GOOGLE_API_KEY (or ANTHROPIC_API_KEY with ai.provider: anthropic),\n" +
		"or store it with:  inboxagent key set\n\n" +
		"Press Esc to go back."

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the chat view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
	m.viewport.Width = width - 4
	m.viewport.Height = viewportHeight(height)
	m.refreshViewport()
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Reset clears the conversation.
func (m *Model) Reset() {
	m.transcript.Reset()
	m.waiting = false
	m.input.Reset()
	m.refreshViewport()
}
