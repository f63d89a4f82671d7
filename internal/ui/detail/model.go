package detail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/keys"
	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/theme"
)

// Actions performed from the detail view.
const (
	ActionCategorize = "categorize"
	ActionProcess    = "process"
	ActionExtract    = "extract"
	ActionDraft      = "draft"
	ActionRefine     = "refine"
	ActionSchedule   = "schedule"
	ActionReset      = "reset"
)

// Service is the subset of triage operations the detail view needs.
type Service interface {
	Email(ctx context.Context, id string) (*model.Email, error)
	Categorize(ctx context.Context, id string) (string, error)
	Process(ctx context.Context, id string) (insight.Combined, error)
	ExtractActions(ctx context.Context, id string) (string, error)
	DraftReply(ctx context.Context, id string) (string, error)
	RefineReply(ctx context.Context, id, feedback string) (string, error)
	Schedule(ctx context.Context, id string) error
	Reset(ctx context.Context, id string) error
}

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionDoneMsg carries the outcome of an action. Email is the reloaded
// email when the action succeeded.
type ActionDoneMsg struct {
	Action string
	Email  *model.Email
	Status string
	Err    error
}

// Model is the email detail view component.
type Model struct {
	email    *model.Email
	service  Service
	keys     *keys.KeyMap
	viewport viewport.Model
	spinner  spinner.Model
	feedback textinput.Model
	refining bool
	busy     string
	status   string
	failed   bool
	width    int
	height   int
}

// New creates a new detail view model.
func New(svc Service, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorMagenta)

	fb := textinput.New()
	fb.Placeholder = "e.g. make it more formal"
	fb.Prompt = "Refine: "
	fb.Width = width - 12

	return Model{
		service:  svc,
		keys:     k,
		viewport: vp,
		spinner:  sp,
		feedback: fb,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Busy reports whether an action is in flight or refinement input is open.
func (m Model) Busy() bool {
	return m.busy != "" || m.refining
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ActionDoneMsg:
		m.busy = ""
		m.status = msg.Status
		m.failed = msg.Err != nil
		if msg.Err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.Action, msg.Err)
		}
		if msg.Email != nil && m.email != nil && msg.Email.ID == m.email.ID {
			m.email = msg.Email
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.refining {
			return m.handleRefineKeys(msg)
		}
		if m.busy != "" {
			return m, nil
		}
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleRefineKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.refining = false
		m.feedback.Blur()
		m.feedback.Reset()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.feedback.Value())
		if text == "" {
			return m, nil
		}
		m.refining = false
		m.feedback.Blur()
		m.feedback.Reset()
		return m.start(ActionRefine, text)
	}

	var cmd tea.Cmd
	m.feedback, cmd = m.feedback.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }
	}

	if m.email == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Categorize):
		return m.start(ActionCategorize, "")
	case key.Matches(msg, m.keys.Process):
		return m.start(ActionProcess, "")
	case key.Matches(msg, m.keys.Extract):
		return m.start(ActionExtract, "")
	case key.Matches(msg, m.keys.Draft):
		return m.start(ActionDraft, "")
	case key.Matches(msg, m.keys.Schedule):
		if m.email.IsScheduled {
			m.status, m.failed = "Event is on Calendar", false
			return m, nil
		}
		return m.start(ActionSchedule, "")
	case key.Matches(msg, m.keys.Reset):
		return m.start(ActionReset, "")
	case key.Matches(msg, m.keys.Refine):
		if !m.email.HasDraft() {
			m.status, m.failed = "Draft a reply first", true
			return m, nil
		}
		m.refining = true
		return m, m.feedback.Focus()
	case key.Matches(msg, m.keys.Send):
		if !m.email.HasDraft() {
			m.status, m.failed = "Nothing to send", true
			return m, nil
		}
		m.status, m.failed = fmt.Sprintf("Email sent to %s (Simulated)", m.email.Sender), false
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// start marks action as running and returns the command executing it.
func (m Model) start(action, feedback string) (Model, tea.Cmd) {
	m.busy = action
	m.status = ""
	return m, tea.Batch(m.spinner.Tick, m.run(action, m.email.ID, feedback))
}

func (m Model) run(action, id, feedback string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		ctx := context.Background()
		status, err := execute(ctx, svc, action, id, feedback)
		if err != nil {
			return ActionDoneMsg{Action: action, Err: err}
		}
		e, err := svc.Email(ctx, id)
		return ActionDoneMsg{Action: action, Email: e, Status: status, Err: err}
	}
}

func execute(ctx context.Context, svc Service, action, id, feedback string) (string, error) {
	switch action {
	case ActionCategorize:
		label, err := svc.Categorize(ctx, id)
		if err != nil {
			return "", err
		}
		return "Categorized as " + label, nil

	case ActionProcess:
		c, err := svc.Process(ctx, id)
		if err != nil {
			return "", err
		}
		if c.Failed() {
			return "", errors.New(c.Category + ": " + c.DraftReply)
		}
		return "Processed as " + c.Category, nil

	case ActionExtract:
		if _, err := svc.ExtractActions(ctx, id); err != nil {
			return "", err
		}
		return "Actions Extracted", nil

	case ActionDraft:
		if _, err := svc.DraftReply(ctx, id); err != nil {
			return "", err
		}
		return "Reply Drafted", nil

	case ActionRefine:
		if _, err := svc.RefineReply(ctx, id, feedback); err != nil {
			return "", err
		}
		return "Draft refined", nil

	case ActionSchedule:
		if err := svc.Schedule(ctx, id); err != nil {
			return "", err
		}
		return "Added to Calendar", nil

	case ActionReset:
		if err := svc.Reset(ctx, id); err != nil {
			return "", err
		}
		return "Generated data cleared", nil
	}
	return "", fmt.Errorf("unknown action %q", action)
}

// View renders the detail view.
func (m Model) View() string {
	if m.email == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No email selected")
	}

	var footer string
	switch {
	case m.refining:
		footer = m.feedback.View()
	case m.busy != "":
		footer = m.spinner.View() + " " + theme.HelpStyle.Render(m.busy+"...")
	case m.status != "" && m.failed:
		footer = theme.ErrorStyle.Render(m.status)
	case m.status != "":
		footer = theme.SuccessStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	e := m.email
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(e.Subject))

	badge := theme.CategoryStyle(e.Label()).Render(strings.ToUpper(e.Label()))
	line := badge
	if e.IsScheduled {
		line = lipgloss.JoinHorizontal(lipgloss.Top, badge, "  ", theme.SuccessStyle.Render("on calendar"))
	}
	sections = append(sections, line, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	sections = append(sections, fmt.Sprintf("%s %s | %s",
		metaStyle.Render("From:"), e.Sender, e.ReceivedAt.Format("2006-01-02 15:04")))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	body := e.Body
	if body == "" {
		body = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No body")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(body))

	if e.HasActions() {
		sections = append(sections, "", separator, "",
			theme.SectionStyle.Render("Action Items"),
			theme.ActionsStyle.Render(e.ActionItems))
	}

	if e.HasDraft() {
		sections = append(sections, "", separator, "",
			theme.SectionStyle.Render("Draft Reply"),
			e.DraftReply)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) refresh() {
	if m.email == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.renderContent())
}

// SetEmail updates the email being displayed and re-renders the content.
func (m *Model) SetEmail(e *model.Email) {
	m.email = e
	m.status = ""
	m.failed = false
	m.busy = ""
	m.refining = false
	m.refresh()
	m.viewport.GotoTop()
}

// Email returns the displayed email.
func (m Model) Email() *model.Email {
	return m.email
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.feedback.Width = width - 12
	m.refresh()
}
