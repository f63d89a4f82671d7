package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/credential"
	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/llm"
	"github.com/nhle/inbox-agent/internal/theme"
	"github.com/nhle/inbox-agent/internal/triage"
)

// ConfigMode represents the current state of the connection view.
type ConfigMode int

const (
	ModeForm           ConfigMode = iota // Provider and key entry
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
)

const validateTimeout = 30 * time.Second

// Connector builds a model client for a provider and key.
type Connector func(provider, apiKey string) (insight.Invoker, error)

// Secrets persists API keys.
type Secrets interface {
	Set(key, value string) error
}

// ConfigDoneMsg signals the view should close and return to the main app.
type ConfigDoneMsg struct{}

// ConnectedMsg carries a validated client. The key has been saved.
type ConnectedMsg struct {
	Provider string
	Invoker  insight.Invoker
}

// ValidateResultMsg carries the result of a connection attempt.
type ValidateResultMsg struct {
	Provider string
	Reply    string
	Invoker  insight.Invoker
	Err      error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	provider string
	apiKey   string
}

// Model is the Bubble Tea model for connecting to the model service.
type Model struct {
	mode    ConfigMode
	connect Connector
	secrets Secrets
	form    *huh.Form
	fb      *formBindings
	spinner spinner.Model
	result  ValidateResultMsg
	width   int
	height  int
}

// New creates the connection view. secrets may be nil, in which case
// validated keys are used for this session only.
func New(connect Connector, secrets Secrets, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		connect: connect,
		secrets: secrets,
		fb:      &formBindings{provider: llm.ProviderGemini},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start opens the form for provider.
func (m *Model) Start(provider string) tea.Cmd {
	if provider == "" {
		provider = llm.ProviderGemini
	}
	m.mode = ModeForm
	m.fb.provider = provider
	m.fb.apiKey = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.result = msg
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			if msg.String() == "esc" {
				cmd := m.Start(m.fb.provider)
				return m, cmd
			}
			return m, nil
		case ModeValidateResult:
			return m.handleResultKeys(msg)
		}
	}

	return m.updateForm(msg)
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.result.Err != nil {
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.validateAndSave(m.fb.provider, m.fb.apiKey))
		}
	case "enter", "esc":
		if m.result.Err != nil {
			return m, func() tea.Msg { return ConfigDoneMsg{} }
		}
		res := m.result
		return m, func() tea.Msg {
			return ConnectedMsg{Provider: res.Provider, Invoker: res.Invoker}
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validateAndSave(m.fb.provider, strings.TrimSpace(m.fb.apiKey)))
	case huh.StateAborted:
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	}
	return m, cmd
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Options(
					huh.NewOption("Google Gemini", llm.ProviderGemini),
					huh.NewOption("Anthropic", llm.ProviderAnthropic),
				).
				Value(&m.fb.provider),
			huh.NewInput().
				Title("API Key").
				DescriptionFunc(func() string {
					return "Stored in the system keyring. " + credential.EnvVar(m.fb.provider) + " takes precedence."
				}, &m.fb.provider).
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey).
				Validate(validateRequired("API key")),
		),
	).WithWidth(m.formWidth())
}

// validateAndSave pings the model with the key and saves it only if the
// connection works.
func (m Model) validateAndSave(provider, apiKey string) tea.Cmd {
	connect, secrets := m.connect, m.secrets
	return func() tea.Msg {
		inv, err := connect(provider, apiKey)
		if err != nil {
			return ValidateResultMsg{Provider: provider, Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
		defer cancel()

		reply, err := triage.Ping(ctx, inv)
		if err != nil {
			return ValidateResultMsg{Provider: provider, Err: err}
		}

		if secrets != nil {
			if err := secrets.Set(credential.KeyName(provider), apiKey); err != nil {
				return ValidateResultMsg{
					Provider: provider,
					Err:      fmt.Errorf("connection OK but save failed: %w", err),
				}
			}
		}
		return ValidateResultMsg{Provider: provider, Reply: reply, Invoker: inv}
	}
}

// View renders the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf(
			"%s Testing connection...\n\nPress esc to cancel.",
			m.spinner.View(),
		))
	case ModeValidateResult:
		return style.Render(m.viewResult())
	}

	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
		Render("Connect Model Service")
	return style.Render(title + "\n" + m.form.View())
}

func (m Model) viewResult() string {
	gray := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if m.result.Err != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return errStyle.Render("Connection failed") + "\n\n" +
			m.result.Err.Error() + "\n\n" +
			gray.Render("r retry | enter/esc back")
	}

	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	return okStyle.Render("Connection successful") + "\n\n" +
		fmt.Sprintf("%s replied: %s", m.result.Provider, strings.TrimSpace(m.result.Reply)) + "\n\n" +
		gray.Render("enter/esc back")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
