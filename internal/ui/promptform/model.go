package promptform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/prompt"
	"github.com/nhle/inbox-agent/internal/theme"
)

// SavedMsg is dispatched when the user submits edited prompts.
type SavedMsg struct {
	Set prompt.Set
}

// RestoreMsg is dispatched when the user asks for the default prompts.
type RestoreMsg struct{}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

const (
	choiceSave    = "save"
	choiceRestore = "restore"
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	categorize string
	extract    string
	reply      string
	choice     string
}

// Model is the Bubble Tea model for the prompt editor.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new prompt form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{choice: choiceSave},
		width:  width,
		height: height,
	}
}

// Start initializes the form with the current prompt set.
func (m *Model) Start(s prompt.Set) tea.Cmd {
	m.fb.categorize = s.Categorize
	m.fb.extract = s.Extract
	m.fb.reply = s.Reply
	m.fb.choice = choiceSave
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the prompt form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the prompt form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Prompt Brain") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Categorization").
				DescriptionFunc(func() string {
					return categoryPreview(fb.categorize)
				}, &fb.categorize).
				Value(&fb.categorize).
				Lines(6).
				Validate(validateRequired("Categorization prompt")),
			huh.NewText().
				Title("Action Items").
				Value(&fb.extract).
				Lines(6).
				Validate(validateRequired("Action item prompt")),
			huh.NewText().
				Title("Auto-Reply").
				Value(&fb.reply).
				Lines(6).
				Validate(validateRequired("Reply prompt")),
			huh.NewSelect[string]().
				Title("Apply").
				Options(
					huh.NewOption("Save prompts", choiceSave),
					huh.NewOption("Restore defaults", choiceRestore),
				).
				Value(&fb.choice),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	if m.fb.choice == choiceRestore {
		return func() tea.Msg { return RestoreMsg{} }
	}
	s := prompt.Set{
		Categorize: m.fb.categorize,
		Extract:    m.fb.extract,
		Reply:      m.fb.reply,
	}
	return func() tea.Msg { return SavedMsg{Set: s} }
}

// categoryPreview lists the categories the template would yield.
func categoryPreview(text string) string {
	t := prompt.ParseTemplate(text)
	return "Categories: " + strings.Join(t.Categories, ", ")
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
