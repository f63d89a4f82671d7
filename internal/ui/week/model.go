// Package week renders the seven-day planner of scheduled emails along
// with the approaching-deadlines list.
package week

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/calendar"
	"github.com/nhle/inbox-agent/internal/keys"
	"github.com/nhle/inbox-agent/internal/theme"
	"github.com/nhle/inbox-agent/internal/ui"
)

const (
	columnGap     = 1
	subjectRunes  = 20
	snippetRunes  = 40
	deadlineLimit = 5
)

// Loader provides planner data.
type Loader interface {
	Week(ctx context.Context) (calendar.Week, error)
	Deadlines(ctx context.Context, limit int) ([]calendar.Entry, error)
}

// LoadedMsg carries the planner data.
type LoadedMsg struct {
	Week      calendar.Week
	Deadlines []calendar.Entry
	Err       error
}

// BackMsg signals the parent to leave the planner.
type BackMsg struct{}

// Model is the planner view.
type Model struct {
	loader    Loader
	keys      *keys.KeyMap
	viewport  viewport.Model
	week      calendar.Week
	deadlines []calendar.Entry
	loaded    bool
	err       error
	now       func() time.Time
	width     int
	height    int
}

// New creates a planner view.
func New(loader Loader, k *keys.KeyMap, width, height int) Model {
	return Model{
		loader:   loader,
		keys:     k,
		viewport: viewport.New(width, height),
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Init loads the planner.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that fetches the week and the deadlines.
func (m Model) Load() tea.Cmd {
	l := m.loader
	return func() tea.Msg {
		ctx := context.Background()
		w, err := l.Week(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		d, err := l.Deadlines(ctx, deadlineLimit)
		return LoadedMsg{Week: w, Deadlines: d, Err: err}
	}
}

// Update handles messages for the planner view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loaded = true
		m.err = msg.Err
		m.week = msg.Week
		m.deadlines = msg.Deadlines
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the planner.
func (m Model) View() string {
	if !m.loaded {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading calendar...")
	}
	return m.viewport.View()
}

// SetSize updates the planner dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.loaded {
		m.viewport.SetContent(m.render())
	}
}

func (m Model) render() string {
	if m.err != nil {
		return theme.ErrorStyle.Render(fmt.Sprintf("Could not load calendar: %v", m.err))
	}

	sections := []string{
		m.renderDeadlines(),
		"",
		m.renderDays(),
	}
	if len(m.week.Later) > 0 {
		sections = append(sections, "", m.renderBucket("Later", m.week.Later))
	}
	if len(m.week.Unscheduled) > 0 {
		sections = append(sections, "", m.renderBucket("No date found", m.week.Unscheduled))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderDeadlines() string {
	if len(m.deadlines) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.SectionStyle.Render("No Pending Actions"),
			theme.HelpStyle.Render("Schedule emails to build a to-do list."))
	}

	lines := []string{theme.SectionStyle.Render("Approaching Deadlines")}
	for i, e := range m.deadlines {
		snippet := calendar.Snippet(e.AnchorText, snippetRunes)
		if snippet == "" {
			snippet = "Processing"
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s...",
			i+1, senderStyle(e).Render(e.Sender), snippet))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderDays() string {
	widths := ui.NewLayout(m.width, m.height).Columns(calendar.DaysShown, columnGap)
	today := m.now()

	cols := make([]string, 0, 2*len(widths))
	for i, d := range m.week.Days {
		header := d.Date.Format("Mon 02")
		if calendar.SameDay(d.Date, today) {
			header = theme.TodayStyle.Render(header)
		} else {
			header = theme.SectionStyle.Render(header)
		}

		lines := []string{header, strings.Repeat("─", widths[i])}
		if len(d.Entries) == 0 {
			lines = append(lines, theme.HelpStyle.Render("No tasks"))
		}
		for _, e := range d.Entries {
			lines = append(lines, renderEntry(e)...)
			lines = append(lines, "")
		}

		col := lipgloss.NewStyle().Width(widths[i]).Render(
			lipgloss.JoinVertical(lipgloss.Left, lines...))
		if i > 0 {
			cols = append(cols, strings.Repeat(" ", columnGap))
		}
		cols = append(cols, col)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderBucket(title string, entries []calendar.Entry) string {
	lines := []string{theme.SectionStyle.Render(fmt.Sprintf("%s (%d)", title, len(entries)))}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			senderStyle(e).Render(e.Sender),
			truncate(e.Subject, subjectRunes),
			theme.HelpStyle.Render(calendar.Snippet(e.AnchorText, snippetRunes))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderEntry(e calendar.Entry) []string {
	lines := []string{
		senderStyle(e).Render(e.Sender),
		theme.HelpStyle.Render(truncate(e.Subject, subjectRunes) + "..."),
	}
	if s := calendar.Snippet(e.AnchorText, snippetRunes); s != "" {
		lines = append(lines, s+"...")
	} else {
		lines = append(lines, theme.HelpStyle.Render("No details generated."))
	}
	return lines
}

func senderStyle(e calendar.Entry) lipgloss.Style {
	if e.Category == calendar.UrgentCategory {
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
