package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/keys"
	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/store"
	"github.com/nhle/inbox-agent/internal/theme"
)

// FolderAll shows every email.
const FolderAll = "Inbox"

// Loader queries emails.
type Loader interface {
	Emails(ctx context.Context, filter store.EmailFilter) ([]model.Email, error)
}

// EmailsLoadedMsg is sent when emails have been loaded from the store.
type EmailsLoadedMsg struct {
	Emails []model.Email
	Err    error
}

// SelectedEmailMsg is sent when the user opens an email.
type SelectedEmailMsg struct {
	EmailID string
}

// Model is the inbox list view.
type Model struct {
	list        list.Model
	loader      Loader
	keys        *keys.KeyMap
	folders     []string
	folderIndex int
	unreadOnly  bool
	query       string
	searchMode  bool
	searchInput textinput.Model
	err         error
	width       int
	height      int
}

// New creates an inbox model. categories are offered as folders after
// FolderAll.
func New(loader Loader, k *keys.KeyMap, categories []string, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{now: time.Now}, width, height-2)
	l.Title = FolderAll
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search sender, subject, body..."
	si.Prompt = "/ "
	si.Width = width - 4

	m := Model{
		list:        l,
		loader:      loader,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
	m.SetCategories(categories)
	return m
}

// Init returns a command that loads the inbox.
func (m Model) Init() tea.Cmd {
	return m.LoadEmails()
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailsLoadedMsg:
		m.err = msg.Err
		items := make([]list.Item, len(msg.Emails))
		for i, e := range msg.Emails {
			items[i] = EmailItem{Email: e}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.LoadEmails()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.LoadEmails()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(EmailItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedEmailMsg{EmailID: item.Email.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleFilter):
		m.folderIndex = (m.folderIndex + 1) % len(m.folders)
		m.updateTitle()
		return m, m.LoadEmails()

	case key.Matches(msg, m.keys.UnreadOnly):
		m.unreadOnly = !m.unreadOnly
		m.updateTitle()
		return m, m.LoadEmails()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetCategories replaces the folder list, keeping the current folder when
// it still exists.
func (m *Model) SetCategories(categories []string) {
	current := FolderAll
	if len(m.folders) > 0 {
		current = m.folders[m.folderIndex]
	}

	m.folders = append([]string{FolderAll}, categories...)
	m.folderIndex = 0
	for i, f := range m.folders {
		if f == current {
			m.folderIndex = i
		}
	}
	m.updateTitle()
}

// Folder returns the selected folder name.
func (m Model) Folder() string {
	return m.folders[m.folderIndex]
}

// Filter returns the store filter for the current folder, search and
// unread settings.
func (m Model) Filter() store.EmailFilter {
	f := store.EmailFilter{UnreadOnly: m.unreadOnly}
	if folder := m.Folder(); folder != FolderAll {
		f.Categories = []string{folder}
	}
	if m.query != "" {
		q := m.query
		f.Query = &q
	}
	return f
}

func (m *Model) updateTitle() {
	title := m.Folder()
	if m.unreadOnly {
		title += " (unread)"
	}
	m.list.Title = title
}

// View renders the inbox view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.err != nil:
		return style.Render(theme.ErrorStyle.Render(fmt.Sprintf("Could not load emails: %v", m.err)))
	case m.Folder() != FolderAll || m.unreadOnly || m.query != "":
		return style.Render("No emails found.\nPress tab to change folder.")
	default:
		return style.Render("The inbox is empty.\n\nPress : then type 'seed' to load the mock inbox.")
	}
}

// LoadEmails returns a tea.Cmd that queries the store with the current filter.
func (m Model) LoadEmails() tea.Cmd {
	filter := m.Filter()
	l := m.loader
	return func() tea.Msg {
		emails, err := l.Emails(context.Background(), filter)
		return EmailsLoadedMsg{Emails: emails, Err: err}
	}
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// UnreadCount returns the number of unread emails currently listed.
func (m Model) UnreadCount() int {
	n := 0
	for _, it := range m.list.Items() {
		if ei, ok := it.(EmailItem); ok && !ei.Email.IsRead {
			n++
		}
	}
	return n
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
