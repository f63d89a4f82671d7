package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/ai"
	"github.com/nhle/inbox-agent/internal/keys"
	"github.com/nhle/inbox-agent/internal/llm"
	"github.com/nhle/inbox-agent/internal/store"
	appsync "github.com/nhle/inbox-agent/internal/sync"
	"github.com/nhle/inbox-agent/internal/theme"
	"github.com/nhle/inbox-agent/internal/triage"
	"github.com/nhle/inbox-agent/internal/ui"
	"github.com/nhle/inbox-agent/internal/ui/chat"
	"github.com/nhle/inbox-agent/internal/ui/command"
	configview "github.com/nhle/inbox-agent/internal/ui/config"
	"github.com/nhle/inbox-agent/internal/ui/detail"
	helpview "github.com/nhle/inbox-agent/internal/ui/help"
	"github.com/nhle/inbox-agent/internal/ui/inbox"
	"github.com/nhle/inbox-agent/internal/ui/promptform"
	"github.com/nhle/inbox-agent/internal/ui/week"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewChat
	ViewWeek
	ViewPrompts
	ViewConfig
	ViewHelp
	ViewCommand
)

const chatHistory = 40

// Options carries the collaborators of the root model.
type Options struct {
	Store    store.Store
	Service  *triage.Service
	Switch   *llm.Switch
	Poller   *appsync.Poller
	Connect  configview.Connector
	Secrets  configview.Secrets
	Provider string
	// AutoTag lets the watcher categorize imported mail once connected.
	AutoTag bool
	Logger  *zap.Logger
}

// Model is the root Bubble Tea model that manages view routing and layout.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	svc          *triage.Service
	inv          *llm.Switch
	poller       *appsync.Poller
	provider     string
	tagImports   bool
	logger       *zap.Logger
	keys         *keys.KeyMap
	spinner      spinner.Model
	inbox        inbox.Model
	detail       detail.Model
	chatView     chat.Model
	weekView     week.Model
	promptForm   promptform.Model
	configView   configview.Model
	helpView     helpview.Model
	commandView  command.Model
	busy         string
	status       string
	statusErr    bool
	ready        bool
}

// New creates the root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	inv := opts.Switch
	if inv == nil {
		inv = llm.NewSwitch(nil)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		currentView: ViewList,
		store:       opts.Store,
		svc:         opts.Service,
		inv:         inv,
		poller:      opts.Poller,
		provider:    opts.Provider,
		tagImports:  opts.AutoTag,
		logger:      logger,
		keys:        k,
		spinner:     sp,
		inbox:       inbox.New(opts.Service, k, nil, 80, 24),
		detail:      detail.New(opts.Service, k, 80, 24),
		chatView:    chat.New(opts.Service, ai.NewTranscript(chatHistory), 80, 24),
		weekView:    week.New(opts.Service, k, 80, 24),
		promptForm:  promptform.New(80, 24),
		configView:  configview.New(opts.Connect, opts.Secrets, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init loads the inbox and its categories and starts the drop-folder
// watcher when one is configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.inbox.Init(), m.loadCategories()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.inbox.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.chatView.SetSize(w, h)
		m.weekView.SetSize(w, h)
		m.promptForm.SetSize(w, h)
		m.configView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		// Each spinner only accepts its own ticks.
		var cmds [4]tea.Cmd
		if m.busy != "" {
			m.spinner, cmds[0] = m.spinner.Update(msg)
		}
		m.detail, cmds[1] = m.detail.Update(msg)
		m.chatView, cmds[2] = m.chatView.Update(msg)
		m.configView, cmds[3] = m.configView.Update(msg)
		return m, tea.Batch(cmds[:]...)

	case categoriesLoadedMsg:
		if msg.err != nil {
			m.setError("loading categories", msg.err)
			return m, nil
		}
		m.inbox.SetCategories(msg.categories)
		return m, nil

	case appsync.SyncResultMsg:
		cmds := []tea.Cmd{m.poller.WaitForNextResult()}
		switch {
		case msg.Error != nil:
			m.setError("watching inbox", msg.Error)
		case msg.Imported > 0:
			m.setStatus(fmt.Sprintf("%d new emails", msg.Imported))
			cmds = append(cmds, m.inbox.LoadEmails())
		}
		return m, tea.Batch(cmds...)

	case inbox.SelectedEmailMsg:
		return m, m.openEmail(msg.EmailID)

	case emailOpenedMsg:
		if msg.err != nil {
			m.setError("opening email", msg.err)
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.status = ""
		m.detail.SetEmail(msg.email)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.inbox.LoadEmails()

	case detail.ActionDoneMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case chat.AnswerMsg:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case chat.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case week.BackMsg:
		m.currentView = ViewList
		return m, nil

	case week.LoadedMsg:
		var cmd tea.Cmd
		m.weekView, cmd = m.weekView.Update(msg)
		return m, cmd

	case autoTagDoneMsg:
		m.busy = ""
		switch {
		case msg.err != nil:
			m.setError("auto-tag", msg.err)
		case msg.result.Total == 0:
			m.setStatus("All emails are already tagged!")
		default:
			m.setStatus(fmt.Sprintf("Tagged %d emails!", msg.result.Tagged))
		}
		return m, m.inbox.LoadEmails()

	case seedDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.setError("seeding inbox", msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Inbox Generated (%d emails)", msg.count))
		return m, tea.Batch(m.inbox.LoadEmails(), m.loadCategories())

	case promptsLoadedMsg:
		if msg.err != nil {
			m.currentView = ViewList
			m.setError("loading prompts", msg.err)
			return m, nil
		}
		cmd := m.promptForm.Start(msg.set)
		return m, cmd

	case promptform.SavedMsg:
		m.currentView = ViewList
		return m, m.savePrompts(msg.Set)

	case promptform.RestoreMsg:
		m.currentView = ViewList
		return m, m.restorePrompts()

	case promptform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case promptsSavedMsg:
		if msg.err != nil {
			m.setError("saving prompts", msg.err)
			return m, nil
		}
		if msg.restored {
			m.setStatus("Default prompts restored")
		} else {
			m.setStatus("Prompts updated")
		}
		return m, m.loadCategories()

	case configview.ValidateResultMsg:
		var cmd tea.Cmd
		m.configView, cmd = m.configView.Update(msg)
		return m, cmd

	case configview.ConnectedMsg:
		m.inv.Set(msg.Invoker)
		m.provider = msg.Provider
		if m.poller != nil && m.tagImports {
			m.poller.SetTagger(m.svc)
		}
		m.currentView = ViewList
		m.setStatus("Connected to " + msg.Provider)
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			cmd := m.quit()
			return m, cmd
		}
		if m.capturesInput() {
			break
		}
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// capturesInput reports whether the active view is reading free text, in
// which case global shortcuts are not intercepted.
func (m Model) capturesInput() bool {
	switch m.currentView {
	case ViewChat, ViewPrompts, ViewConfig:
		return true
	case ViewList:
		return m.inbox.Searching()
	case ViewDetail:
		return m.detail.Busy()
	}
	return false
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		if m.currentView == ViewCommand {
			return nil, false
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case ":":
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return nil, true
		}
		if m.currentView == ViewHelp {
			return nil, false
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case "esc":
		if m.currentView == ViewHelp || m.currentView == ViewCommand {
			m.currentView = m.previousView
			return nil, true
		}
	}

	switch m.currentView {
	case ViewList:
		return m.handleListKey(msg)
	case ViewDetail:
		if m.needsModel(msg) && !m.inv.Connected() {
			m.setError("model", fmt.Errorf("%w: press C to connect", llm.ErrNotConnected))
			return nil, true
		}
	}
	return nil, false
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true
	case key.Matches(msg, m.keys.Chat):
		return m.openChat(), true
	case key.Matches(msg, m.keys.Calendar):
		return m.openWeek(), true
	case key.Matches(msg, m.keys.Prompts):
		return m.openPrompts(), true
	case key.Matches(msg, m.keys.Connect):
		return m.openConfig(), true
	case key.Matches(msg, m.keys.AutoTag):
		return m.startAutoTag(), true
	case key.Matches(msg, m.keys.Refresh):
		if m.poller != nil {
			m.poller.Refresh()
		}
		return tea.Batch(m.inbox.LoadEmails(), m.loadCategories()), true
	}
	return nil, false
}

// needsModel reports whether a detail key calls the model service.
func (m Model) needsModel(msg tea.KeyMsg) bool {
	k := m.keys
	for _, b := range []key.Binding{k.Categorize, k.Process, k.Extract, k.Draft, k.Refine, k.Schedule} {
		if key.Matches(msg, b) {
			return true
		}
	}
	return false
}

func (m *Model) openChat() tea.Cmd {
	if !m.inv.Connected() {
		return m.openConfig()
	}
	m.previousView = m.currentView
	m.currentView = ViewChat
	return m.chatView.Focus()
}

func (m *Model) openWeek() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewWeek
	return m.weekView.Load()
}

func (m *Model) openPrompts() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewPrompts
	return m.loadPrompts()
}

func (m *Model) openConfig() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewConfig
	return m.configView.Start(m.provider)
}

func (m *Model) startAutoTag() tea.Cmd {
	if !m.inv.Connected() {
		return m.openConfig()
	}
	if m.busy != "" {
		return nil
	}
	m.busy = "Tagging emails"
	return tea.Batch(m.spinner.Tick, m.autoTag())
}

func (m *Model) startSeed() tea.Cmd {
	if m.busy != "" {
		return nil
	}
	m.busy = "Generating mock inbox"
	return tea.Batch(m.spinner.Tick, m.seedInbox())
}

func (m *Model) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	return tea.Quit
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case command.Inbox:
		m.currentView = ViewList
		return m.inbox.LoadEmails()
	case command.AutoTag:
		m.currentView = ViewList
		return m.startAutoTag()
	case command.Seed:
		m.currentView = ViewList
		return m.startSeed()
	case command.Prompts:
		return m.openPrompts()
	case command.Chat:
		cmd := m.openChat()
		if len(c.Args) > 0 && m.currentView == ViewChat {
			var ask tea.Cmd
			m.chatView, ask = m.chatView.Ask(strings.Join(c.Args, " "))
			return tea.Batch(cmd, ask)
		}
		return cmd
	case command.Week:
		return m.openWeek()
	case command.Clear:
		m.chatView.Reset()
		m.setStatus("Chat cleared")
		return nil
	case command.Connect:
		return m.openConfig()
	case command.Help:
		m.currentView = ViewHelp
		return nil
	case command.Quit:
		return m.quit()
	default:
		m.setError("command", fmt.Errorf("unknown command %q", c.Name))
		return nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewWeek:
		m.weekView, cmd = m.weekView.Update(msg)
	case ViewPrompts:
		m.promptForm, cmd = m.promptForm.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Inbox Agent"
	if n := m.inbox.UnreadCount(); n > 0 {
		title = fmt.Sprintf("Inbox Agent [%d unread]", n)
	}
	header := m.layout.RenderHeader(title, m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusMessage(), m.hints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.inbox.View()
	case ViewDetail:
		return m.detail.View()
	case ViewChat:
		return m.chatView.View()
	case ViewWeek:
		return m.weekView.View()
	case ViewPrompts:
		return m.promptForm.View()
	case ViewConfig:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerStatus describes running work, the watcher and the connection.
func (m Model) headerStatus() string {
	var parts []string
	if m.busy != "" {
		parts = append(parts, m.spinner.View()+" "+m.busy)
	}
	if m.poller != nil {
		st := m.poller.Status()
		if st.State == appsync.SyncError {
			parts = append(parts, "⚠ watch failed")
		} else {
			parts = append(parts, "watch "+st.State.String())
		}
	}
	if m.inv.Connected() {
		parts = append(parts, m.provider)
	} else {
		parts = append(parts, "offline")
	}
	return strings.Join(parts, " | ")
}

// statusMessage shows the last status on the inbox and email views. Other
// views report their own progress.
func (m Model) statusMessage() string {
	if m.status == "" || (m.currentView != ViewList && m.currentView != ViewDetail) {
		return ""
	}
	if m.statusErr {
		return theme.ErrorStyle.Render(m.status)
	}
	return theme.SuccessStyle.Render(m.status)
}

// hints lists the keys of the current view.
func (m Model) hints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | c categorize | p process | x actions | d draft | f refine | s calendar | R reset | S send"
	case ViewChat:
		return "enter send | esc close"
	case ViewWeek:
		return "r refresh | esc back"
	case ViewPrompts:
		return "tab next field | enter submit | esc cancel"
	case ViewConfig:
		return "enter submit | esc cancel"
	default:
		return "q quit | ? help | / search | tab category | u unread | T auto-tag | A ask | W week | P prompts"
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(op string, err error) {
	m.logger.Warn(op+" failed", zap.Error(err))
	m.status = fmt.Sprintf("%s: %v", op, err)
	m.statusErr = true
}
