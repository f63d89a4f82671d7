package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding. Single-letter upper-case keys work from the
// inbox; lower-case email actions work in the detail view.
type KeyMap struct {
	Down    key.Binding
	Up      key.Binding
	Select  key.Binding
	Back    key.Binding
	Quit    key.Binding
	Search  key.Binding
	Command key.Binding
	Help    key.Binding
	Refresh key.Binding

	// Views
	Chat     key.Binding
	Calendar key.Binding
	Prompts  key.Binding
	Connect  key.Binding

	// Inbox
	CycleFilter key.Binding
	AutoTag     key.Binding
	UnreadOnly  key.Binding

	// Email actions
	Categorize key.Binding
	Process    key.Binding
	Extract    key.Binding
	Draft      key.Binding
	Refine     key.Binding
	Schedule   key.Binding
	Reset      key.Binding
	Send       key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open email"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Chat: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "ask the inbox"),
		),
		Calendar: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "weekly planner"),
		),
		Prompts: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "edit prompts"),
		),
		Connect: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "connect model"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle category"),
		),
		AutoTag: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "auto-tag new"),
		),
		UnreadOnly: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unread only"),
		),
		Categorize: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "categorize"),
		),
		Process: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "process all"),
		),
		Extract: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "extract actions"),
		),
		Draft: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "draft reply"),
		),
		Refine: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "refine draft"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "add to calendar"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset generated"),
		),
		Send: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "send (simulated)"),
		),
	}
}

// Section is a titled group of bindings shown together in the help view.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Sections groups the bindings by where they apply.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{"General", []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Command, k.Help, k.Quit}},
		{"Inbox", []key.Binding{k.Search, k.CycleFilter, k.UnreadOnly, k.Refresh, k.AutoTag}},
		{"Views", []key.Binding{k.Chat, k.Calendar, k.Prompts, k.Connect}},
		{"Email", []key.Binding{k.Categorize, k.Process, k.Extract, k.Draft, k.Refine, k.Schedule, k.Reset, k.Send}},
	}
}

// ShortHelp returns the bindings shown in the one-line help.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Quit, k.Help, k.Search}
}

// FullHelp returns one column per section.
func (k *KeyMap) FullHelp() [][]key.Binding {
	sections := k.Sections()
	cols := make([][]key.Binding, len(sections))
	for i, s := range sections {
		cols[i] = s.Bindings
	}
	return cols
}
