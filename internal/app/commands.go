package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/prompt"
	"github.com/nhle/inbox-agent/internal/seed"
	"github.com/nhle/inbox-agent/internal/triage"
)

// categoriesLoadedMsg carries the category set of the current prompts.
type categoriesLoadedMsg struct {
	categories []string
	err        error
}

// emailOpenedMsg carries an email opened from the inbox.
type emailOpenedMsg struct {
	email *model.Email
	err   error
}

// autoTagDoneMsg is sent when a bulk categorization run finishes.
type autoTagDoneMsg struct {
	result triage.TagResult
	err    error
}

// seedDoneMsg is sent after the mock inbox has been loaded.
type seedDoneMsg struct {
	count int
	err   error
}

// promptsLoadedMsg carries the prompt set for the editor.
type promptsLoadedMsg struct {
	set prompt.Set
	err error
}

// promptsSavedMsg is sent after prompts are saved or restored.
type promptsSavedMsg struct {
	restored bool
	err      error
}

func (m *Model) loadCategories() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		cats, err := svc.Categories(context.Background())
		return categoriesLoadedMsg{categories: cats, err: err}
	}
}

// openEmail marks the email read and loads it for the detail view.
func (m *Model) openEmail(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		e, err := svc.Open(context.Background(), id)
		return emailOpenedMsg{email: e, err: err}
	}
}

func (m *Model) autoTag() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		res, err := svc.AutoTag(context.Background(), nil)
		return autoTagDoneMsg{result: res, err: err}
	}
}

// seedInbox replaces the inbox with the mock data set and restores the
// default prompts.
func (m *Model) seedInbox() tea.Cmd {
	svc, st := m.svc, m.store
	return func() tea.Msg {
		emails, err := seed.MockEmails(time.Local)
		if err != nil {
			return seedDoneMsg{err: err}
		}
		err = seed.Reset(context.Background(), st, svc.Prompts(), emails)
		return seedDoneMsg{count: len(emails), err: err}
	}
}

func (m *Model) loadPrompts() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		set, err := svc.Prompts().Load(context.Background())
		return promptsLoadedMsg{set: set, err: err}
	}
}

func (m *Model) savePrompts(set prompt.Set) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return promptsSavedMsg{err: svc.Prompts().Save(context.Background(), set)}
	}
}

func (m *Model) restorePrompts() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return promptsSavedMsg{restored: true, err: svc.Prompts().Restore(context.Background())}
	}
}
