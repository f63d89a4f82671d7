package detail

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/keys"
	"github.com/nhle/inbox-agent/internal/model"
)

type fakeService struct {
	email    model.Email
	combined insight.Combined
	feedback string
	calls    []string
}

func (f *fakeService) Email(_ context.Context, _ string) (*model.Email, error) {
	e := f.email
	return &e, nil
}

func (f *fakeService) Categorize(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, ActionCategorize)
	f.email.Category = "Work"
	return "Work", nil
}

func (f *fakeService) Process(_ context.Context, _ string) (insight.Combined, error) {
	f.calls = append(f.calls, ActionProcess)
	return f.combined, nil
}

func (f *fakeService) ExtractActions(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, ActionExtract)
	f.email.ActionItems = "- pay invoice"
	return f.email.ActionItems, nil
}

func (f *fakeService) DraftReply(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, ActionDraft)
	f.email.DraftReply = "Thanks!"
	return f.email.DraftReply, nil
}

func (f *fakeService) RefineReply(_ context.Context, _, feedback string) (string, error) {
	f.calls = append(f.calls, ActionRefine)
	f.feedback = feedback
	return "Thank you.", nil
}

func (f *fakeService) Schedule(_ context.Context, _ string) error {
	f.calls = append(f.calls, ActionSchedule)
	f.email.IsScheduled = true
	return nil
}

func (f *fakeService) Reset(_ context.Context, _ string) error {
	f.calls = append(f.calls, ActionReset)
	return errors.New("locked")
}

func press(m Model, s string) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// finish runs the batched action command and feeds its result back.
func finish(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected a batch")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(ActionDoneMsg); ok {
			m, _ = m.Update(done)
			return m
		}
	}
	t.Fatal("no ActionDoneMsg in batch")
	return m
}

func newModel(svc *fakeService) Model {
	m := New(svc, keys.DefaultKeyMap(), 80, 30)
	e := svc.email
	m.SetEmail(&e)
	return m
}

func TestActionsReloadEmail(t *testing.T) {
	svc := &fakeService{email: model.Email{ID: "e1", Sender: "boss@corp.com", Subject: "Budget"}}
	m := newModel(svc)

	m, cmd := press(m, "c")
	if !m.Busy() {
		t.Error("expected busy while categorizing")
	}
	m = finish(t, m, cmd)
	if m.Busy() {
		t.Error("still busy after completion")
	}
	if m.Email().Category != "Work" {
		t.Errorf("category = %q, want Work", m.Email().Category)
	}

	m, cmd = press(m, "x")
	m = finish(t, m, cmd)
	if !strings.Contains(m.View(), "Actions Extracted") {
		t.Error("missing extract status")
	}
	if !strings.Contains(m.renderContent(), "pay invoice") {
		t.Error("action items not rendered")
	}
}

func TestRefineFlow(t *testing.T) {
	svc := &fakeService{email: model.Email{ID: "e1", Sender: "a@b.c"}}
	m := newModel(svc)

	m, _ = press(m, "f")
	if m.refining {
		t.Fatal("refine opened without a draft")
	}

	m, cmd := press(m, "d")
	m = finish(t, m, cmd)

	m, _ = press(m, "f")
	if !m.refining {
		t.Fatal("refine input not opened")
	}
	m, _ = press(m, "more formal")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = finish(t, m, cmd)

	if svc.feedback != "more formal" {
		t.Errorf("feedback = %q", svc.feedback)
	}
}

func TestSendIsSimulated(t *testing.T) {
	svc := &fakeService{email: model.Email{ID: "e1", Sender: "a@b.c", DraftReply: "Hi"}}
	m := newModel(svc)

	m, cmd := press(m, "S")
	if cmd != nil {
		t.Error("send should not call the service")
	}
	if !strings.Contains(m.View(), "Email sent to a@b.c (Simulated)") {
		t.Errorf("view = %q", m.View())
	}
}

func TestScheduleOnlyOnce(t *testing.T) {
	svc := &fakeService{email: model.Email{ID: "e1"}}
	m := newModel(svc)

	m, cmd := press(m, "s")
	m = finish(t, m, cmd)
	if !m.Email().IsScheduled {
		t.Fatal("email not scheduled")
	}

	_, cmd = press(m, "s")
	if cmd != nil {
		t.Error("scheduled email was scheduled again")
	}
	if len(svc.calls) != 1 {
		t.Errorf("calls = %v", svc.calls)
	}
}

func TestFailuresAreShown(t *testing.T) {
	svc := &fakeService{
		email:    model.Email{ID: "e1"},
		combined: insight.Combined{Category: insight.CategoryAPIError, ActionItems: "API Error", DraftReply: "Could not process."},
	}
	m := newModel(svc)

	m, cmd := press(m, "p")
	m = finish(t, m, cmd)
	if !strings.Contains(m.View(), "Could not process.") {
		t.Errorf("process failure not shown: %q", m.View())
	}

	m, cmd = press(m, "R")
	m = finish(t, m, cmd)
	if !strings.Contains(m.View(), "locked") {
		t.Error("reset error not shown")
	}
}
