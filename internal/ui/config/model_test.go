package config

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inbox-agent/internal/credential"
	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/llm"
)

type replyInvoker struct {
	reply string
	err   error
}

func (r replyInvoker) Invoke(_ context.Context, _ string) (string, error) {
	return r.reply, r.err
}

func connector(inv insight.Invoker, err error) Connector {
	return func(_, _ string) (insight.Invoker, error) {
		return inv, err
	}
}

func TestValidateAndSaveStoresKey(t *testing.T) {
	secrets := credential.NewStore(keyring.NewArrayKeyring(nil))
	m := New(connector(replyInvoker{reply: "Pong"}, nil), secrets, 80, 24)
	m.mode = ModeValidating

	msg, ok := m.validateAndSave(llm.ProviderGemini, "secret")().(ValidateResultMsg)
	if !ok {
		t.Fatal("expected ValidateResultMsg")
	}
	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}

	got, err := secrets.Get(credential.KeyName(llm.ProviderGemini))
	if err != nil || got != "secret" {
		t.Errorf("stored key = %q, %v", got, err)
	}

	m, _ = m.Update(msg)
	if !strings.Contains(m.View(), "Pong") {
		t.Errorf("view = %q", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	connected, ok := cmd().(ConnectedMsg)
	if !ok || connected.Invoker == nil {
		t.Errorf("expected ConnectedMsg with invoker, got %#v", connected)
	}
}

func TestFailedPingDoesNotSave(t *testing.T) {
	secrets := credential.NewStore(keyring.NewArrayKeyring(nil))
	m := New(connector(replyInvoker{err: errors.New("403 forbidden")}, nil), secrets, 80, 24)
	m.mode = ModeValidating

	msg := m.validateAndSave(llm.ProviderGemini, "bad")().(ValidateResultMsg)
	if msg.Err == nil {
		t.Fatal("expected error")
	}
	if _, err := secrets.Get(credential.KeyName(llm.ProviderGemini)); err == nil {
		t.Error("key saved after failed ping")
	}

	m, _ = m.Update(msg)
	if !strings.Contains(m.View(), "Connection failed") {
		t.Errorf("view = %q", m.View())
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(ConfigDoneMsg); !ok {
		t.Error("expected ConfigDoneMsg")
	}
}

func TestConnectError(t *testing.T) {
	m := New(connector(nil, errors.New("unknown model provider")), nil, 80, 24)
	msg := m.validateAndSave("nope", "k")().(ValidateResultMsg)
	if msg.Err == nil || msg.Invoker != nil {
		t.Errorf("msg = %+v", msg)
	}
}

func TestStaleResultIgnored(t *testing.T) {
	m := New(connector(replyInvoker{reply: "Pong"}, nil), nil, 80, 24)
	m.Start(llm.ProviderAnthropic)
	m, _ = m.Update(ValidateResultMsg{Reply: "late"})
	if m.mode != ModeForm {
		t.Errorf("mode = %v, want form", m.mode)
	}
}
