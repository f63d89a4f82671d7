package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/prompt"
	"github.com/nhle/inbox-agent/internal/store"
	"github.com/nhle/inbox-agent/tests/testutil"
)

func TestMockEmails(t *testing.T) {
	emails, err := MockEmails(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(emails) != 21 {
		t.Fatalf("got %d mock emails, want 21", len(emails))
	}

	first := emails[0]
	if first.Sender != "recruiter@techcorp.com" || !strings.Contains(first.Body, "this Tuesday at 10 AM") {
		t.Errorf("first = %+v", first)
	}
	if want := time.Date(2025, 11, 23, 9, 0, 0, 0, time.UTC); !first.ReceivedAt.Equal(want) {
		t.Errorf("ReceivedAt = %v, want %v", first.ReceivedAt, want)
	}

	for _, e := range emails {
		if e.Subject == "YOU WON $1,000,000!" {
			return
		}
	}
	t.Error("quoted subject not decoded")
}

func TestLoadRejectsBadFixtures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "emails:\n  - sender: a@b.c\n    received_at: \"2025-01-01 10:00\"\n    cc: x\n"},
		{"bad time", "emails:\n  - sender: a@b.c\n    received_at: yesterday\n"},
		{"missing sender", "emails:\n  - subject: hi\n    received_at: \"2025-01-01 10:00\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.yaml), time.UTC); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReset(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	pm := prompt.NewManager(s, nil)

	testutil.SeedEmails(t, s, model.Email{Sender: "old@example.com"})
	if err := s.SavePrompt(ctx, store.PromptReply, "custom"); err != nil {
		t.Fatal(err)
	}

	emails, err := MockEmails(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if err := Reset(ctx, s, pm, emails); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEmails(ctx, store.EmailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 21 {
		t.Errorf("got %d emails after reset, want 21", len(got))
	}
	if got[0].Sender != "boss@startup.io" || got[0].Subject != "Quick Sync" {
		t.Errorf("newest = %+v, want the Quick Sync email", got[0])
	}

	set, _ := pm.Load(ctx)
	if set != prompt.DefaultSet() {
		t.Errorf("prompts not restored: %+v", set)
	}
}
