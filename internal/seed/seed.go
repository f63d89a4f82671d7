// Package seed fills the store with a mock inbox for demos and tests.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/prompt"
	"github.com/nhle/inbox-agent/internal/store"
)

//go:embed mock_inbox.yaml
var mockInbox []byte

// TimeLayout is the received_at format used in fixture files.
const TimeLayout = "2006-01-02 15:04"

type fixture struct {
	Emails []fixtureEmail `yaml:"emails"`
}

type fixtureEmail struct {
	Sender     string `yaml:"sender"`
	Subject    string `yaml:"subject"`
	Body       string `yaml:"body"`
	ReceivedAt string `yaml:"received_at"`
}

// MockEmails returns the built-in mock inbox with times in loc.
func MockEmails(loc *time.Location) ([]model.Email, error) {
	return Load(bytes.NewReader(mockInbox), loc)
}

// Load decodes a YAML fixture. Unknown fields are rejected.
func Load(r io.Reader, loc *time.Location) ([]model.Email, error) {
	if loc == nil {
		loc = time.Local
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}

	emails := make([]model.Email, 0, len(f.Emails))
	for i, fe := range f.Emails {
		if strings.TrimSpace(fe.Sender) == "" {
			return nil, fmt.Errorf("fixture email %d: sender is required", i)
		}
		at, err := time.ParseInLocation(TimeLayout, fe.ReceivedAt, loc)
		if err != nil {
			return nil, fmt.Errorf("fixture email %d: parsing received_at: %w", i, err)
		}
		emails = append(emails, model.Email{
			Sender:     fe.Sender,
			Subject:    fe.Subject,
			Body:       fe.Body,
			ReceivedAt: at,
		})
	}

	return emails, nil
}

// Reset clears every email, inserts emails and restores the default prompts.
func Reset(ctx context.Context, st store.Store, prompts *prompt.Manager, emails []model.Email) error {
	if err := st.ClearEmails(ctx); err != nil {
		return err
	}
	if err := st.InsertEmails(ctx, emails); err != nil {
		return err
	}
	if err := prompts.Restore(ctx); err != nil {
		return fmt.Errorf("restoring default prompts: %w", err)
	}
	return nil
}
