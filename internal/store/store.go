package store

import (
	"context"
	"errors"

	"github.com/nhle/inbox-agent/internal/model"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

// Prompt keys used by the prompts table.
const (
	PromptCategorize = "categorize"
	PromptExtract    = "extract"
	PromptReply      = "reply"
)

// EmailFilter controls filtering for email queries. Results are always
// ordered newest first.
type EmailFilter struct {
	Categories []string // match any of these categories; nil means all
	Query      *string  // search sender, subject and body
	UnreadOnly bool
	Limit      int
}

// InsightUpdate sets the generated fields of an email. Nil fields are left
// untouched; a pointer to "" clears the field.
type InsightUpdate struct {
	Category    *string
	ActionItems *string
	DraftReply  *string
}

// Store defines the persistence interface for the inbox and prompt settings.
type Store interface {
	// === Emails ===

	InsertEmails(ctx context.Context, emails []model.Email) error
	GetEmails(ctx context.Context, filter EmailFilter) ([]model.Email, error)
	GetEmailByID(ctx context.Context, id string) (*model.Email, error)
	ClearEmails(ctx context.Context) error

	// === Insights ===

	UpdateInsights(ctx context.Context, id string, update InsightUpdate) error
	ResetInsights(ctx context.Context, id string) error
	MarkRead(ctx context.Context, id string) error
	ScheduleEmail(ctx context.Context, id, calendarSummary string) error
	GetUncategorised(ctx context.Context) ([]model.Email, error)
	GetScheduled(ctx context.Context) ([]model.Email, error)
	GetDigestEntries(ctx context.Context) ([]model.DigestEntry, error)

	// === Prompts ===

	GetPrompt(ctx context.Context, key string) (string, bool, error)
	SavePrompt(ctx context.Context, key, value string) error

	Close() error
}

// Ptr returns a pointer to s, for building InsightUpdate values.
func Ptr(s string) *string { return &s }
