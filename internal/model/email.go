package model

import (
	"strings"
	"time"
)

// LabelNew is shown in place of a category for emails that have not been triaged.
const LabelNew = "New"

// Email is a single message in the local inbox together with the insights
// generated for it.
type Email struct {
	ID         string    `json:"id" db:"id"`
	Sender     string    `json:"sender" db:"sender"`
	Subject    string    `json:"subject" db:"subject"`
	Body       string    `json:"body" db:"body"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
	IsRead     bool      `json:"is_read" db:"is_read"`

	// Category is empty until the email has been triaged.
	Category    string `json:"category" db:"category"`
	ActionItems string `json:"action_items" db:"action_items"`
	DraftReply  string `json:"draft_reply" db:"draft_reply"`

	// IsScheduled marks emails placed on the calendar. CalendarSummary holds
	// the extracted text the date resolver anchors on; it is never shown as-is.
	IsScheduled     bool   `json:"is_scheduled" db:"is_scheduled"`
	CalendarSummary string `json:"calendar_summary" db:"calendar_summary"`
}

func (e Email) HasCategory() bool { return strings.TrimSpace(e.Category) != "" }
func (e Email) HasActions() bool  { return strings.TrimSpace(e.ActionItems) != "" }
func (e Email) HasDraft() bool    { return strings.TrimSpace(e.DraftReply) != "" }

// Label returns the category, or LabelNew when there is none.
func (e Email) Label() string {
	if e.HasCategory() {
		return e.Category
	}
	return LabelNew
}

// DigestEntry is the per-email projection used to build the chat digest.
type DigestEntry struct {
	ID          string `db:"id"`
	Sender      string `db:"sender"`
	Subject     string `db:"subject"`
	Category    string `db:"category"`
	ActionItems string `db:"action_items"`
}
