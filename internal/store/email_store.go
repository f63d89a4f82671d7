package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/inbox-agent/internal/model"
)

const emailColumns = `
	id, sender, subject, body, received_at, is_read,
	category, action_items, draft_reply, is_scheduled, calendar_summary`

// InsertEmails inserts a batch of emails. Emails without an ID get a UUID;
// a zero ReceivedAt is replaced with the current time.
func (s *SQLiteStore) InsertEmails(ctx context.Context, emails []model.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO emails (`+emailColumns+`
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range emails {
		if strings.TrimSpace(e.Sender) == "" {
			return fmt.Errorf("email sender must not be empty")
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.ReceivedAt.IsZero() {
			e.ReceivedAt = time.Now()
		}

		_, err = stmt.ExecContext(ctx,
			e.ID, e.Sender, e.Subject, e.Body, e.ReceivedAt.UTC(), boolToInt(e.IsRead),
			e.Category, e.ActionItems, e.DraftReply,
			boolToInt(e.IsScheduled), e.CalendarSummary,
		)
		if err != nil {
			return fmt.Errorf("inserting email %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// GetEmails retrieves emails matching the filter, newest first.
func (s *SQLiteStore) GetEmails(ctx context.Context, filter EmailFilter) ([]model.Email, error) {
	var conditions []string
	var args []interface{}

	if filter.Categories != nil {
		if len(filter.Categories) == 0 {
			return nil, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Categories)), ", ")
		conditions = append(conditions, "category IN ("+placeholders+")")
		for _, c := range filter.Categories {
			args = append(args, c)
		}
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(sender LIKE ? OR subject LIKE ? OR body LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "is_read = 0")
	}

	query := "SELECT " + emailColumns + " FROM emails"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY received_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var emails []model.Email
	if err := s.db.SelectContext(ctx, &emails, query, args...); err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	return emails, nil
}

// GetEmailByID retrieves a single email. It returns ErrNotFound when no email
// has the given ID.
func (s *SQLiteStore) GetEmailByID(ctx context.Context, id string) (*model.Email, error) {
	var e model.Email
	err := s.db.GetContext(ctx, &e, "SELECT "+emailColumns+" FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting email %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting email %s: %w", id, err)
	}
	return &e, nil
}

// ClearEmails removes every email. Prompts are kept.
func (s *SQLiteStore) ClearEmails(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM emails"); err != nil {
		return fmt.Errorf("clearing emails: %w", err)
	}
	return nil
}

// UpdateInsights writes the non-nil fields of update.
func (s *SQLiteStore) UpdateInsights(ctx context.Context, id string, update InsightUpdate) error {
	var sets []string
	var args []interface{}

	if update.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *update.Category)
	}
	if update.ActionItems != nil {
		sets = append(sets, "action_items = ?")
		args = append(args, *update.ActionItems)
	}
	if update.DraftReply != nil {
		sets = append(sets, "draft_reply = ?")
		args = append(args, *update.DraftReply)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	return s.execOne(ctx, "updating insights for email "+id,
		"UPDATE emails SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
}

// ResetInsights clears the action items and draft reply of an email. The
// category is kept.
func (s *SQLiteStore) ResetInsights(ctx context.Context, id string) error {
	return s.execOne(ctx, "resetting email "+id,
		"UPDATE emails SET action_items = '', draft_reply = '' WHERE id = ?", id)
}

// MarkRead flags an email as read.
func (s *SQLiteStore) MarkRead(ctx context.Context, id string) error {
	return s.execOne(ctx, "marking email "+id+" read",
		"UPDATE emails SET is_read = 1 WHERE id = ?", id)
}

// ScheduleEmail places an email on the calendar with the given summary.
func (s *SQLiteStore) ScheduleEmail(ctx context.Context, id, calendarSummary string) error {
	return s.execOne(ctx, "scheduling email "+id,
		"UPDATE emails SET is_scheduled = 1, calendar_summary = ? WHERE id = ?",
		calendarSummary, id)
}

// GetUncategorised returns emails with no category, newest first.
func (s *SQLiteStore) GetUncategorised(ctx context.Context) ([]model.Email, error) {
	var emails []model.Email
	err := s.db.SelectContext(ctx, &emails,
		"SELECT "+emailColumns+" FROM emails WHERE TRIM(category) = '' ORDER BY received_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying uncategorised emails: %w", err)
	}
	return emails, nil
}

// GetScheduled returns emails placed on the calendar, newest first.
func (s *SQLiteStore) GetScheduled(ctx context.Context) ([]model.Email, error) {
	var emails []model.Email
	err := s.db.SelectContext(ctx, &emails,
		"SELECT "+emailColumns+" FROM emails WHERE is_scheduled = 1 ORDER BY received_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying scheduled emails: %w", err)
	}
	return emails, nil
}

// GetDigestEntries returns the digest projection of every email in insertion
// order.
func (s *SQLiteStore) GetDigestEntries(ctx context.Context) ([]model.DigestEntry, error) {
	var entries []model.DigestEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT id, sender, subject, category, action_items FROM emails ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying digest entries: %w", err)
	}
	return entries, nil
}

// execOne runs a statement expected to touch exactly one email.
func (s *SQLiteStore) execOne(ctx context.Context, what, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
