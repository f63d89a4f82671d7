package testutil

import (
	"context"
	"testing"

	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedEmails inserts emails into s, failing the test on error.
func SeedEmails(t *testing.T, s *store.SQLiteStore, emails ...model.Email) {
	t.Helper()

	if err := s.InsertEmails(context.Background(), emails); err != nil {
		t.Fatalf("seeding emails: %v", err)
	}
}

// GetEmail loads one email, failing the test when it is missing.
func GetEmail(t *testing.T, s store.Store, id string) *model.Email {
	t.Helper()

	e, err := s.GetEmailByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetEmailByID(%s): %v", id, err)
	}
	return e
}
