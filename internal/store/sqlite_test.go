package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nhle/inbox-agent/internal/store"
	"github.com/nhle/inbox-agent/tests/testutil"
)

func TestPromptRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.GetPrompt(ctx, store.PromptCategorize); err != nil || ok {
		t.Fatalf("GetPrompt on empty store = ok %v err %v", ok, err)
	}

	for _, v := range []string{"first", "second"} {
		if err := s.SavePrompt(ctx, store.PromptCategorize, v); err != nil {
			t.Fatal(err)
		}
	}

	got, ok, err := s.GetPrompt(ctx, store.PromptCategorize)
	if err != nil || !ok {
		t.Fatalf("GetPrompt = ok %v err %v", ok, err)
	}
	if got != "second" {
		t.Errorf("GetPrompt = %q, want second", got)
	}
}

func TestReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SavePrompt(ctx, store.PromptExtract, "keep me"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s.Close()

	got, ok, err := s.GetPrompt(ctx, store.PromptExtract)
	if err != nil || !ok || got != "keep me" {
		t.Errorf("GetPrompt = %q ok %v err %v", got, ok, err)
	}
}

func TestSchemaVersionIsLatest(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("SchemaVersion = %d, want 2", got)
	}
}
