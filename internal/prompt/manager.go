package prompt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/store"
)

// Repository is the subset of the store the manager needs.
type Repository interface {
	GetPrompt(ctx context.Context, key string) (string, bool, error)
	SavePrompt(ctx context.Context, key, value string) error
}

// Manager reads and writes the prompt set, falling back to the defaults for
// any prompt that has not been saved.
type Manager struct {
	repo   Repository
	logger *zap.Logger
}

func NewManager(repo Repository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{repo: repo, logger: logger}
}

// Load returns the current prompt set.
func (m *Manager) Load(ctx context.Context) (Set, error) {
	def := DefaultSet()
	var s Set

	fields := []struct {
		key string
		dst *string
		def string
	}{
		{store.PromptCategorize, &s.Categorize, def.Categorize},
		{store.PromptExtract, &s.Extract, def.Extract},
		{store.PromptReply, &s.Reply, def.Reply},
	}
	for _, f := range fields {
		v, ok, err := m.repo.GetPrompt(ctx, f.key)
		if err != nil {
			return Set{}, fmt.Errorf("loading %s prompt: %w", f.key, err)
		}
		if !ok {
			v = f.def
		}
		*f.dst = v
	}

	return s, nil
}

// Save stores all three prompts. Blank prompts are rejected.
func (m *Manager) Save(ctx context.Context, s Set) error {
	entries := []struct{ key, value string }{
		{store.PromptCategorize, s.Categorize},
		{store.PromptExtract, s.Extract},
		{store.PromptReply, s.Reply},
	}
	for _, e := range entries {
		if strings.TrimSpace(e.value) == "" {
			return fmt.Errorf("%s prompt must not be empty", e.key)
		}
	}
	for _, e := range entries {
		if err := m.repo.SavePrompt(ctx, e.key, e.value); err != nil {
			return err
		}
	}

	m.logger.Info("prompts saved",
		zap.Strings("categories", s.CategoryTemplate().Categories))
	return nil
}

// Restore saves the default prompt set.
func (m *Manager) Restore(ctx context.Context) error {
	return m.Save(ctx, DefaultSet())
}
