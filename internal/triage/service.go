// Package triage coordinates insight generation with persistence: it loads
// emails and prompts from the store, calls the extractor and assistant, and
// writes results back.
package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/inbox-agent/internal/ai"
	"github.com/nhle/inbox-agent/internal/calendar"
	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/prompt"
	"github.com/nhle/inbox-agent/internal/store"
)

var (
	// ErrNoInsight is returned when the model produced nothing for an
	// optional insight. Nothing is persisted in that case.
	ErrNoInsight = errors.New("no insight generated")

	// ErrNoDraft is returned when refining an email that has no draft.
	ErrNoDraft = errors.New("email has no draft reply")

	// ErrEmptyFeedback is returned when refining with blank feedback.
	ErrEmptyFeedback = errors.New("refinement feedback is empty")
)

// DefaultDeadlineLimit is the number of approaching deadlines listed.
const DefaultDeadlineLimit = 5

const pingPrompt = "Reply with only the word 'Pong'.\n\nPing"

// TagResult summarises an AutoTag run.
type TagResult struct {
	Total    int
	Tagged   int
	Fallback int
}

// ProgressFunc is called after each email is handled during AutoTag.
type ProgressFunc func(done, total int)

// Service runs triage operations against a store.
type Service struct {
	store       store.Store
	inv         insight.Invoker
	extractor   *insight.Extractor
	assistant   *ai.Assistant
	prompts     *prompt.Manager
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger passed down to every component.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConcurrency bounds the number of emails categorized at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the source of "today" for the calendar.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service that calls the model through inv.
func New(st store.Store, inv insight.Invoker, opts ...Option) *Service {
	s := &Service{
		store:       st,
		inv:         inv,
		logger:      zap.NewNop(),
		concurrency: 4,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	s.extractor = insight.New(inv, s.logger.Named("insight"))
	s.assistant = ai.NewAssistant(inv, s.logger.Named("assistant"))
	s.prompts = prompt.NewManager(st, s.logger.Named("prompt"))
	return s
}

// Prompts exposes the prompt manager.
func (s *Service) Prompts() *prompt.Manager {
	return s.prompts
}

// Categories returns the category set named by the saved categorization
// prompt.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	set, err := s.prompts.Load(ctx)
	if err != nil {
		return nil, err
	}
	return set.CategoryTemplate().Categories, nil
}

// AutoTag categorizes every email without a category. Model failures are
// stored as the Uncategorised label; store failures abort the run.
func (s *Service) AutoTag(ctx context.Context, progress ProgressFunc) (TagResult, error) {
	set, err := s.prompts.Load(ctx)
	if err != nil {
		return TagResult{}, err
	}
	tpl := set.CategoryTemplate()

	emails, err := s.store.GetUncategorised(ctx)
	if err != nil {
		return TagResult{}, err
	}

	total := len(emails)
	var done, fallback atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, e := range emails {
		g.Go(func() error {
			label := s.extractor.Categorize(gctx, fields(e), set.Categorize)
			if label == insight.Uncategorised {
				fallback.Add(1)
			} else {
				label = tpl.Normalize(label)
			}

			if err := s.store.UpdateInsights(gctx, e.ID, store.InsightUpdate{Category: &label}); err != nil {
				return fmt.Errorf("tagging email %s: %w", e.ID, err)
			}

			n := done.Add(1)
			if progress != nil {
				progress(int(n), total)
			}
			return nil
		})
	}

	err = g.Wait()
	res := TagResult{
		Total:    total,
		Tagged:   int(done.Load() - fallback.Load()),
		Fallback: int(fallback.Load()),
	}
	s.logger.Info("auto-tag finished",
		zap.Int("total", res.Total),
		zap.Int("tagged", res.Tagged),
		zap.Int("fallback", res.Fallback),
		zap.Error(err),
	)
	return res, err
}

// Process generates category, action items and draft for one email in a
// single model call. Results are persisted only when generation succeeded;
// a failed result is returned as-is for display.
func (s *Service) Process(ctx context.Context, id string) (insight.Combined, error) {
	e, set, err := s.load(ctx, id)
	if err != nil {
		return insight.Combined{}, err
	}

	c := s.extractor.GenerateCombined(ctx, fields(*e), set.Templates())
	if c.Failed() {
		s.logger.Warn("combined insight failed", zap.String("email", id), zap.String("category", c.Category))
		return c, nil
	}

	c.Category = set.CategoryTemplate().Normalize(c.Category)
	err = s.store.UpdateInsights(ctx, id, store.InsightUpdate{
		Category:    &c.Category,
		ActionItems: &c.ActionItems,
		DraftReply:  &c.DraftReply,
	})
	if err != nil {
		return c, err
	}
	return c, nil
}

// Categorize re-runs categorization for one email and stores the label.
func (s *Service) Categorize(ctx context.Context, id string) (string, error) {
	e, set, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	label := s.extractor.Categorize(ctx, fields(*e), set.Categorize)
	if label != insight.Uncategorised {
		label = set.CategoryTemplate().Normalize(label)
	}
	if err := s.store.UpdateInsights(ctx, id, store.InsightUpdate{Category: &label}); err != nil {
		return "", err
	}
	return label, nil
}

// ExtractActions generates and stores the action items for one email.
func (s *Service) ExtractActions(ctx context.Context, id string) (string, error) {
	e, set, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	actions, ok := s.extractor.ExtractActions(ctx, fields(*e), set.Extract)
	if !ok {
		return "", ErrNoInsight
	}
	if err := s.store.UpdateInsights(ctx, id, store.InsightUpdate{ActionItems: &actions}); err != nil {
		return "", err
	}
	return actions, nil
}

// DraftReply generates and stores a reply draft for one email.
func (s *Service) DraftReply(ctx context.Context, id string) (string, error) {
	e, set, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	draft, ok := s.extractor.DraftReply(ctx, fields(*e), set.Reply)
	if !ok {
		return "", ErrNoInsight
	}
	if err := s.store.UpdateInsights(ctx, id, store.InsightUpdate{DraftReply: &draft}); err != nil {
		return "", err
	}
	return draft, nil
}

// RefineReply rewrites the stored draft according to feedback. The old
// draft is kept when the model produces nothing.
func (s *Service) RefineReply(ctx context.Context, id, feedback string) (string, error) {
	if strings.TrimSpace(feedback) == "" {
		return "", ErrEmptyFeedback
	}

	e, err := s.store.GetEmailByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !e.HasDraft() {
		return "", ErrNoDraft
	}

	draft, ok := s.extractor.RefineReply(ctx, e.DraftReply, feedback)
	if !ok {
		return "", ErrNoInsight
	}
	if err := s.store.UpdateInsights(ctx, id, store.InsightUpdate{DraftReply: &draft}); err != nil {
		return "", err
	}
	return draft, nil
}

// SaveDraft stores a manually edited draft.
func (s *Service) SaveDraft(ctx context.Context, id, draft string) error {
	return s.store.UpdateInsights(ctx, id, store.InsightUpdate{DraftReply: &draft})
}

// Schedule extracts the email's actions as a hidden calendar summary and
// marks it scheduled. The email is scheduled even when extraction fails; the
// planner then anchors on its visible action items.
func (s *Service) Schedule(ctx context.Context, id string) error {
	e, set, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	summary, ok := s.extractor.ExtractActions(ctx, fields(*e), set.Extract)
	if !ok {
		s.logger.Warn("scheduling without calendar summary", zap.String("email", id))
		summary = ""
	}
	return s.store.ScheduleEmail(ctx, id, summary)
}

// Reset clears the generated action items and draft of one email.
func (s *Service) Reset(ctx context.Context, id string) error {
	return s.store.ResetInsights(ctx, id)
}

// Emails lists emails matching f.
func (s *Service) Emails(ctx context.Context, f store.EmailFilter) ([]model.Email, error) {
	return s.store.GetEmails(ctx, f)
}

// Email loads an email without changing its read state.
func (s *Service) Email(ctx context.Context, id string) (*model.Email, error) {
	return s.store.GetEmailByID(ctx, id)
}

// Open loads an email and marks it read.
func (s *Service) Open(ctx context.Context, id string) (*model.Email, error) {
	if err := s.store.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	e, err := s.store.GetEmailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Ask answers a question about the whole inbox.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	entries, err := s.store.GetDigestEntries(ctx)
	if err != nil {
		return "", err
	}
	return s.assistant.Ask(ctx, question, ai.BuildDigest(entries)), nil
}

// Week lays out the scheduled emails over the seven days starting today.
func (s *Service) Week(ctx context.Context) (calendar.Week, error) {
	entries, err := s.scheduledEntries(ctx)
	if err != nil {
		return calendar.Week{}, err
	}
	return calendar.BuildWeek(entries, s.now()), nil
}

// Deadlines lists scheduled emails, urgent first then newest, capped at
// limit (DefaultDeadlineLimit when limit <= 0).
func (s *Service) Deadlines(ctx context.Context, limit int) ([]calendar.Entry, error) {
	if limit <= 0 {
		limit = DefaultDeadlineLimit
	}
	entries, err := s.scheduledEntries(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.Deadlines(entries, limit), nil
}

// Ping sends a trivial prompt to check connectivity.
func (s *Service) Ping(ctx context.Context) (string, error) {
	return Ping(ctx, s.inv)
}

// Ping sends a trivial prompt through inv to check the connection.
func Ping(ctx context.Context, inv insight.Invoker) (string, error) {
	return inv.Invoke(ctx, pingPrompt)
}

func (s *Service) load(ctx context.Context, id string) (*model.Email, prompt.Set, error) {
	e, err := s.store.GetEmailByID(ctx, id)
	if err != nil {
		return nil, prompt.Set{}, err
	}
	set, err := s.prompts.Load(ctx)
	if err != nil {
		return nil, prompt.Set{}, err
	}
	return e, set, nil
}

func (s *Service) scheduledEntries(ctx context.Context) ([]calendar.Entry, error) {
	emails, err := s.store.GetScheduled(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]calendar.Entry, 0, len(emails))
	for _, e := range emails {
		entries = append(entries, calendar.Entry{
			EmailID:    e.ID,
			Sender:     e.Sender,
			Subject:    e.Subject,
			Category:   e.Category,
			AnchorText: calendar.AnchorText(e.CalendarSummary, e.ActionItems),
			ReceivedAt: e.ReceivedAt,
		})
	}
	return entries, nil
}

func fields(e model.Email) insight.EmailFields {
	return insight.EmailFields{Sender: e.Sender, Subject: e.Subject, Body: e.Body}
}
