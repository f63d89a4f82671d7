// Package sync watches a drop folder for new message files, imports them
// and optionally categorizes the new mail in the background.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/source/eml"
	"github.com/nhle/inbox-agent/internal/triage"
)

// SyncState represents the current state of the watcher.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus is a snapshot of the watcher state.
type SyncStatus struct {
	Dir      string
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a poll completes.
type SyncResultMsg struct {
	Imported  int
	Duplicate int
	Failed    int
	Tagged    triage.TagResult
	Error     error
}

// Importer adds message files under a path to the store.
type Importer interface {
	Import(ctx context.Context, path string) (eml.Result, error)
}

// Tagger categorizes uncategorised emails.
type Tagger interface {
	AutoTag(ctx context.Context, progress triage.ProgressFunc) (triage.TagResult, error)
}

// DefaultInterval is used when no positive interval is given.
const DefaultInterval = 120 * time.Second

// pollTimeout bounds a single import plus tagging pass.
const pollTimeout = 5 * time.Minute

// Poller orchestrates background polling of a drop folder.
type Poller struct {
	dir      string
	interval time.Duration
	importer Importer
	tagger   Tagger
	logger   *zap.Logger
	status   SyncStatus
	resultCh chan SyncResultMsg
	trigger  chan struct{}
	stopCh   chan struct{}
	mu       gosync.Mutex
	running  bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithTagger enables categorization of newly imported mail.
func WithTagger(t Tagger) Option {
	return func(p *Poller) { p.tagger = t }
}

// WithLogger sets the poller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Poller for dir.
func New(dir string, interval time.Duration, im Importer, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		dir:      dir,
		interval: interval,
		importer: im,
		logger:   zap.NewNop(),
		status:   SyncStatus{Dir: dir},
		resultCh: make(chan SyncResultMsg, 16),
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetTagger replaces the tagger, e.g. after the model client changes. A nil
// tagger disables categorization.
func (p *Poller) SetTagger(t Tagger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tagger = t
}

// Start returns a tea.Cmd that starts the polling goroutine and waits for
// its first result.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.WaitForNextResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll.
func (p *Poller) Refresh() {
	select {
	case p.trigger <- struct{}{}:
	default:
		// A poll is already pending.
	}
}

// Status returns the current watcher state.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Poll imports new files once and tags any new mail.
func (p *Poller) Poll(ctx context.Context) SyncResultMsg {
	p.setStatus(SyncRunning, nil)

	res, err := p.importer.Import(ctx, p.dir)
	msg := SyncResultMsg{
		Imported:  res.Imported,
		Duplicate: res.Duplicate,
		Failed:    len(res.Failed),
	}
	if err != nil {
		msg.Error = fmt.Errorf("importing %s: %w", p.dir, err)
		p.setStatus(SyncError, msg.Error)
		return msg
	}

	p.mu.Lock()
	tagger := p.tagger
	p.mu.Unlock()

	if tagger != nil && res.Imported > 0 {
		tagged, err := tagger.AutoTag(ctx, nil)
		msg.Tagged = tagged
		if err != nil {
			msg.Error = fmt.Errorf("tagging new mail: %w", err)
			p.setStatus(SyncError, msg.Error)
			return msg
		}
	}

	if res.Imported > 0 {
		p.logger.Info("new mail",
			zap.Int("imported", res.Imported),
			zap.Int("tagged", msg.Tagged.Tagged))
	}
	p.setStatus(SyncIdle, nil)
	return msg
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pollOnce()
		case <-p.trigger:
			p.pollOnce()
		}
	}
}

func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	// Stop closes stopCh; cancel the in-flight poll with it.
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.sendResult(p.Poll(ctx))
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a result without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		p.logger.Warn("dropping poll result; receiver is behind")
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// Call it again after handling each SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}
