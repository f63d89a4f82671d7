package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/metrics"
)

const (
	defaultRetries   = 3
	defaultBaseDelay = 2 * time.Second
)

// Client wraps a Generator with a bounded retry budget. Only rate-limit
// and quota errors are retried, with exponential backoff; every Invoke
// call starts with a fresh budget.
type Client struct {
	gen       Generator
	retries   int
	baseDelay time.Duration
	provider  string
	logger    *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets the total number of attempts per Invoke.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithBaseDelay sets the first backoff delay; attempt i waits base*2^i.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.baseDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProviderLabel sets the provider label used in logs and metrics.
func WithProviderLabel(p string) Option {
	return func(c *Client) { c.provider = p }
}

// WithSleep replaces the backoff sleep. Tests use it to observe delays
// without waiting.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// NewClient creates a retrying client around gen.
func NewClient(gen Generator, opts ...Option) *Client {
	c := &Client{
		gen:       gen,
		retries:   defaultRetries,
		baseDelay: defaultBaseDelay,
		provider:  "model",
		logger:    zap.NewNop(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke sends prompt to the model service and returns the trimmed
// response text. On a quota-shaped error with attempts left it sleeps
// baseDelay*2^attempt and tries again; any other error, or running out
// of attempts, returns an error wrapping ErrModelUnavailable.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	log := c.logger.With(zap.String("provider", c.provider))

	for attempt := 0; attempt < c.retries; attempt++ {
		start := time.Now()
		text, err := c.gen.Generate(ctx, prompt)
		latency := time.Since(start)

		if err == nil {
			metrics.RecordModelCall(c.provider, "success", latency)
			return strings.TrimSpace(text), nil
		}

		if !IsQuotaError(err) {
			metrics.RecordModelCall(c.provider, "error", latency)
			log.Warn("model call failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			return "", fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}

		metrics.RecordModelCall(c.provider, "quota", latency)

		if attempt == c.retries-1 {
			log.Warn("model quota retries exhausted",
				zap.Int("attempts", c.retries),
				zap.Error(err),
			)
			return "", fmt.Errorf("%w after %d attempts: %w", ErrModelUnavailable, c.retries, err)
		}

		delay := c.baseDelay * time.Duration(1<<attempt)
		log.Info("model rate limited, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		)
		metrics.RecordRetry(c.provider)

		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
	}

	return "", ErrModelUnavailable
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
