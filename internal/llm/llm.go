package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider names accepted by NewBackend.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// ErrModelUnavailable is in the chain of every error returned by
// Client.Invoke once it gives up on a prompt.
var ErrModelUnavailable = errors.New("model unavailable")

// Generator is a single text-completion call against a model service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// APIError is a non-200 response from a model service.
type APIError struct {
	StatusCode int
	Status     string // provider status/type, e.g. RESOURCE_EXHAUSTED
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// IsQuotaError reports whether err signals rate limiting or quota
// exhaustion: an APIError with status 429, or an error whose text
// mentions "429" or "quota".
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota")
}

// Config selects and configures a model service backend.
type Config struct {
	Provider  string
	Endpoint  string
	APIKey    string
	Model     string
	Retries   int
	BaseDelay time.Duration
	Timeout   time.Duration
}

// NewBackend returns the Generator for cfg.Provider.
func NewBackend(cfg Config) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGeminiBackend(cfg.APIKey, cfg.Model, cfg.Endpoint, httpClient), nil
	case ProviderAnthropic:
		return NewAnthropicBackend(cfg.APIKey, cfg.Model, cfg.Endpoint, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// New builds a retrying Client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGemini
	}

	base := []Option{WithProviderLabel(provider)}
	if cfg.Retries > 0 {
		base = append(base, WithRetries(cfg.Retries))
	}
	if cfg.BaseDelay > 0 {
		base = append(base, WithBaseDelay(cfg.BaseDelay))
	}

	return NewClient(backend, append(base, opts...)...), nil
}
