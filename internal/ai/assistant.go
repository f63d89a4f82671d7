package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/metrics"
	"github.com/nhle/inbox-agent/internal/model"
)

// FallbackAnswer is returned when the model cannot be reached.
const FallbackAnswer = "I'm having trouble connecting right now."

// Invoker is a single prompt-in, text-out model call.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Assistant answers free-form questions about the inbox. Every question is
// answered from the digest alone; nothing is remembered between calls.
type Assistant struct {
	inv    Invoker
	logger *zap.Logger
}

// NewAssistant creates an Assistant. A nil logger disables logging.
func NewAssistant(inv Invoker, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{inv: inv, logger: logger}
}

// Ask answers question using digest as the only context. It never returns
// an empty string.
func (a *Assistant) Ask(ctx context.Context, question, digest string) string {
	var sb strings.Builder

	sb.WriteString("System: You are a helpful assistant having access to an email inbox summary.\n")
	sb.WriteString("Context: ")
	sb.WriteString(digest)
	sb.WriteString("\nUser Question: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")

	answer, err := a.inv.Invoke(ctx, sb.String())
	if err != nil || answer == "" {
		a.logger.Warn("chat answer unavailable", zap.Error(err))
		metrics.RecordInsight("ask", "fallback")
		return FallbackAnswer
	}

	metrics.RecordInsight("ask", "ok")
	return answer
}

// BuildDigest renders the inbox summary the assistant answers from.
func BuildDigest(entries []model.DigestEntry) string {
	var sb strings.Builder

	sb.WriteString("INBOX SUMMARY:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "- ID %s: From %s, Subject '%s', Category: %s, Actions: %s\n",
			e.ID, e.Sender, e.Subject, orNone(e.Category), orNone(e.ActionItems))
	}

	return sb.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
