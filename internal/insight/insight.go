// Package insight turns prompt templates and email fields into model
// calls and resolves every outcome to displayable text or a documented
// sentinel.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/inbox-agent/internal/metrics"
)

// Failure sentinels and defaults.
const (
	Uncategorised = "Uncategorised"

	CategoryAPIError    = "Error"
	ActionsAPIError     = "API Error"
	DraftAPIError       = "Could not process."
	CategoryParseError  = "Parsing Error"
	DraftParseError     = "Error parsing AI response."
	DefaultCategory     = "Uncategorized"
	DefaultActionItems  = "None"
	DefaultDraftReply   = ""
	categorizeBodyLimit = 1000
)

// Invoker is a single prompt-in, text-out model call.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// EmailFields is the part of an email the prompts embed.
type EmailFields struct {
	Sender  string
	Subject string
	Body    string
}

// Templates holds the three rule sets embedded by GenerateCombined.
type Templates struct {
	Categorize string
	Extract    string
	Reply      string
}

// Combined is the result of the single-call JSON path.
type Combined struct {
	Category    string `json:"category"`
	ActionItems string `json:"action_items"`
	DraftReply  string `json:"draft_reply"`
}

// Failed reports whether c carries a transport or parsing failure sentinel.
func (c Combined) Failed() bool {
	return c.Category == CategoryAPIError || c.Category == CategoryParseError
}

// Extractor builds insight prompts and applies each operation's output
// contract. Categorize and GenerateCombined substitute defaults on
// failure; ExtractActions, DraftReply and RefineReply report absence.
type Extractor struct {
	inv    Invoker
	logger *zap.Logger
}

// New creates an Extractor. A nil logger disables logging.
func New(inv Invoker, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{inv: inv, logger: logger}
}

// Categorize asks for a bare category name. The body is truncated to
// 1000 characters. It never returns an empty string: any failure
// yields Uncategorised.
func (e *Extractor) Categorize(ctx context.Context, f EmailFields, template string) string {
	prompt := fmt.Sprintf(`%s

Email Data:
From: %s
Subject: %s
Body: %s

Output: Return ONLY the category name. No formatting.`,
		template, f.Sender, f.Subject, truncateRunes(f.Body, categorizeBodyLimit))

	text, err := e.inv.Invoke(ctx, prompt)
	if err != nil || text == "" {
		e.logger.Warn("categorize fell back to default", zap.Error(err))
		metrics.RecordInsight("categorize", "fallback")
		return Uncategorised
	}

	metrics.RecordInsight("categorize", "ok")
	return text
}

// ExtractActions returns the model's action item text for the full,
// untruncated email. ok is false when the call failed.
func (e *Extractor) ExtractActions(ctx context.Context, f EmailFields, template string) (string, bool) {
	return e.invokeOptional(ctx, "extract", emailPrompt(template, f))
}

// DraftReply returns a reply draft for the email. ok is false when the
// call failed.
func (e *Extractor) DraftReply(ctx context.Context, f EmailFields, template string) (string, bool) {
	return e.invokeOptional(ctx, "draft", emailPrompt(template, f))
}

// RefineReply rewrites currentDraft according to feedback. ok is false
// when the call failed.
func (e *Extractor) RefineReply(ctx context.Context, currentDraft, feedback string) (string, bool) {
	prompt := fmt.Sprintf(`ORIGINAL DRAFT:
%s

USER FEEDBACK:
%s

TASK:
Rewrite the draft to satisfy the feedback. Keep the same tone unless asked to change.
Return ONLY the new draft text. Do not add any commentary.`, currentDraft, feedback)

	return e.invokeOptional(ctx, "refine", prompt)
}

// GenerateCombined produces category, action items and a reply draft in
// one call using a JSON output contract.
func (e *Extractor) GenerateCombined(ctx context.Context, f EmailFields, t Templates) Combined {
	prompt := fmt.Sprintf(`You are an intelligent email assistant. Process this email and return a JSON object.

1. CATEGORIZATION RULE: %s
2. EXTRACTION RULE: %s
3. DRAFT RULE: %s

EMAIL CONTEXT:
From: %s
Subject: %s
Body: %s

OUTPUT FORMAT:
You must return valid JSON with these exact keys:
{
    "category": "Category Name",
    "action_items": "Bulleted list of items",
    "draft_reply": "The email draft"
}`, t.Categorize, t.Extract, t.Reply, f.Sender, f.Subject, f.Body)

	raw, err := e.inv.Invoke(ctx, prompt)
	if err != nil || raw == "" {
		e.logger.Warn("combined insight call failed", zap.Error(err))
		metrics.RecordInsight("combined", "api_error")
		return Combined{
			Category:    CategoryAPIError,
			ActionItems: ActionsAPIError,
			DraftReply:  DraftAPIError,
		}
	}

	result, err := ParseCombined(raw)
	if err != nil {
		e.logger.Warn("combined insight response not parseable",
			zap.Error(err),
			zap.Int("response_len", len(raw)),
		)
		metrics.RecordInsight("combined", "parse_error")
		return Combined{
			Category:    CategoryParseError,
			ActionItems: raw,
			DraftReply:  DraftParseError,
		}
	}

	metrics.RecordInsight("combined", "ok")
	return result
}

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*")
	trailingFence = regexp.MustCompile("```$")
)

// StripCodeFences removes a leading ```lang marker and a trailing ```
// marker from a model response.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseCombined decodes a combined insight response. Missing or null
// keys take their defaults; the payload must be a JSON object.
func ParseCombined(raw string) (Combined, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &data); err != nil {
		return Combined{}, fmt.Errorf("decoding combined insight: %w", err)
	}
	if data == nil {
		return Combined{}, fmt.Errorf("decoding combined insight: not a JSON object")
	}

	return Combined{
		Category:    fieldText(data, "category", DefaultCategory),
		ActionItems: fieldText(data, "action_items", DefaultActionItems),
		DraftReply:  fieldText(data, "draft_reply", DefaultDraftReply),
	}, nil
}

// fieldText renders a decoded JSON value as display text. String lists
// become bulleted lines; other non-string values are re-encoded.
func fieldText(data map[string]any, key, def string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return def
	}

	switch val := v.(type) {
	case string:
		return val
	case []any:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			s, isString := item.(string)
			if !isString {
				b, _ := json.Marshal(item)
				s = string(b)
			}
			lines = append(lines, "* "+s)
		}
		return strings.Join(lines, "\n")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func (e *Extractor) invokeOptional(ctx context.Context, op, prompt string) (string, bool) {
	text, err := e.inv.Invoke(ctx, prompt)
	if err != nil || text == "" {
		e.logger.Warn("insight operation returned nothing",
			zap.String("operation", op),
			zap.Error(err),
		)
		metrics.RecordInsight(op, "absent")
		return "", false
	}

	metrics.RecordInsight(op, "ok")
	return text, true
}

func emailPrompt(template string, f EmailFields) string {
	return fmt.Sprintf("%s\n\n---\n\nEmail Data:\nFrom: %s\nSubject: %s\nBody: %s",
		template, f.Sender, f.Subject, f.Body)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
