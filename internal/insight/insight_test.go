package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

// stubInvoker returns a fixed response and records the last prompt.
type stubInvoker struct {
	text       string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	return s.text, s.err
}

// echoDraftInvoker returns the ORIGINAL DRAFT section of a refine prompt
// unchanged, modelling a compliant model given "keep as is".
type echoDraftInvoker struct{}

func (echoDraftInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	start := strings.Index(prompt, "ORIGINAL DRAFT:\n")
	end := strings.Index(prompt, "\n\nUSER FEEDBACK:")
	if start < 0 || end < 0 {
		return "", errors.New("unexpected prompt shape")
	}
	return prompt[start+len("ORIGINAL DRAFT:\n") : end], nil
}

var errTransport = errors.New("model unavailable: connection refused")

func sampleFields() EmailFields {
	return EmailFields{
		Sender:  "boss@startup.io",
		Subject: "Expenses",
		Body:    "Please submit the expense report by Friday 5 PM. It is urgent.",
	}
}

func TestCategorize(t *testing.T) {
	inv := &stubInvoker{text: "Urgent"}
	e := New(inv, zaptest.NewLogger(t))

	got := e.Categorize(context.Background(), sampleFields(), "Classify: [Work, Urgent]")
	if got != "Urgent" {
		t.Errorf("Categorize = %q, want Urgent", got)
	}
	for _, want := range []string{
		"Classify: [Work, Urgent]",
		"From: boss@startup.io",
		"Subject: Expenses",
		"Return ONLY the category name",
	} {
		if !strings.Contains(inv.lastPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, inv.lastPrompt)
		}
	}
}

func TestCategorizeTruncatesBody(t *testing.T) {
	inv := &stubInvoker{text: "Work"}
	f := sampleFields()
	f.Body = strings.Repeat("a", 1000) + "TAIL"

	New(inv, nil).Categorize(context.Background(), f, "rules")

	if strings.Contains(inv.lastPrompt, "TAIL") {
		t.Error("body was not truncated to 1000 characters")
	}
	if !strings.Contains(inv.lastPrompt, strings.Repeat("a", 1000)) {
		t.Error("truncated body missing from prompt")
	}
}

func TestCategorizeFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		inv  *stubInvoker
	}{
		{"transport error", &stubInvoker{err: errTransport}},
		{"empty response", &stubInvoker{text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.inv, nil).Categorize(context.Background(), sampleFields(), "rules")
			if got != Uncategorised {
				t.Errorf("Categorize = %q, want %q", got, Uncategorised)
			}
		})
	}
}

func TestExtractAndDraftUseFullBody(t *testing.T) {
	f := sampleFields()
	f.Body = strings.Repeat("b", 1500) + "TAIL"

	inv := &stubInvoker{text: "* Submit report"}
	e := New(inv, nil)

	got, ok := e.ExtractActions(context.Background(), f, "Extract tasks")
	if !ok || got != "* Submit report" {
		t.Errorf("ExtractActions = (%q, %v)", got, ok)
	}
	if !strings.Contains(inv.lastPrompt, "TAIL") {
		t.Error("extract prompt body was truncated")
	}
	if !strings.HasPrefix(inv.lastPrompt, "Extract tasks\n\n---\n\nEmail Data:\n") {
		t.Errorf("unexpected prompt prefix: %q", inv.lastPrompt[:40])
	}

	inv.text = "Hi, will do."
	got, ok = e.DraftReply(context.Background(), f, "Draft politely")
	if !ok || got != "Hi, will do." {
		t.Errorf("DraftReply = (%q, %v)", got, ok)
	}
	if !strings.Contains(inv.lastPrompt, "TAIL") {
		t.Error("draft prompt body was truncated")
	}
}

func TestOptionalOperationsReportAbsence(t *testing.T) {
	e := New(&stubInvoker{err: errTransport}, nil)
	ctx := context.Background()

	if got, ok := e.ExtractActions(ctx, sampleFields(), "t"); ok || got != "" {
		t.Errorf("ExtractActions = (%q, %v), want absent", got, ok)
	}
	if got, ok := e.DraftReply(ctx, sampleFields(), "t"); ok || got != "" {
		t.Errorf("DraftReply = (%q, %v), want absent", got, ok)
	}
	if got, ok := e.RefineReply(ctx, "draft", "shorter"); ok || got != "" {
		t.Errorf("RefineReply = (%q, %v), want absent", got, ok)
	}
}

func TestRefineReplyPrompt(t *testing.T) {
	inv := &stubInvoker{text: "Shorter draft"}
	got, ok := New(inv, nil).RefineReply(context.Background(), "Long draft", "Make it shorter")
	if !ok || got != "Shorter draft" {
		t.Errorf("RefineReply = (%q, %v)", got, ok)
	}
	for _, want := range []string{
		"ORIGINAL DRAFT:\nLong draft",
		"USER FEEDBACK:\nMake it shorter",
		"Keep the same tone unless asked to change",
		"Return ONLY the new draft text",
	} {
		if !strings.Contains(inv.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRefineReplyKeepAsIsIsIdempotent(t *testing.T) {
	e := New(echoDraftInvoker{}, nil)
	ctx := context.Background()

	draft := "Hi Sam,\n\nThanks, I will review the PR tomorrow.\n\nBest"
	first, ok := e.RefineReply(ctx, draft, "keep as is")
	if !ok {
		t.Fatal("first refine failed")
	}
	second, ok := e.RefineReply(ctx, first, "keep as is")
	if !ok {
		t.Fatal("second refine failed")
	}
	if first != draft || second != first {
		t.Errorf("refine not idempotent: %q -> %q -> %q", draft, first, second)
	}
}

func TestGenerateCombined(t *testing.T) {
	tests := []struct {
		name string
		inv  *stubInvoker
		want Combined
	}{
		{
			name: "fenced json",
			inv:  &stubInvoker{text: "```json\n{\"category\":\"Work\",\"action_items\":\"None\",\"draft_reply\":\"Hi\"}\n```"},
			want: Combined{"Work", "None", "Hi"},
		},
		{
			name: "bare fence",
			inv:  &stubInvoker{text: "```\n{\"category\":\"Personal\",\"action_items\":\"* Call mom\",\"draft_reply\":\"Sure!\"}\n```"},
			want: Combined{"Personal", "* Call mom", "Sure!"},
		},
		{
			name: "plain json",
			inv:  &stubInvoker{text: `{"category":"Finance","action_items":"* Pay bill","draft_reply":"Thanks"}`},
			want: Combined{"Finance", "* Pay bill", "Thanks"},
		},
		{
			name: "missing keys use defaults",
			inv:  &stubInvoker{text: `{}`},
			want: Combined{DefaultCategory, DefaultActionItems, DefaultDraftReply},
		},
		{
			name: "null values use defaults",
			inv:  &stubInvoker{text: `{"category":null,"action_items":null}`},
			want: Combined{DefaultCategory, DefaultActionItems, DefaultDraftReply},
		},
		{
			name: "list action items",
			inv:  &stubInvoker{text: `{"category":"Work","action_items":["Review PR","Reply"],"draft_reply":"Ok"}`},
			want: Combined{"Work", "* Review PR\n* Reply", "Ok"},
		},
		{
			name: "non-json response",
			inv:  &stubInvoker{text: "sure, here you go"},
			want: Combined{CategoryParseError, "sure, here you go", DraftParseError},
		},
		{
			name: "json array is not an object",
			inv:  &stubInvoker{text: `["Work"]`},
			want: Combined{CategoryParseError, `["Work"]`, DraftParseError},
		},
		{
			name: "transport failure",
			inv:  &stubInvoker{err: errTransport},
			want: Combined{CategoryAPIError, ActionsAPIError, DraftAPIError},
		},
		{
			name: "empty response",
			inv:  &stubInvoker{text: ""},
			want: Combined{CategoryAPIError, ActionsAPIError, DraftAPIError},
		},
	}

	tmpl := Templates{Categorize: "CAT RULES", Extract: "EXT RULES", Reply: "REP RULES"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.inv, zaptest.NewLogger(t)).GenerateCombined(context.Background(), sampleFields(), tmpl)
			if got != tt.want {
				t.Errorf("GenerateCombined = %+v, want %+v", got, tt.want)
			}
			if tt.inv.calls != 1 {
				t.Errorf("calls = %d, want 1", tt.inv.calls)
			}
		})
	}
}

func TestGenerateCombinedPrompt(t *testing.T) {
	inv := &stubInvoker{text: `{}`}
	tmpl := Templates{Categorize: "CAT RULES", Extract: "EXT RULES", Reply: "REP RULES"}

	New(inv, nil).GenerateCombined(context.Background(), sampleFields(), tmpl)

	for _, want := range []string{
		"1. CATEGORIZATION RULE: CAT RULES",
		"2. EXTRACTION RULE: EXT RULES",
		"3. DRAFT RULE: REP RULES",
		`"category"`, `"action_items"`, `"draft_reply"`,
		"Body: Please submit the expense report",
	} {
		if !strings.Contains(inv.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCombinedFailed(t *testing.T) {
	if !(Combined{Category: CategoryAPIError}).Failed() {
		t.Error("API error not reported as failed")
	}
	if !(Combined{Category: CategoryParseError}).Failed() {
		t.Error("parse error not reported as failed")
	}
	if (Combined{Category: "Work"}).Failed() {
		t.Error("Work reported as failed")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{}\n```", "{}"},
		{"```JSON {} ```", "{}"},
		{"  {}  ", "{}"},
		{"```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"no fences", "no fences"},
	}
	for _, tt := range tests {
		if got := StripCodeFences(tt.in); got != tt.want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
