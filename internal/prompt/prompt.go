// Package prompt holds the user-editable instructions that drive insight
// generation and the category set derived from them.
package prompt

import (
	"regexp"
	"strings"

	"github.com/nhle/inbox-agent/internal/insight"
)

// DefaultCategories is used when a categorization prompt carries no
// bracketed category list.
var DefaultCategories = []string{"Work", "Personal", "Urgent", "Finance", "Spam"}

var categoryList = regexp.MustCompile(`\[(.*?)\]`)

// Template is a categorization instruction together with the category set
// it names.
type Template struct {
	Text       string
	Categories []string
}

// ParseTemplate extracts the first "[A, B, C]" list in text as the category
// set.
func ParseTemplate(text string) Template {
	t := Template{Text: text}

	if m := categoryList.FindStringSubmatch(text); m != nil {
		for _, c := range strings.Split(m[1], ",") {
			if c = strings.TrimSpace(c); c != "" {
				t.Categories = append(t.Categories, c)
			}
		}
	}
	if len(t.Categories) == 0 {
		t.Categories = append([]string(nil), DefaultCategories...)
	}
	return t
}

// Normalize maps a model-produced label onto the template's category set,
// ignoring case and surrounding punctuation. Labels outside the set are
// returned trimmed.
func (t Template) Normalize(label string) string {
	trimmed := strings.TrimSpace(label)
	bare := strings.Trim(trimmed, " .*\"'`")
	for _, c := range t.Categories {
		if strings.EqualFold(c, bare) {
			return c
		}
	}
	return trimmed
}

// Has reports whether label is one of the template's categories.
func (t Template) Has(label string) bool {
	for _, c := range t.Categories {
		if c == label {
			return true
		}
	}
	return false
}

// Set is the three instructions used for triage.
type Set struct {
	Categorize string `toml:"categorize"`
	Extract    string `toml:"extract"`
	Reply      string `toml:"reply"`
}

// DefaultSet returns the built-in prompts.
func DefaultSet() Set {
	return Set{
		Categorize: `You are an email organizer.
Classify the following email into one of these categories: [Work, Personal, Newsletter, Finance, Spam, Urgent].
Return ONLY the category name.`,
		Extract: `Identify any specific tasks, deadlines, or requests in the email.
Return them as a bulleted list. If none, write 'No action items'.`,
		Reply: `Draft a professional, concise reply to this email.
If it is work-related, be formal. If personal, be casual.`,
	}
}

// CategoryTemplate parses the categorization prompt.
func (s Set) CategoryTemplate() Template {
	return ParseTemplate(s.Categorize)
}

// Templates converts the set into the form the insight extractor expects.
func (s Set) Templates() insight.Templates {
	return insight.Templates{
		Categorize: s.Categorize,
		Extract:    s.Extract,
		Reply:      s.Reply,
	}
}

// withDefaults fills blank fields from DefaultSet.
func (s Set) withDefaults() Set {
	def := DefaultSet()
	if strings.TrimSpace(s.Categorize) == "" {
		s.Categorize = def.Categorize
	}
	if strings.TrimSpace(s.Extract) == "" {
		s.Extract = def.Extract
	}
	if strings.TrimSpace(s.Reply) == "" {
		s.Reply = def.Reply
	}
	return s
}
