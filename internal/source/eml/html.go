package eml

import (
	"regexp"
	"strings"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

var htmlBlock = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)

var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// stripHTML reduces an HTML body to readable text.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := htmlBlock.ReplaceAllString(html, "")
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>", "</tr>"} {
		result = strings.ReplaceAll(result, tag, "\n")
	}
	result = htmlTag.ReplaceAllString(result, "")
	result = htmlEntities.Replace(result)

	lines := strings.Split(result, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	result = strings.Join(lines, "\n")
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
