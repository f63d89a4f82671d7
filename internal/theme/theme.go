package theme

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/insight"
	"github.com/nhle/inbox-agent/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorCyan    = lipgloss.AdaptiveColor{Dark: "#66D9E8", Light: "#0C8599"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Frame.
var (
	// HeaderStyle shows the application title and the unread count.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorBlue).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorSubtle).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)
)

// Inbox list.
var (
	ListItemStyle = lipgloss.NewStyle().PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Bold(true).
				Foreground(ColorBlue).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorBlue)

	// UnreadStyle marks emails that have not been opened.
	UnreadStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
)

// Email detail and planner.
var (
	DetailPanelStyle = lipgloss.NewStyle().
				Padding(1, 2).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder)

	// SectionStyle titles the body, action items and draft blocks.
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue).
			MarginTop(1)

	// ActionsStyle frames extracted action items.
	ActionsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorYellow).
			PaddingLeft(1)

	// TodayStyle highlights the first planner column.
	TodayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorBlue).
			Padding(0, 1)
)

var categoryColors = map[string]lipgloss.AdaptiveColor{
	"Urgent":     ColorRed,
	"Work":       ColorBlue,
	"Personal":   ColorGreen,
	"Finance":    ColorYellow,
	"Newsletter": ColorCyan,
	"Spam":       ColorGray,

	insight.Uncategorised:      ColorOrange,
	insight.CategoryAPIError:   ColorOrange,
	insight.CategoryParseError: ColorOrange,
	model.LabelNew:             ColorMagenta,
	"":                         ColorMagenta,
}

// Categories named in a custom prompt get a stable color from this set.
var customPalette = []lipgloss.AdaptiveColor{ColorBlue, ColorGreen, ColorYellow, ColorCyan, ColorMagenta}

// CategoryStyle returns a color-coded style for an email category label.
func CategoryStyle(category string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if c, ok := categoryColors[category]; ok {
		return base.Foreground(c)
	}

	h := fnv.New32a()
	h.Write([]byte(category))
	return base.Foreground(customPalette[h.Sum32()%uint32(len(customPalette))])
}
