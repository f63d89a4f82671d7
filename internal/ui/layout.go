package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox-agent/internal/theme"
)

// Layout holds the terminal size and the rows reserved for the frame.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with a one-row header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height left for a view between header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// Columns splits the content width into n columns separated by gap cells.
// Any remainder goes to the leftmost columns.
func (l Layout) Columns(n, gap int) []int {
	if n <= 0 {
		return nil
	}
	avail := l.Width - gap*(n-1)
	if avail < n {
		avail = n
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = avail / n
		if i < avail%n {
			widths[i]++
		}
	}
	return widths
}

// RenderHeader renders the title on the left and status (unread count,
// running operation, connection) on the right.
func (l Layout) RenderHeader(title, status string) string {
	return l.spread(theme.HeaderStyle, title, status)
}

// RenderStatusBar renders the last status message on the left and key
// hints on the right. Either may be empty.
func (l Layout) RenderStatusBar(message, hints string) string {
	return l.spread(theme.StatusBarStyle, message, hints)
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// spread fills a full-width row in style with left and right pinned to the
// edges. Right is dropped when both do not fit.
func (l Layout) spread(style lipgloss.Style, left, right string) string {
	l1 := style.Render(left)
	var r1 string
	if right != "" {
		r1 = style.Align(lipgloss.Right).Render(right)
	}

	gap := l.Width - lipgloss.Width(l1) - lipgloss.Width(r1)
	if gap < 0 && r1 != "" {
		r1 = ""
		gap = l.Width - lipgloss.Width(l1)
	}
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, l1, filler, r1)
}
