package inbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/theme"
)

// EmailItem wraps a model.Email so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.Email
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string { return i.Email.Sender + " " + i.Email.Subject }

// Title returns the subject for the list.
func (i EmailItem) Title() string { return i.Email.Subject }

// Description returns the sender for the list.
func (i EmailItem) Description() string { return i.Email.Sender }

// ItemDelegate implements list.ItemDelegate for rendering inbox rows.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox row:
// "● [09:00] | sender - subject  [CATEGORY]".
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EmailItem)
	if !ok {
		return
	}
	e := ei.Email

	now := time.Now
	if d.now != nil {
		now = d.now
	}

	marker := " "
	if !e.IsRead {
		marker = "●"
	}

	label := e.Label()
	badge := theme.CategoryStyle(label).Render("[" + strings.ToUpper(label) + "]")

	line := fmt.Sprintf("%s [%s] | %s - %s %s",
		marker, shortTime(e.ReceivedAt, now()), e.Sender, e.Subject, badge)
	if e.IsScheduled {
		line += theme.HelpStyle.Render(" (on calendar)")
	}

	switch {
	case index == m.Index():
		line = theme.SelectedItemStyle.Render(line)
	case !e.IsRead:
		line = theme.ListItemStyle.Inherit(theme.UnreadStyle).Render(line)
	default:
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// shortTime shows the clock time for emails received today and the date
// otherwise.
func shortTime(t, now time.Time) string {
	if t.IsZero() {
		return "--"
	}
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	return t.Format("Jan 02")
}
