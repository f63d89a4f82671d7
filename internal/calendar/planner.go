package calendar

import (
	"sort"
	"strings"
	"time"
)

// DaysShown is the width of the planner window, starting today.
const DaysShown = 7

// UrgentCategory sorts first in the deadline list.
const UrgentCategory = "Urgent"

// Entry is a scheduled email as the planner sees it.
type Entry struct {
	EmailID    string
	Sender     string
	Subject    string
	Category   string
	AnchorText string
	ReceivedAt time.Time
}

// Day is one planner column.
type Day struct {
	Date    time.Time
	Entries []Entry
}

// Week buckets entries into the seven days starting today. Entries
// whose text resolves past the window go to Later; entries with no
// recognizable date go to Unscheduled rather than being guessed onto
// a day.
type Week struct {
	Days        [DaysShown]Day
	Later       []Entry
	Unscheduled []Entry
}

// AnchorText picks the text used for date resolution: the calendar
// summary when present, else the extracted action items.
func AnchorText(calendarSummary, actionItems string) string {
	if strings.TrimSpace(calendarSummary) != "" {
		return calendarSummary
	}
	return actionItems
}

// BuildWeek resolves every entry and places it in exactly one bucket.
func BuildWeek(entries []Entry, today time.Time) Week {
	var w Week
	start := startOfDay(today)
	for i := range w.Days {
		w.Days[i].Date = start.AddDate(0, 0, i)
	}

	for _, e := range entries {
		target, ok := Resolve(e.AnchorText, today)
		if !ok {
			w.Unscheduled = append(w.Unscheduled, e)
			continue
		}

		placed := false
		for i := range w.Days {
			if SameDay(target, w.Days[i].Date) {
				w.Days[i].Entries = append(w.Days[i].Entries, e)
				placed = true
				break
			}
		}
		if !placed {
			w.Later = append(w.Later, e)
		}
	}

	return w
}

// Count returns the number of entries placed on a day.
func (w Week) Count() int {
	n := 0
	for _, d := range w.Days {
		n += len(d.Entries)
	}
	return n
}

// Deadlines orders scheduled entries urgent-first, then newest first,
// and returns at most limit of them.
func Deadlines(entries []Entry, limit int) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		ui := sorted[i].Category == UrgentCategory
		uj := sorted[j].Category == UrgentCategory
		if ui != uj {
			return ui
		}
		return sorted[i].ReceivedAt.After(sorted[j].ReceivedAt)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Snippet returns the first line of text with a leading "* " bullet
// removed, trimmed and cut to max runes.
func Snippet(text string, max int) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(strings.ReplaceAll(line, "* ", ""))

	r := []rune(line)
	if max > 0 && len(r) > max {
		return string(r[:max])
	}
	return line
}
