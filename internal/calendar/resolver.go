package calendar

import (
	"strings"
	"time"
)

// weekdayScan is the fixed scan order for day names. When several
// names appear, the first in this order wins, not the first in the text.
var weekdayScan = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// Resolve maps free text to a day relative to today using keyword
// rules. It returns false when text is empty or carries no temporal
// keyword. The result is midnight in today's location.
//
// A weekday name resolves to its next occurrence (1–7 days ahead),
// except that the current weekday stays on today when the text also
// says "today". Otherwise "tomorrow" is today+1 and "today" is today.
func Resolve(text string, today time.Time) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}

	text = strings.ToLower(text)
	day := startOfDay(today)

	for _, wd := range weekdayScan {
		if !strings.Contains(text, wd.name) {
			continue
		}

		daysAhead := mondayIndex(wd.day) - mondayIndex(today.Weekday())
		switch {
		case daysAhead == 0 && strings.Contains(text, "today"):
			// same-day override
		case daysAhead <= 0:
			daysAhead += 7
		}
		return day.AddDate(0, 0, daysAhead), true
	}

	if strings.Contains(text, "tomorrow") {
		return day.AddDate(0, 0, 1), true
	}
	if strings.Contains(text, "today") {
		return day, true
	}

	return time.Time{}, false
}

// mondayIndex numbers weekdays Monday=0 .. Sunday=6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
