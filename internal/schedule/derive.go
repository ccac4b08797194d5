package schedule

import (
	"strings"
	"time"
)

// Date layouts accepted by the importer and the edit form, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Derive maps a game date to its ISO-8601 week number (1-53) and ISO
// weekday (Monday=1 .. Sunday=7). An unparseable date yields the (0, 0)
// sentinel; callers must treat that as "derivation failed", never as a
// legitimate week/day pair.
func Derive(date string) (week, day int) {
	t, ok := parseDate(date)
	if !ok {
		return 0, 0
	}
	_, week = t.ISOWeek()
	day = int(t.Weekday())
	if day == 0 { // time.Sunday is 0, ISO wants 7
		day = 7
	}
	return week, day
}
