package listing

import (
	"strconv"
	"strings"
	"time"
)

// DateMode is the value of a tab's date selector. Bucket modes restrict
// the visible set by time range; the two sort directives reorder instead
// of filtering and must never be combined with bucket predicates.
type DateMode string

const (
	DateAll      DateMode = "all"
	DateWeek     DateMode = "week"
	DateMonth    DateMode = "month"
	DateYear     DateMode = "year"
	DateLastYear DateMode = "last_year"
	SortNewest   DateMode = "newest"
	SortOldest   DateMode = "oldest"
)

// ParseDateMode normalises a raw selector value. Unknown values disable
// the date predicate entirely, matching how an "all" option behaves.
func ParseDateMode(raw string) DateMode {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch DateMode(s) {
	case DateWeek, DateMonth, DateYear, DateLastYear, SortNewest, SortOldest:
		return DateMode(s)
	}
	if _, ok := parseExplicitYear(s); ok {
		return DateMode(s)
	}
	return DateAll
}

// IsSort reports whether the mode is a sort directive rather than a filter.
func (m DateMode) IsSort() bool {
	return m == SortNewest || m == SortOldest
}

// IsBucket reports whether the mode restricts records by time range.
func (m DateMode) IsBucket() bool {
	switch m {
	case DateWeek, DateMonth, DateYear, DateLastYear:
		return true
	}
	_, ok := parseExplicitYear(string(m))
	return ok
}

// Matches evaluates the bucket predicate for a record date against now.
// The zero sentinel date fails every bucket.
func (m DateMode) Matches(d, now time.Time) bool {
	if !m.IsBucket() {
		return true
	}
	if d.IsZero() {
		return false
	}
	switch m {
	case DateWeek:
		return !d.Before(now.AddDate(0, 0, -7))
	case DateMonth:
		return !d.Before(previousMonthAnchor(now))
	case DateYear:
		return d.Year() == now.Year()
	case DateLastYear:
		return d.Year() == now.Year()-1
	}
	if year, ok := parseExplicitYear(string(m)); ok {
		return d.Year() == year
	}
	return true
}

func parseExplicitYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1000 {
		return 0, false
	}
	return year, true
}

// previousMonthAnchor returns the same day-of-month one calendar month
// before now, clamped to the last valid day of that month so Jan 31 maps
// to Feb 28/29 boundaries without rolling into the wrong month.
func previousMonthAnchor(now time.Time) time.Time {
	year, month, day := now.Date()
	firstOfPrev := time.Date(year, month-1, 1, 0, 0, 0, 0, now.Location())
	if last := daysInMonth(firstOfPrev); day > last {
		day = last
	}
	hour, min, sec := now.Clock()
	return time.Date(firstOfPrev.Year(), firstOfPrev.Month(), day, hour, min, sec, now.Nanosecond(), now.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
