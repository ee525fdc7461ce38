package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthWindow is the time span and labels for one export month.
type MonthWindow struct {
	Start     time.Time
	End       time.Time
	Year      int
	Month     time.Month
	MonthName string // upper-cased, e.g. "JULY"
}

// NewMonthWindow spans the full calendar month in loc: from midnight
// on the 1st through 23:59:59 on the last day.
func NewMonthWindow(year int, month time.Month, loc *time.Location) (MonthWindow, error) {
	if month < time.January || month > time.December {
		return MonthWindow{}, fmt.Errorf("month must be 1..12, got %d", month)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return MonthWindow{
		Start:     start,
		End:       end,
		Year:      year,
		Month:     month,
		MonthName: strings.ToUpper(start.Format("January")),
	}, nil
}

// LastMonth returns the previous calendar month relative to now in
// loc.
func LastMonth(now time.Time, loc *time.Location) (int, time.Month) {
	prev := now.In(loc).AddDate(0, 0, -now.In(loc).Day())
	return prev.Year(), prev.Month()
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("expected YYYY-MM, got %q", s)
	}
	return t.Year(), t.Month(), nil
}
