package window

import (
	"fmt"
	"time"
)

const (
	layoutDay   = "2006-01-02"
	layoutMonth = "2006-01"

	weekPrefix = "W-"
	docPrefix  = "doc"
	separator  = "_"
)

// DayKey renders t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// WeekKey renders the Sunday starting t's week as W-YYYY-MM-DD.
func WeekKey(t time.Time) string {
	return weekPrefix + DayKey(StartOfWeek(t))
}

// MonthKey renders t as YYYY-MM.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// CacheKey joins a window identifier and a partition id. No escaping is
// performed; partition ids are opaque server generated ids.
func CacheKey(windowKey, partition string) string {
	return windowKey + separator + partition
}

// DocumentKey addresses a single document reached without a window, for
// example from a search result.
func DocumentKey(id string) string {
	return CacheKey(docPrefix, id)
}

// ParseDay parses a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(layoutDay, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("window: parse day %q: %w", s, err)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(layoutMonth, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("window: parse month %q: %w", s, err)
	}
	return t, nil
}
