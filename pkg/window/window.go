// Package window derives calendar windows and the cache keys that address
// them. All functions use the wall clock of the time's own location; callers
// pass local times.
package window

import (
	"fmt"
	"time"
)

// Kind identifies the granularity of a window.
type Kind int

const (
	Day Kind = iota
	Week
	Month
)

func (k Kind) String() string {
	switch k {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a user supplied name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "day", "d":
		return Day, nil
	case "week", "w":
		return Week, nil
	case "month", "m":
		return Month, nil
	}
	return Day, fmt.Errorf("window: unknown kind %q", s)
}

// Window is a half-open calendar range [Start, End). For months the range
// covers the whole display grid, including the leading and trailing days of
// the adjacent months.
type Window struct {
	Kind  Kind
	Start time.Time
	End   time.Time
	// Anchor is the date the window was built from. Cells outside the
	// anchor's month are rendered as adjacent-month cells.
	Anchor time.Time
}

// Of returns the window of the given kind containing t.
func Of(kind Kind, t time.Time) Window {
	switch kind {
	case Week:
		start := StartOfWeek(t)
		return Window{Kind: Week, Start: start, End: AddDays(start, 7), Anchor: StartOfDay(t)}
	case Month:
		first := StartOfMonth(t)
		leading := int(first.Weekday())
		days := DaysIn(first)
		cells := (leading + days + 6) / 7 * 7
		start := AddDays(first, -leading)
		return Window{Kind: Month, Start: start, End: AddDays(start, cells), Anchor: first}
	default:
		start := StartOfDay(t)
		return Window{Kind: Day, Start: start, End: AddDays(start, 1), Anchor: start}
	}
}

// Key returns the canonical window identifier.
func (w Window) Key() string {
	switch w.Kind {
	case Week:
		return WeekKey(w.Start)
	case Month:
		return MonthKey(w.Anchor)
	default:
		return DayKey(w.Start)
	}
}

// Next returns the adjacent window n steps away (negative n moves back).
func (w Window) Next(n int) Window {
	switch w.Kind {
	case Week:
		return Of(Week, AddDays(w.Anchor, 7*n))
	case Month:
		return Of(Month, time.Date(w.Anchor.Year(), w.Anchor.Month()+time.Month(n), 1, 0, 0, 0, 0, w.Anchor.Location()))
	default:
		return Of(Day, AddDays(w.Start, n))
	}
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s %s", w.Kind, w.Key())
}

// Days lists every calendar day in [Start, End).
func (w Window) Days() []time.Time {
	var out []time.Time
	for d := w.Start; d.Before(w.End); d = AddDays(d, 1) {
		out = append(out, d)
	}
	return out
}

// InAnchorMonth reports whether t shares the anchor's month and year.
func (w Window) InAnchorMonth(t time.Time) bool {
	return t.Year() == w.Anchor.Year() && t.Month() == w.Anchor.Month()
}

// StartOfDay truncates t to midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping wall-clock midnight across DST.
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

// StartOfWeek rolls back to the most recent Sunday.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	return AddDays(d, -int(d.Weekday()))
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in t's month.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
