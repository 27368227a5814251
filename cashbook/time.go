package cashbook

import (
	"time"
)

// =============================================================================
// CLOCK
// =============================================================================

// Clock returns the current instant. Injected so tests can pin "now".
type Clock func() time.Time

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// =============================================================================
// DAY BOUNDARIES - Calendar days in the engine's location
// =============================================================================

// StartOfDay returns 00:00:00.000 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's calendar day in loc.
// For millisecond timestamps this is 23:59:59.999.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfMonth returns 00:00 on the first day of t's month in loc.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// dayRange is the half-open interval [Start, End) covering one or more days.
type dayRange struct {
	Start time.Time
	End   time.Time
}

func (r dayRange) contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// weekdayLabel is the two-letter weekday abbreviation ("Mo", "Tu", ...).
func weekdayLabel(t time.Time) string {
	return t.Weekday().String()[:2]
}

// shortDateLabel is "dd/mm".
func shortDateLabel(t time.Time) string {
	return t.Format("02/01")
}
