package models

import "time"

// TimeWindow names a calendar-based reporting period.
type TimeWindow string

const (
	WindowDay   TimeWindow = "day"
	WindowWeek  TimeWindow = "week"
	WindowMonth TimeWindow = "month"
	WindowYear  TimeWindow = "year"
	WindowAll   TimeWindow = "all"
)

// Valid reports whether w is a supported window.
func (w TimeWindow) Valid() bool {
	switch w {
	case WindowDay, WindowWeek, WindowMonth, WindowYear, WindowAll:
		return true
	}
	return false
}

// Resolve returns the half-open [start, end) range the window covers at the
// given instant. bounded is false for WindowAll. Boundaries are calendar
// boundaries, not rolling periods: day is midnight to midnight, week runs
// Sunday to Sunday (backing into the previous month when needed), month is
// the 1st to the 1st of the next month, year is Jan 1 to Jan 1.
func (w TimeWindow) Resolve(now time.Time) (start, end time.Time, bounded bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch w {
	case WindowDay:
		return midnight, midnight.AddDate(0, 0, 1), true
	case WindowWeek:
		start = midnight.AddDate(0, 0, -int(now.Weekday()))
		return start, start.AddDate(0, 0, 7), true
	case WindowMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), true
	case WindowYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// MonthRange returns the half-open range covering one calendar month.
func MonthRange(year int, month time.Month, loc *time.Location) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
