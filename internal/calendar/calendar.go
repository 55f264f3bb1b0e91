// Package calendar converts the partial dates found in store metadata
// into calendar dates.
package calendar

import (
	"math"
	"time"
)

// Sentinel is returned by ConvertToDate when the inputs do not form a date.
var Sentinel = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// ConvertToDate returns the 15th of the given month. Inputs are truncated
// toward zero; anything that is not a valid calendar month yields Sentinel.
func ConvertToDate(year, month float64) time.Time {
	y, ok := truncate(year)
	if !ok || y < 1 || y > 9999 {
		return Sentinel
	}
	m, ok := truncate(month)
	if !ok || m < 1 || m > 12 {
		return Sentinel
	}
	return time.Date(y, time.Month(m), 15, 0, 0, 0, 0, time.UTC)
}

// DateFromYearWeek returns the Monday of the given week. Weeks start on
// Monday and the days before the first Monday of the year form week 0.
// The year must have four digits and the week must be in 0..53.
func DateFromYearWeek(year, week float64) (time.Time, bool) {
	y, ok := truncate(year)
	if !ok || y < 1000 || y > 9999 {
		return time.Time{}, false
	}
	w, ok := truncate(week)
	if !ok || w < 0 || w > 53 {
		return time.Time{}, false
	}

	// Monday = 0
	firstWeekday := (int(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC).Weekday()) + 6) % 7
	var yearDay int
	if w == 0 {
		yearDay = 1 - firstWeekday
	} else {
		week0Length := (7 - firstWeekday) % 7
		yearDay = 1 + week0Length + 7*(w-1)
	}

	// time.Date normalizes days outside the year into the neighbouring one.
	date := time.Date(y, time.January, yearDay, 0, 0, 0, 0, time.UTC)
	if date.Year() > 9999 {
		return time.Time{}, false
	}
	return date, true
}

func truncate(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(math.Trunc(v)), true
}
