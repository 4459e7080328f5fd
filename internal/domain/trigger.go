package domain

import "time"

// NextWeekday returns the next instant strictly after now that falls on a
// Monday..Friday at minuteOfDay (minutes since midnight) in now's location.
// A weekend "now" rolls forward to Monday; a weekday past the trigger rolls
// to the next working day.
func NextWeekday(now time.Time, minuteOfDay int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), minuteOfDay/60, minuteOfDay%60, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	for !isWorkday(candidate.Weekday()) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func isWorkday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}
