package lifecycle

import "time"

// startOfDay truncates t to midnight UTC.  Semester date comparisons
// are calendar-date comparisons, so both sides are normalized through
// this before comparing.
func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ceilDays returns ceil((to - from) / 24h).  A deadline later today
// counts as 1, a deadline that already passed is negative.
func ceilDays(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
