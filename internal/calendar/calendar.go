// Package calendar generates the canonical day grid for a month view.
package calendar

import "time"

// StandardWorkdayHours is the expected length of one business day.
const StandardWorkdayHours = 8

// Day is one calendar date within a viewed month.
type Day struct {
	Date          time.Time
	IsBusinessDay bool
}

// SpentDate returns the day's date in the upstream "YYYY-MM-DD" format.
func (d Day) SpentDate() string {
	return d.Date.Format("2006-01-02")
}

// MonthBounds returns the first and last calendar date of a month.
// month is zero-based (0 = January), matching the month index the UI holds.
func MonthBounds(year, month int) (first, last time.Time) {
	first = time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last
}

// DaysInMonth returns one Day per calendar date of the month, ascending.
// Saturday and Sunday are non-business days; holiday calendars are not modeled.
func DaysInMonth(year, month int) []Day {
	first, last := MonthBounds(year, month)
	days := make([]Day, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		days = append(days, Day{
			Date:          d,
			IsBusinessDay: wd != time.Saturday && wd != time.Sunday,
		})
	}
	return days
}

// WeekdayCount returns the number of business days in the month. It is the
// denominator for the expected-hours metric.
func WeekdayCount(year, month int) int {
	n := 0
	for _, d := range DaysInMonth(year, month) {
		if d.IsBusinessDay {
			n++
		}
	}
	return n
}
