// Package datemath holds the Gregorian date arithmetic used by the month
// grid and the event store.
//
// Callers pass validated values only (a month in 1..12 taken from the wall
// clock or from a parsed model.Date). Out-of-range months are a precondition
// violation and the results for them are undefined.
package datemath

import "time"

var monthLengths = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear reports whether year has a 29th of February.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month (1..12).
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthLengths[month-1]
}

// FirstWeekdayOffset returns how many blank cells precede day 1 in a
// Monday-first week layout: 0 when the month starts on a Monday, 6 when it
// starts on a Sunday.
func FirstWeekdayOffset(year, month int) int {
	wd := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(wd) + 6) % 7
}

// NextMonth returns the month after (year, month), rolling December over
// into January of the following year.
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}
