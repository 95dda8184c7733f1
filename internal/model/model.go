package model

import (
	"fmt"
	"time"

	"hyprcal/internal/datemath"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time-of-day or zone.
// A Date built through NewDate or ParseDate always satisfies
// 1 <= Month <= 12 and 1 <= Day <= DaysInMonth(Year, Month).
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate validates the given components.
func NewDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("model: month %d out of range", month)
	}
	if n := datemath.DaysInMonth(year, month); day < 1 || day > n {
		return Date{}, fmt.Errorf("model: day %d out of range for %04d-%02d", day, year, month)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("model: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the wall-clock date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Timing classifies how an event's DTSTART was written.
type Timing int

const (
	// TimingDate is a whole-day value (VALUE=DATE).
	TimingDate Timing = iota
	// TimingUTC is a DATE-TIME with a trailing Z.
	TimingUTC
	// TimingFloating is a DATE-TIME without zone information.
	TimingFloating
	// TimingZoned is a DATE-TIME with a TZID parameter.
	TimingZoned
)

func (t Timing) String() string {
	switch t {
	case TimingDate:
		return "date"
	case TimingUTC:
		return "utc"
	case TimingFloating:
		return "floating"
	case TimingZoned:
		return "zoned"
	default:
		return "unknown"
	}
}

// Event is a whole-day (or day-span) calendar entry as read from the ICS
// file. Events have no identity beyond their contents; UID is carried for
// display only.
type Event struct {
	UID     string
	Summary string

	Start  Date
	End    Date
	Timing Timing

	// Recurrence is a short label such as "weekly" when the VEVENT has an
	// RRULE. Recurring events are never expanded.
	Recurrence string
}
