package ics

import (
	"fmt"

	"github.com/teambition/rrule-go"
)

// describeRecurrence validates an RRULE value and returns a short label for
// listings ("weekly", "every 2 months"). Occurrences are not computed.
func describeRecurrence(raw string) (string, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return "", err
	}

	var unit, adverb string
	switch opt.Freq {
	case rrule.YEARLY:
		unit, adverb = "year", "yearly"
	case rrule.MONTHLY:
		unit, adverb = "month", "monthly"
	case rrule.WEEKLY:
		unit, adverb = "week", "weekly"
	case rrule.DAILY:
		unit, adverb = "day", "daily"
	case rrule.HOURLY:
		unit, adverb = "hour", "hourly"
	case rrule.MINUTELY:
		unit, adverb = "minute", "every minute"
	default:
		unit, adverb = "second", "every second"
	}

	label := adverb
	if opt.Interval > 1 {
		label = fmt.Sprintf("every %d %ss", opt.Interval, unit)
	}
	switch {
	case opt.Count > 0:
		label += fmt.Sprintf(", %d times", opt.Count)
	case !opt.Until.IsZero():
		label += ", until " + opt.Until.UTC().Format("2006-01-02")
	}
	return label, nil
}
