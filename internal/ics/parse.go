package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "hyprcal/internal/log"
	"hyprcal/internal/model"
)

// ErrMalformed marks calendar text that could not be parsed.
var ErrMalformed = errors.New("malformed calendar")

// parseCalendar parses a single ICS payload. Every property and component
// is retained by the parser, including ones this package never reads, so a
// parsed calendar serializes back with them intact.
func parseCalendar(body []byte) (*ical.Calendar, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty ICS body", ErrMalformed)
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return cal, nil
}

// eventsOf converts every VEVENT in file order. A VEVENT that cannot be
// converted is logged and skipped; the others are kept.
func eventsOf(cal *ical.Calendar) []model.Event {
	events := make([]model.Event, 0)
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(comp)
		if err != nil {
			appLog.Debug("ics vevent skipped", "reason", err.Error())
			continue
		}
		events = append(events, ev)
	}
	return events
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	start, timing, err := parseICSTime(dtStart.Value, dtStart.ICalParameters)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.End = start
	out.Timing = timing

	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		end, endTiming, err := parseICSTime(dtEnd.Value, dtEnd.ICalParameters)
		if err == nil {
			out.End = inclusiveEnd(out.Start, end, endTiming)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		label, err := describeRecurrence(p.Value)
		if err != nil {
			appLog.Debug("ics rrule not understood", "uid", out.UID, "rrule", p.Value)
			label = "custom"
		}
		out.Recurrence = label
	}

	return out, nil
}

// parseICSTime reads a DATE or DATE-TIME value and reports how it was
// written. Only UTC values are normalized; floating and TZID values keep
// their literal wall-clock date because no zone is resolved here.
func parseICSTime(v string, params map[string][]string) (model.Date, model.Timing, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return model.Date{}, 0, errors.New("empty time value")
	}

	if paramIs(params, "VALUE", "DATE") || !strings.Contains(v, "T") {
		t, err := time.Parse("20060102", v)
		if err != nil {
			return model.Date{}, 0, err
		}
		return model.DateOf(t), model.TimingDate, nil
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return model.Date{}, 0, err
		}
		return model.DateOf(t.UTC()), model.TimingUTC, nil
	}

	t, err := time.Parse("20060102T150405", v)
	if err != nil {
		return model.Date{}, 0, err
	}
	if len(params["TZID"]) > 0 {
		return model.DateOf(t), model.TimingZoned, nil
	}
	return model.DateOf(t), model.TimingFloating, nil
}

// inclusiveEnd turns an exclusive VALUE=DATE end into the last covered day.
func inclusiveEnd(start, end model.Date, timing model.Timing) model.Date {
	if timing != model.TimingDate {
		return end
	}
	t := time.Date(end.Year, time.Month(end.Month), end.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	if last := model.DateOf(t); !before(last, start) {
		return last
	}
	return start
}

func before(a, b model.Date) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	return a.Day < b.Day
}

func paramIs(params map[string][]string, key, want string) bool {
	vs, ok := params[key]
	return ok && len(vs) > 0 && strings.EqualFold(vs[0], want)
}
