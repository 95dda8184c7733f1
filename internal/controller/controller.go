// Package controller turns calendar UI actions into EventStore calls and
// status reports.
package controller

import (
	"fmt"
	"strings"

	"hyprcal/internal/clock"
	"hyprcal/internal/grid"
	"hyprcal/internal/launch"
	"hyprcal/internal/model"
)

// Reporter receives user-facing status messages.
type Reporter interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string, err error)
}

// EventStore is the part of ics.Store the controller needs.
type EventStore interface {
	EventsOn(d model.Date) []string
	Append(d model.Date, summary string) error
}

type Controller struct {
	store    EventStore
	clock    clock.Clock
	reporter Reporter
	launcher launch.Launcher
}

func New(store EventStore, clk clock.Clock, reporter Reporter, launcher launch.Launcher) *Controller {
	if clk == nil {
		clk = clock.System{}
	}
	return &Controller{
		store:    store,
		clock:    clk,
		reporter: reporter,
		launcher: launcher,
	}
}

// Schedule is what a day selection shows.
type Schedule struct {
	Date      model.Date
	Summaries []string
}

func (s Schedule) Title() string {
	return fmt.Sprintf("Schedule for %d-%d-%d", s.Date.Year, s.Date.Month, s.Date.Day)
}

// Text lists one summary per line; a free day renders as "".
func (s Schedule) Text() string {
	return strings.Join(s.Summaries, "\n")
}

// SelectDay loads the events starting on d.
func (c *Controller) SelectDay(d model.Date) Schedule {
	return Schedule{Date: d, Summaries: c.store.EventsOn(d)}
}

// AddEvent saves a one-day event with summary exactly as given. Only an
// empty summary does nothing. A failed write is reported and returned; it is
// not retried.
func (c *Controller) AddEvent(d model.Date, summary string) error {
	if summary == "" {
		return nil
	}
	if err := c.store.Append(d, summary); err != nil {
		c.reporter.Error(fmt.Sprintf("Failed to save event '%s'", summary), err)
		return err
	}
	c.reporter.Info(fmt.Sprintf("Saved event '%s' for %d-%d-%d", summary, d.Year, d.Month, d.Day))
	return nil
}

// Tooltip is the month caption followed by the current month's grid with
// today highlighted, both in local time.
func (c *Controller) Tooltip() string {
	now := c.clock.Now()
	year, month := now.Year(), int(now.Month())
	return grid.Header(year, month) + "\n" + grid.Render(year, month, now.Day())
}

// ViewFullSchedule opens the external calendar application. A launch
// failure is reported as a warning.
func (c *Controller) ViewFullSchedule() error {
	if err := c.launcher.Launch(); err != nil {
		c.reporter.Warn(fmt.Sprintf("Could not open calendar application: %v", err))
		return err
	}
	return nil
}
