package ics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"

	"hyprcal/internal/clock"
	appLog "hyprcal/internal/log"
	"hyprcal/internal/metrics"
	"hyprcal/internal/model"
)

// UnnamedEvent is shown for events without a SUMMARY.
const UnnamedEvent = "Unnamed event"

const (
	defaultRelPath = "~/.thunderbird/calendar.ics"
	productName    = "hyprcal"
)

// DefaultPath returns the calendar file shared with the desktop calendar
// application. It does not depend on any configuration.
func DefaultPath() (string, error) {
	return homedir.Expand(defaultRelPath)
}

// WriteError reports that the calendar file could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ics: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Store reads and appends events of one ICS file. It keeps nothing between
// calls: every query re-reads the file and every append rewrites it.
//
// All Stores for the same path share one mutex, so appends never interleave
// and a read that follows an append in the same process sees it.
type Store struct {
	path  string
	clock clock.Clock
	mu    *sync.Mutex
}

// NewStore binds a Store to path. A nil clk means the system clock.
func NewStore(path string, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.System{}
	}
	return &Store{
		path:  path,
		clock: clk,
		mu:    lockFor(path),
	}
}

// Path is the calendar file the store was bound to.
func (s *Store) Path() string {
	return s.path
}

// Events returns every VEVENT of the file in file order, or nothing if the
// file is missing or unreadable.
func (s *Store) Events() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Load(s.path)
}

// EventsOn returns the summaries of events starting on d.
func (s *Store) EventsOn(d model.Date) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summariesOn(Load(s.path), d)
}

// Append adds a one-day event on d and rewrites the file.
func (s *Store) Append(d model.Date, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEvent(s.path, d, summary, s.clock.Now())
}

// Load parses the file at path. A missing or corrupt file yields an empty
// slice, never an error.
func Load(path string) []model.Event {
	return eventsOf(calendarOrEmpty(path))
}

// EventsOn is NewStore(path, nil).EventsOn(d).
func EventsOn(path string, d model.Date) []string {
	return NewStore(path, nil).EventsOn(d)
}

// Append is NewStore(path, nil).Append(d, summary).
func Append(path string, d model.Date, summary string) error {
	return NewStore(path, nil).Append(d, summary)
}

// summariesOn keeps events whose start date equals d. Only whole-day and UTC
// starts take part: a floating or TZID start has no fixed date without a
// resolved zone.
func summariesOn(events []model.Event, d model.Date) []string {
	out := make([]string, 0)
	for _, ev := range events {
		if ev.Timing != model.TimingDate && ev.Timing != model.TimingUTC {
			continue
		}
		if ev.Start != d {
			continue
		}
		if ev.Summary == "" {
			out = append(out, UnnamedEvent)
			continue
		}
		out = append(out, ev.Summary)
	}
	return out
}

func readCalendar(path string) (*ical.Calendar, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCalendar(body)
}

// calendarOrEmpty is the one place where a failed read turns into an empty
// calendar.
func calendarOrEmpty(path string) *ical.Calendar {
	cal, err := readCalendar(path)
	if err == nil {
		return cal
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		appLog.Debug("calendar file not found; starting empty", "path", path)
		metrics.CalendarFallbacks.WithLabelValues(metrics.ReasonMissing).Inc()
	case errors.Is(err, ErrMalformed):
		appLog.Warn("calendar file could not be parsed; starting empty", "path", path, "reason", err.Error())
		metrics.CalendarFallbacks.WithLabelValues(metrics.ReasonCorrupt).Inc()
	default:
		appLog.Warn("calendar file could not be read; starting empty", "path", path, "reason", err.Error())
		metrics.CalendarFallbacks.WithLabelValues(metrics.ReasonUnreadable).Inc()
	}
	return newCalendar()
}

func newCalendar() *ical.Calendar {
	return ical.NewCalendarFor(productName)
}

// appendEvent anchors the event on now's UTC time of day moved to d and
// lets it run until one second before the same time on the next day.
func appendEvent(path string, d model.Date, summary string, now time.Time) error {
	cal := calendarOrEmpty(path)

	now = now.UTC()
	start := time.Date(d.Year, time.Month(d.Month), d.Day, now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Second)

	ev := cal.AddEvent(uuid.NewString())
	ev.SetDtStampTime(now)
	ev.SetSummary(summary)
	ev.SetStartAt(start)
	ev.SetEndAt(end)

	if err := writeCalendar(path, cal); err != nil {
		metrics.AppendFailures.Inc()
		return &WriteError{Path: path, Err: err}
	}

	metrics.EventsAppended.Inc()
	appLog.Info("calendar event appended", "path", path, "date", d.String(), "events", len(cal.Events()))
	return nil
}

// writeCalendar replaces the file at path with cal. A symlinked path is
// resolved first so the link keeps pointing at the updated target. The write
// goes through a temp file and a rename in the target's directory; if that
// directory refuses new files the target is overwritten in place instead.
// The parent directory must already exist.
func writeCalendar(path string, cal *ical.Calendar) error {
	target, err := resolveTarget(path)
	if err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if st, err := os.Stat(target); err == nil {
		mode = st.Mode().Perm()
	}
	body := cal.Serialize()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".hyprcal-*.ics.tmp")
	if errors.Is(err, fs.ErrPermission) {
		appLog.Debug("calendar directory not writable; overwriting in place", "path", target)
		return os.WriteFile(target, []byte(body), mode)
	}
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}

// resolveTarget follows symlinks in path. A path that does not exist yet is
// written as given.
func resolveTarget(path string) (string, error) {
	target, err := filepath.EvalSymlinks(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, nil
	}
	return target, err
}

var pathLocks sync.Map

// lockFor returns the process-wide mutex of a calendar path. A symlink and
// its target share one mutex.
func lockFor(path string) *sync.Mutex {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}
	if target, err := filepath.EvalSymlinks(key); err == nil {
		key = target
	}
	mu, _ := pathLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
