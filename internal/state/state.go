// Package state holds the status shared between the calendar components and
// whatever surface displays it (status label, HTTP response, terminal).
package state

import (
	"sync"
	"time"

	appLog "hyprcal/internal/log"
)

// Message is one status line.
type Message struct {
	Level appLog.Level
	Text  string
	Err   error
	At    time.Time
}

// AppState is created once and handed to every component that reports
// status. It is safe for concurrent use.
type AppState struct {
	mu      sync.Mutex
	last    Message
	history []Message
	limit   int
}

const defaultHistory = 50

func New() *AppState {
	return &AppState{limit: defaultHistory}
}

func (s *AppState) Info(msg string) {
	appLog.Info(msg)
	s.record(Message{Level: appLog.LevelInfo, Text: msg})
}

func (s *AppState) Warn(msg string) {
	appLog.Warn(msg)
	s.record(Message{Level: appLog.LevelWarn, Text: msg})
}

func (s *AppState) Error(msg string, err error) {
	appLog.Error(msg, err)
	s.record(Message{Level: appLog.LevelError, Text: msg, Err: err})
}

// Last returns the most recent message and whether there was one.
func (s *AppState) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, !s.last.At.IsZero()
}

// History returns up to the last 50 messages, oldest first.
func (s *AppState) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *AppState) record(m Message) {
	m.At = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = m
	s.history = append(s.history, m)
	if len(s.history) > s.limit {
		s.history = s.history[len(s.history)-s.limit:]
	}
}
