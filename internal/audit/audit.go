// Package audit records lifecycle events of a project as JSON Lines.
// Each project has a single append-only log next to its state file.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventSelect EventType = "select"
	EventBuild  EventType = "build"
	EventClean  EventType = "clean"
	EventUpdate EventType = "update"
	EventRun    EventType = "run"
	EventStop   EventType = "stop"
	EventExport EventType = "export"
	EventError  EventType = "error"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	App       string    `json:"app,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Logger appends and reads the events of one project.
type Logger struct {
	path string
	now  func() time.Time
}

// NewLogger creates a logger writing to path.
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Path returns the location of the event log.
func (l *Logger) Path() string {
	return l.path
}

// Log appends an event to the log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	event.Timestamp = event.Timestamp.UTC()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, app, details string) error {
	return l.Log(Event{
		Type:    eventType,
		App:     app,
		Details: details,
	})
}

// Events reads the events in the order they were written. When limit is
// positive only the last limit events are returned.
func (l *Logger) Events(limit int) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
		if limit > 0 && len(events) > limit {
			events = events[1:]
		}
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}
