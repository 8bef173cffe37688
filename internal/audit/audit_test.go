package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	return NewLogger(filepath.Join(t.TempDir(), "projects", "abc.events.jsonl"))
}

func TestLogger_LogAndEvents(t *testing.T) {
	logger := newTestLogger(t)

	now := time.Now().Truncate(time.Millisecond)

	events := []Event{
		{Timestamp: now, Type: EventSelect, Details: "org.example.App.json"},
		{Timestamp: now.Add(time.Second), Type: EventBuild, App: "org.example.App"},
		{Timestamp: now.Add(2 * time.Second), Type: EventRun, App: "org.example.App", Details: "pid=4242"},
		{Timestamp: now.Add(3 * time.Second), Type: EventStop, App: "org.example.App"},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := logger.Events(0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.App != events[i].App {
			t.Errorf("event %d: app = %q, want %q", i, e.App, events[i].App)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
		if !e.Timestamp.Equal(events[i].Timestamp) {
			t.Errorf("event %d: timestamp = %v, want %v", i, e.Timestamp, events[i].Timestamp)
		}
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	logger := newTestLogger(t)

	result, err := logger.Events(0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_LogEvent(t *testing.T) {
	logger := newTestLogger(t)

	if err := logger.LogEvent(EventExport, "org.example.App", "/proj/org.example.App.flatpak"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := logger.Events(0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventExport {
		t.Errorf("type = %q, want %q", e.Type, EventExport)
	}
	if e.App != "org.example.App" {
		t.Errorf("app = %q, want %q", e.App, "org.example.App")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
}

func TestLogger_EventsLimit(t *testing.T) {
	logger := newTestLogger(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		if err := logger.Log(Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Type:      EventBuild,
			Details:   string(rune('A' + i)),
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := logger.Events(2)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Details != "D" || events[1].Details != "E" {
		t.Errorf("got %q, %q; want the last two events", events[0].Details, events[1].Details)
	}
}

func TestLogger_SkipsMalformedLines(t *testing.T) {
	logger := newTestLogger(t)

	if err := logger.LogEvent(EventClean, "", ""); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	f, err := os.OpenFile(logger.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n\n")
	f.Close()
	if err := logger.LogEvent(EventBuild, "", ""); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := logger.Events(0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}
