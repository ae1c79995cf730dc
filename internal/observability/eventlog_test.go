package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func writeAll(t *testing.T, log EventLog, events []Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log, _ := openLog(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	writeAll(t, log, []Event{
		{Time: now, Level: "INFO", Type: "session.created", Session: "SESS-00001", Message: "session created",
			Data: map[string]any{"format": "subtitle_vtt"}},
		{Time: now.Add(time.Second), Level: "WARN", Type: "phase.completed", Session: "SESS-00001", Message: "pass2",
			Data: map[string]any{"phase": "associate"}},
	})

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Type != "session.created" {
		t.Errorf("expected type session.created, got %s", result[0].Type)
	}
	if result[0].Data["format"] != "subtitle_vtt" {
		t.Errorf("expected format data to round-trip, got %v", result[0].Data["format"])
	}
	if result[1].Level != "WARN" {
		t.Errorf("expected level WARN, got %s", result[1].Level)
	}
}

func TestEventLog_DefaultsTimeAndLevel(t *testing.T) {
	log, _ := openLog(t)
	writeAll(t, log, []Event{{Type: "question.answered", Message: "answered"}})

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result))
	}
	if result[0].Level != "INFO" {
		t.Errorf("expected default level INFO, got %q", result[0].Level)
	}
	if result[0].Time.IsZero() {
		t.Error("expected write to stamp the event time")
	}
}

func TestEventLog_Filters(t *testing.T) {
	log, _ := openLog(t)
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	writeAll(t, log, []Event{
		{Time: base, Level: "INFO", Type: "session.created", Session: "SESS-00001", Message: "first"},
		{Time: base.Add(time.Hour), Level: "INFO", Type: "phase.completed", Session: "SESS-00001", Message: "second"},
		{Time: base.Add(2 * time.Hour), Level: "WARN", Type: "phase.completed", Session: "SESS-00002", Message: "third"},
		{Time: base.Add(3 * time.Hour), Level: "INFO", Type: "session.created", Session: "SESS-00002", Message: "fourth"},
	})

	since := base.Add(30 * time.Minute)
	until := base.Add(2*time.Hour + 30*time.Minute)
	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"type", EventFilter{Type: "session.created"}, []string{"first", "fourth"}},
		{"level", EventFilter{Level: "WARN"}, []string{"third"}},
		{"session", EventFilter{Session: "SESS-00001"}, []string{"first", "second"}},
		{"time range", EventFilter{Since: &since, Until: &until}, []string{"second", "third"}},
		{"limit keeps newest", EventFilter{Limit: 2}, []string{"third", "fourth"}},
		{"combined", EventFilter{Type: "phase.completed", Session: "SESS-00002"}, []string{"third"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := log.Read(tt.filter)
			if err != nil {
				t.Fatalf("reading events: %v", err)
			}
			if len(result) != len(tt.want) {
				t.Fatalf("expected %d events, got %d", len(tt.want), len(result))
			}
			for i, e := range result {
				if e.Message != tt.want[i] {
					t.Errorf("event %d: expected %q, got %q", i, tt.want[i], e.Message)
				}
			}
		})
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := openLog(t)
	writeAll(t, log, []Event{{Type: "session.created", Message: "ok"}})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	_, _ = f.WriteString("{not json\n\n")
	_ = f.Close()
	writeAll(t, log, []Event{{Type: "session.finalized", Message: "ok"}})

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected malformed line to be skipped, got %d events", len(result))
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	log, _ := openLog(t)
	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected 0 events from empty log, got %d", len(result))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log, _ := openLog(t)

	const goroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < eventsPerGoroutine; i++ {
				event := Event{
					Type:    "question.answered",
					Message: "concurrent event",
					Data:    map[string]any{"goroutine": id, "index": i},
				}
				if err := log.Write(event); err != nil {
					t.Errorf("concurrent write error: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events after concurrent writes: %v", err)
	}
	if want := goroutines * eventsPerGoroutine; len(result) != want {
		t.Errorf("expected %d events, got %d", want, len(result))
	}
}
