package observability

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestMetricsCalculator_Calculate(t *testing.T) {
	log, _ := openLog(t)

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	writeAll(t, log, []Event{
		{Time: base, Type: "session.created", Message: "created"},
		{Time: base.Add(time.Minute), Type: "phase.completed", Data: map[string]any{"phase": "extract"}},
		{Time: base.Add(2 * time.Minute), Type: "phase.completed", Data: map[string]any{"phase": "associate"}},
		{Time: base.Add(3 * time.Minute), Type: "question.answered", Data: map[string]any{"voice": true}},
		{Time: base.Add(4 * time.Minute), Type: "question.answered", Data: map[string]any{"voice": false}},
		{Time: base.Add(5 * time.Minute), Type: "story.decided", Data: map[string]any{"decision": "approve"}},
		{Time: base.Add(6 * time.Minute), Type: "story.decided", Data: map[string]any{"decision": "reject"}},
		{Time: base.Add(7 * time.Minute), Type: "story.decided", Data: map[string]any{"decision": "skip"}},
		{Time: base.Add(8 * time.Minute), Type: "session.finalized", Data: map[string]any{"tasks": 2}},
	})

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}

	oldest, newest := base, base.Add(8*time.Minute)
	want := &Metrics{
		SessionsCreated:   1,
		SessionsFinalized: 1,
		PhasesCompleted:   map[string]int{"extract": 1, "associate": 1},
		QuestionsAnswered: 2,
		VoiceAnswers:      1,
		StoriesApproved:   1,
		StoriesRejected:   1,
		StoriesSkipped:    1,
		TasksFinalized:    2,
		EventCount:        9,
		OldestEvent:       &oldest,
		NewestEvent:       &newest,
	}
	if diff := cmp.Diff(want, m, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricsCalculator_SinceExcludesOlderEvents(t *testing.T) {
	log, _ := openLog(t)
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	writeAll(t, log, []Event{
		{Time: base, Type: "session.created"},
		{Time: base.Add(48 * time.Hour), Type: "session.created"},
	})

	m, err := NewMetricsCalculator(log).Calculate(base.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.SessionsCreated != 1 || m.EventCount != 1 {
		t.Errorf("expected only the newer event, got sessions=%d events=%d", m.SessionsCreated, m.EventCount)
	}
}

func TestMetricsCalculator_EmptyLog(t *testing.T) {
	log, _ := openLog(t)
	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.EventCount != 0 || m.OldestEvent != nil || m.NewestEvent != nil {
		t.Errorf("expected empty metrics, got %+v", m)
	}
}
