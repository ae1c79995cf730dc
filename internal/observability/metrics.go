package observability

import (
	"fmt"
	"time"
)

// Metrics aggregates digest activity from the event log.
type Metrics struct {
	SessionsCreated   int            `json:"sessions_created"`
	SessionsFinalized int            `json:"sessions_finalized"`
	PhasesCompleted   map[string]int `json:"phases_completed"`
	QuestionsAnswered int            `json:"questions_answered"`
	VoiceAnswers      int            `json:"voice_answers"`
	StoriesApproved   int            `json:"stories_approved"`
	StoriesRejected   int            `json:"stories_rejected"`
	StoriesSkipped    int            `json:"stories_skipped"`
	TasksFinalized    int            `json:"tasks_finalized"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{PhasesCompleted: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "session.created":
			m.SessionsCreated++
		case "phase.completed":
			if phase, ok := event.Data["phase"].(string); ok {
				m.PhasesCompleted[phase]++
			}
		case "question.answered":
			m.QuestionsAnswered++
			if voice, ok := event.Data["voice"].(bool); ok && voice {
				m.VoiceAnswers++
			}
		case "story.decided":
			switch event.Data["decision"] {
			case "approve":
				m.StoriesApproved++
			case "reject":
				m.StoriesRejected++
			case "skip":
				m.StoriesSkipped++
			}
		case "session.finalized":
			m.SessionsFinalized++
			// JSON numbers decode as float64.
			if n, ok := event.Data["tasks"].(float64); ok {
				m.TasksFinalized += int(n)
			}
		}
	}
	return m, nil
}
