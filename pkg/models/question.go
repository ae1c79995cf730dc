package models

import "time"

// QuestionType classifies clarification questions.
type QuestionType string

const (
	QuestionCompleteness  QuestionType = "completeness"
	QuestionSpecificity   QuestionType = "specificity"
	QuestionFollowup      QuestionType = "followup"
	QuestionContradiction QuestionType = "contradiction"
	QuestionAmbiguity     QuestionType = "ambiguity"
)

// Priority represents the urgency of a question or a ready-queue task.
type Priority string

const (
	P0 Priority = "P0"
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
)

// QuestionStatus is the answer state of a clarification question.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionAnswered QuestionStatus = "answered"
)

// Question is a system-generated request for a missing or vague detail.
// Every answered question produces exactly one derived statement.
type Question struct {
	ID                 string         `yaml:"id"`
	Type               QuestionType   `yaml:"type"`
	TopicID            string         `yaml:"topic_id"`
	StatementID        string         `yaml:"statement_id,omitempty"`
	EntityType         string         `yaml:"entity_type,omitempty"`
	Detail             string         `yaml:"detail,omitempty"`
	Priority           Priority       `yaml:"priority"`
	Status             QuestionStatus `yaml:"status"`
	Text               string         `yaml:"text"`
	Options            []string       `yaml:"options,omitempty"`
	Answer             string         `yaml:"answer,omitempty"`
	AnswerConfidence   float64        `yaml:"answer_confidence,omitempty"`
	AnsweredAt         *time.Time     `yaml:"answered_at,omitempty"`
	DerivedStatementID string         `yaml:"derived_statement_id,omitempty"`
	ContradictionID    string         `yaml:"contradiction_id,omitempty"`
	Trigger            string         `yaml:"trigger,omitempty"`
	ParentID           string         `yaml:"parent_id,omitempty"`
	Presented          bool           `yaml:"presented,omitempty"`
}

// ClarificationSet is the persisted clarifications document for a session.
type ClarificationSet struct {
	Locale    string     `yaml:"locale"`
	Questions []Question `yaml:"questions"`
}

// Find returns a pointer to the question with the given ID, or nil.
func (cs *ClarificationSet) Find(id string) *Question {
	for i := range cs.Questions {
		if cs.Questions[i].ID == id {
			return &cs.Questions[i]
		}
	}
	return nil
}

// Pending returns unanswered questions ordered by priority, then creation.
func (cs *ClarificationSet) Pending() []Question {
	var out []Question
	for _, p := range []Priority{P0, P1, P2, P3} {
		for _, q := range cs.Questions {
			if q.Status == QuestionPending && q.Priority == p {
				out = append(out, q)
			}
		}
	}
	return out
}

// Answered returns the answered questions in creation order.
func (cs *ClarificationSet) Answered() []Question {
	var out []Question
	for _, q := range cs.Questions {
		if q.Status == QuestionAnswered {
			out = append(out, q)
		}
	}
	return out
}
