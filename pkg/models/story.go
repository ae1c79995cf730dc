package models

// SourceType tags where a story clause came from.
type SourceType string

const (
	SourceTypeStatement     SourceType = "statement"
	SourceTypeClarification SourceType = "clarification"
	SourceTypeManual        SourceType = "manual"
	SourceTypeContext       SourceType = "context"
	SourceTypeInferred      SourceType = "inferred"
)

// Traceable reports whether the source type points back at the transcript
// or an answered question.
func (t SourceType) Traceable() bool {
	return t == SourceTypeStatement || t == SourceTypeClarification
}

// StoryStatus is the review state of a generated story.
type StoryStatus string

const (
	StoryDraft    StoryStatus = "draft"
	StoryApproved StoryStatus = "approved"
	StoryRejected StoryStatus = "rejected"
	StorySkipped  StoryStatus = "skipped"
)

// Complexity is a coarse size estimate used to map stories to priorities.
type Complexity string

const (
	ComplexitySmall  Complexity = "S"
	ComplexityMedium Complexity = "M"
	ComplexityLarge  Complexity = "L"
)

// Part is one element of the user-story triple together with its origin.
type Part struct {
	Text       string     `yaml:"text"`
	Source     string     `yaml:"source"`
	SourceType SourceType `yaml:"source_type"`
}

// Clause is a single Given, When or Then line.
type Clause struct {
	Text       string     `yaml:"text"`
	Source     string     `yaml:"source"`
	SourceType SourceType `yaml:"source_type"`
}

// Criterion is one Given/When/Then acceptance criterion.
type Criterion struct {
	ID    string `yaml:"id"`
	Given Clause `yaml:"given"`
	When  Clause `yaml:"when"`
	Then  Clause `yaml:"then"`
}

// Clauses returns the three clauses in Given, When, Then order.
func (c Criterion) Clauses() []Clause {
	return []Clause{c.Given, c.When, c.Then}
}

// TraceEntry maps one criterion to one of its sources.
type TraceEntry struct {
	Criterion  string     `yaml:"criterion"`
	Source     string     `yaml:"source"`
	SourceType SourceType `yaml:"source_type"`
}

// Story is a user story generated from one topic.
type Story struct {
	ID           string       `yaml:"id"`
	TopicID      string       `yaml:"topic_id"`
	Title        string       `yaml:"title"`
	Role         Part         `yaml:"role"`
	Action       Part         `yaml:"action"`
	Benefit      Part         `yaml:"benefit"`
	Criteria     []Criterion  `yaml:"criteria"`
	Traceability []TraceEntry `yaml:"traceability"`
	Coverage     float64      `yaml:"coverage"`
	Uncovered    []string     `yaml:"uncovered,omitempty"`
	Assumptions  []string     `yaml:"assumptions,omitempty"`
	Warnings     []string     `yaml:"warnings,omitempty"`
	Valid        bool         `yaml:"valid"`
	Complexity   Complexity   `yaml:"complexity"`
	Status       StoryStatus  `yaml:"status"`
	RejectReason string       `yaml:"reject_reason,omitempty"`
}

// StorySet is the persisted stories document for a session.
type StorySet struct {
	Stories []Story `yaml:"stories"`
}

// Find returns a pointer to the story with the given ID, or nil.
func (ss *StorySet) Find(id string) *Story {
	for i := range ss.Stories {
		if ss.Stories[i].ID == id {
			return &ss.Stories[i]
		}
	}
	return nil
}

// PresentationQueue orders stories for the approval loop.
type PresentationQueue struct {
	Order   []string `yaml:"order"`
	Current string   `yaml:"current,omitempty"`
}
