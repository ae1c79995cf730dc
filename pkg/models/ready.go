package models

// ReadyTask is a structured task record handed to the ready queue when an
// approved story is finalized.
type ReadyTask struct {
	ID                 string   `yaml:"id"`
	Title              string   `yaml:"title"`
	Priority           Priority `yaml:"priority"`
	Description        string   `yaml:"description"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria"`
	StoryID            string   `yaml:"story_id"`
	SessionID          string   `yaml:"session_id"`
	Created            string   `yaml:"created"`
	Tags               []string `yaml:"tags,omitempty"`
}
