package models

import "time"

// InteractionType labels entries in the conversation/checkpoint log.
type InteractionType string

const (
	InteractionSessionCreated     InteractionType = "session_created"
	InteractionPhaseCompleted     InteractionType = "phase_completed"
	InteractionQuestionsPresented InteractionType = "questions_presented"
	InteractionAnswerReceived     InteractionType = "answer_received"
	InteractionStoryPresented     InteractionType = "story_presented"
	InteractionStoryDecided       InteractionType = "story_decided"
	InteractionFinalized          InteractionType = "finalized"
)

// Interaction is one checkpoint in a session's conversation log.
type Interaction struct {
	ID   string            `yaml:"id"`
	Type InteractionType   `yaml:"type"`
	Time time.Time         `yaml:"time"`
	Data map[string]string `yaml:"data,omitempty"`
}

// ConversationLog is the persisted conversation/checkpoint document.
type ConversationLog struct {
	Entries []Interaction `yaml:"entries"`
}

// Last returns the most recent interaction, or nil when the log is empty.
func (l *ConversationLog) Last() *Interaction {
	if len(l.Entries) == 0 {
		return nil
	}
	return &l.Entries[len(l.Entries)-1]
}
