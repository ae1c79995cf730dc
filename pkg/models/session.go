package models

import "time"

// SessionStatus represents the lifecycle state of a digest session.
type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionArchived   SessionStatus = "archived"
)

// Phase identifies one step of the digestion pipeline.
type Phase string

const (
	PhaseIngest         Phase = "ingest"
	PhaseExtract        Phase = "extract"
	PhaseAssociate      Phase = "associate"
	PhaseOrphans        Phase = "orphans"
	PhaseContradictions Phase = "contradictions"
	PhaseClarify        Phase = "clarify"
	PhaseStories        Phase = "stories"
	PhaseReview         Phase = "review"
	PhaseFinalize       Phase = "finalize"
)

// PhaseOrder lists the pipeline phases in execution order.
var PhaseOrder = []Phase{
	PhaseIngest,
	PhaseExtract,
	PhaseAssociate,
	PhaseOrphans,
	PhaseContradictions,
	PhaseClarify,
	PhaseStories,
	PhaseReview,
	PhaseFinalize,
}

// PhaseIndex returns the position of p in PhaseOrder, or -1.
func PhaseIndex(p Phase) int {
	for i, ph := range PhaseOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// PhaseStatus is the completion state of a single phase.
type PhaseStatus string

const (
	PhasePending   PhaseStatus = "pending"
	PhaseCompleted PhaseStatus = "completed"
	PhaseFailed    PhaseStatus = "failed"
)

// PhaseRecord tracks the status of one phase within a session.
type PhaseRecord struct {
	Status      PhaseStatus `yaml:"status"`
	CompletedAt *time.Time  `yaml:"completed_at,omitempty"`
	Note        string      `yaml:"note,omitempty"`
}

// InputMetadata describes the transcript a session was created from.
type InputMetadata struct {
	Path               string  `yaml:"path"`
	Format             string  `yaml:"format"`
	SourceType         string  `yaml:"source_type"`
	Language           string  `yaml:"language"`
	LanguageConfidence float64 `yaml:"language_confidence"`
	WordCount          int     `yaml:"word_count"`
	TokenCount         int     `yaml:"token_count"`
	CharCount          int     `yaml:"char_count"`
	Chunked            bool    `yaml:"chunked"`
	ChunkCount         int     `yaml:"chunk_count,omitempty"`
	Digest             string  `yaml:"digest,omitempty"`
}

// Session is one digestion run over a single transcript. The statement map,
// topic set, clarification set and stories it owns are stored as separate
// documents keyed by the session ID.
type Session struct {
	ID               string                `yaml:"id"`
	Title            string                `yaml:"title"`
	Status           SessionStatus         `yaml:"status"`
	CurrentPhase     Phase                 `yaml:"current_phase"`
	Phases           map[Phase]PhaseRecord `yaml:"phases"`
	Input            InputMetadata         `yaml:"input"`
	AwaitingResponse bool                  `yaml:"awaiting_response,omitempty"`
	LastInteraction  InteractionType       `yaml:"last_interaction,omitempty"`
	Created          time.Time             `yaml:"created"`
	Updated          time.Time             `yaml:"updated"`
}

// PhaseDone reports whether the given phase has completed.
func (s *Session) PhaseDone(p Phase) bool {
	if s == nil || s.Phases == nil {
		return false
	}
	return s.Phases[p].Status == PhaseCompleted
}

// SessionRegistry is the durable index of every digest session.
type SessionRegistry struct {
	Version  string    `yaml:"version"`
	Sessions []Session `yaml:"sessions"`
}

// ActivePointer names the session that phase commands operate on by default.
type ActivePointer struct {
	SessionID string    `yaml:"session_id"`
	Since     time.Time `yaml:"since"`
}
