package core

import "github.com/valter-silva-au/story-digest/pkg/models"

// DocumentStore is the per-session document persistence the orchestrator
// needs. Missing documents load as empty values, never as errors.
// This interface is defined locally in core to avoid importing storage.
type DocumentStore interface {
	LoadSource(sessionID string) (*models.SourceDocument, error)
	SaveSource(sessionID string, doc *models.SourceDocument) error
	LoadTopics(sessionID string) (*models.TopicSet, error)
	SaveTopics(sessionID string, doc *models.TopicSet) error
	LoadStatements(sessionID string) (*models.StatementMap, error)
	SaveStatements(sessionID string, doc *models.StatementMap) error
	LoadClarifications(sessionID string) (*models.ClarificationSet, error)
	SaveClarifications(sessionID string, doc *models.ClarificationSet) error
	LoadConversation(sessionID string) (*models.ConversationLog, error)
	SaveConversation(sessionID string, doc *models.ConversationLog) error
	LoadChunking(sessionID string) (*models.ChunkingState, error)
	SaveChunking(sessionID string, doc *models.ChunkingState) error
	LoadStories(sessionID string) (*models.StorySet, error)
	SaveStories(sessionID string, doc *models.StorySet) error
	LoadQueue(sessionID string) (*models.PresentationQueue, error)
	SaveQueue(sessionID string, doc *models.PresentationQueue) error
	DeleteSession(sessionID string) error
}

// SessionRegistry is the durable multi-session registry with its active
// pointer. This interface is defined locally in core to avoid importing
// storage.
type SessionRegistry interface {
	AddSession(session models.Session) error
	UpdateSession(session models.Session) error
	RemoveSession(id string) error
	GetSession(id string) (*models.Session, error)
	ListSessions(statuses ...models.SessionStatus) []models.Session
	ActiveID() (string, error)
	SetActive(id string) error
	ClearActive() error
	Load() error
	Save() error
}

// ReadyQueue is the subset of the ready-queue store that finalize needs.
type ReadyQueue interface {
	AddTask(task models.ReadyTask) error
	FindByStory(sessionID, storyID string) *models.ReadyTask
	Load() error
	Save() error
}

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
