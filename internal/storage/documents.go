package storage

import (
	"fmt"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"gopkg.in/yaml.v3"
)

// Document names stored under sessions/<id>/.
const (
	DocSource         = "source"
	DocTopics         = "topics"
	DocStatements     = "statements"
	DocClarifications = "clarifications"
	DocConversation   = "conversation"
	DocChunking       = "chunking"
	DocStories        = "stories"
	DocQueue          = "queue"
)

// SessionDocs lists every per-session document.
var SessionDocs = []string{
	DocSource, DocTopics, DocStatements, DocClarifications,
	DocConversation, DocChunking, DocStories, DocQueue,
}

type validator interface {
	Validate() error
}

// loadOrDefault decodes the document at key into a fresh T. A missing
// document yields the zero value; a present one is validated when T knows
// how to validate itself.
func loadOrDefault[T any](b Backend, key string) (*T, error) {
	out := new(T)
	data, err := b.Read(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return out, nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	if v, ok := any(out).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return out, nil
}

func save(b Backend, key string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if err := b.Write(key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// DocumentStore reads and writes the typed per-session documents.
type DocumentStore struct {
	backend Backend
}

// NewDocumentStore creates a DocumentStore over the given backend.
func NewDocumentStore(backend Backend) *DocumentStore {
	return &DocumentStore{backend: backend}
}

func docKey(sessionID, doc string) string {
	return "sessions/" + sessionID + "/" + doc
}

func (ds *DocumentStore) LoadSource(sessionID string) (*models.SourceDocument, error) {
	return loadOrDefault[models.SourceDocument](ds.backend, docKey(sessionID, DocSource))
}

func (ds *DocumentStore) SaveSource(sessionID string, doc *models.SourceDocument) error {
	return save(ds.backend, docKey(sessionID, DocSource), doc)
}

func (ds *DocumentStore) LoadTopics(sessionID string) (*models.TopicSet, error) {
	return loadOrDefault[models.TopicSet](ds.backend, docKey(sessionID, DocTopics))
}

func (ds *DocumentStore) SaveTopics(sessionID string, doc *models.TopicSet) error {
	return save(ds.backend, docKey(sessionID, DocTopics), doc)
}

func (ds *DocumentStore) LoadStatements(sessionID string) (*models.StatementMap, error) {
	return loadOrDefault[models.StatementMap](ds.backend, docKey(sessionID, DocStatements))
}

func (ds *DocumentStore) SaveStatements(sessionID string, doc *models.StatementMap) error {
	return save(ds.backend, docKey(sessionID, DocStatements), doc)
}

func (ds *DocumentStore) LoadClarifications(sessionID string) (*models.ClarificationSet, error) {
	return loadOrDefault[models.ClarificationSet](ds.backend, docKey(sessionID, DocClarifications))
}

func (ds *DocumentStore) SaveClarifications(sessionID string, doc *models.ClarificationSet) error {
	return save(ds.backend, docKey(sessionID, DocClarifications), doc)
}

func (ds *DocumentStore) LoadConversation(sessionID string) (*models.ConversationLog, error) {
	return loadOrDefault[models.ConversationLog](ds.backend, docKey(sessionID, DocConversation))
}

func (ds *DocumentStore) SaveConversation(sessionID string, doc *models.ConversationLog) error {
	return save(ds.backend, docKey(sessionID, DocConversation), doc)
}

func (ds *DocumentStore) LoadChunking(sessionID string) (*models.ChunkingState, error) {
	return loadOrDefault[models.ChunkingState](ds.backend, docKey(sessionID, DocChunking))
}

func (ds *DocumentStore) SaveChunking(sessionID string, doc *models.ChunkingState) error {
	return save(ds.backend, docKey(sessionID, DocChunking), doc)
}

func (ds *DocumentStore) LoadStories(sessionID string) (*models.StorySet, error) {
	return loadOrDefault[models.StorySet](ds.backend, docKey(sessionID, DocStories))
}

func (ds *DocumentStore) SaveStories(sessionID string, doc *models.StorySet) error {
	return save(ds.backend, docKey(sessionID, DocStories), doc)
}

func (ds *DocumentStore) LoadQueue(sessionID string) (*models.PresentationQueue, error) {
	return loadOrDefault[models.PresentationQueue](ds.backend, docKey(sessionID, DocQueue))
}

func (ds *DocumentStore) SaveQueue(sessionID string, doc *models.PresentationQueue) error {
	return save(ds.backend, docKey(sessionID, DocQueue), doc)
}

// DeleteDocument removes a single per-session document.
func (ds *DocumentStore) DeleteDocument(sessionID, doc string) error {
	return ds.backend.Delete(docKey(sessionID, doc))
}

// DeleteSession removes every document of the session.
func (ds *DocumentStore) DeleteSession(sessionID string) error {
	return ds.backend.Delete("sessions/" + sessionID)
}
