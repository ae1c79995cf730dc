package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

const (
	registryKey = "sessions/registry"
	activeKey   = "sessions/active"
)

// SessionRegistry defines the interface for the durable multi-session
// registry and the active-session pointer.
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

type backendRegistry struct {
	backend Backend
	data    models.SessionRegistry
}

// NewSessionRegistry creates a SessionRegistry persisted through backend.
func NewSessionRegistry(backend Backend) SessionRegistry {
	return &backendRegistry{
		backend: backend,
		data:    models.SessionRegistry{Version: "1.0"},
	}
}

func (r *backendRegistry) AddSession(session models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("adding session: ID must not be empty")
	}
	for _, existing := range r.data.Sessions {
		if existing.ID == session.ID {
			return fmt.Errorf("adding session: %s already exists", session.ID)
		}
	}
	r.data.Sessions = append(r.data.Sessions, session)
	return nil
}

func (r *backendRegistry) UpdateSession(session models.Session) error {
	for i := range r.data.Sessions {
		if r.data.Sessions[i].ID == session.ID {
			r.data.Sessions[i] = session
			return nil
		}
	}
	return fmt.Errorf("updating session: %s not found", session.ID)
}

func (r *backendRegistry) RemoveSession(id string) error {
	for i := range r.data.Sessions {
		if r.data.Sessions[i].ID == id {
			r.data.Sessions = append(r.data.Sessions[:i], r.data.Sessions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("removing session: %s not found", id)
}

func (r *backendRegistry) GetSession(id string) (*models.Session, error) {
	for _, s := range r.data.Sessions {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

// ListSessions returns sessions ordered by ID, optionally restricted to the
// given statuses.
func (r *backendRegistry) ListSessions(statuses ...models.SessionStatus) []models.Session {
	var out []models.Session
	for _, s := range r.data.Sessions {
		if len(statuses) > 0 && !containsSessionStatus(statuses, s.Status) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func containsSessionStatus(haystack []models.SessionStatus, needle models.SessionStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// ActiveID returns the active session id, or "" when none is set.
func (r *backendRegistry) ActiveID() (string, error) {
	ptr, err := loadOrDefault[models.ActivePointer](r.backend, activeKey)
	if err != nil {
		return "", fmt.Errorf("loading active session pointer: %w", err)
	}
	return ptr.SessionID, nil
}

func (r *backendRegistry) SetActive(id string) error {
	ptr := models.ActivePointer{SessionID: id, Since: time.Now().UTC()}
	return save(r.backend, activeKey, &ptr)
}

func (r *backendRegistry) ClearActive() error {
	return r.backend.Delete(activeKey)
}

// Load reads the registry. A missing registry is treated as empty.
func (r *backendRegistry) Load() error {
	reg, err := loadOrDefault[models.SessionRegistry](r.backend, registryKey)
	if err != nil {
		return fmt.Errorf("loading session registry: %w", err)
	}
	if reg.Version == "" {
		reg.Version = "1.0"
	}
	r.data = *reg
	return nil
}

func (r *backendRegistry) Save() error {
	if err := save(r.backend, registryKey, &r.data); err != nil {
		return fmt.Errorf("saving session registry: %w", err)
	}
	return nil
}
