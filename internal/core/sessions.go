package core

import (
	"fmt"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// ListSessions returns registered sessions, optionally filtered by status.
func (o *Orchestrator) ListSessions(statuses ...models.SessionStatus) ([]models.Session, error) {
	if err := o.registry.Load(); err != nil {
		return nil, fmt.Errorf("loading session registry: %w", err)
	}
	return o.registry.ListSessions(statuses...), nil
}

// ActiveSessionID returns the active session ID, or "".
func (o *Orchestrator) ActiveSessionID() (string, error) {
	if err := o.registry.Load(); err != nil {
		return "", fmt.Errorf("loading session registry: %w", err)
	}
	return o.registry.ActiveID()
}

// Switch makes id the active session and demotes the previous one to
// in_progress.
func (o *Orchestrator) Switch(id string) (*models.Session, error) {
	if err := o.registry.Load(); err != nil {
		return nil, fmt.Errorf("loading session registry: %w", err)
	}
	target, err := o.registry.GetSession(id)
	if err != nil {
		return nil, err
	}
	if target.Status == models.SessionCompleted {
		return nil, fmt.Errorf("session %s is completed and cannot be made active", id)
	}
	prev, err := o.registry.ActiveID()
	if err != nil {
		return nil, err
	}
	if prev != "" && prev != id {
		if p, err := o.registry.GetSession(prev); err == nil && p.Status == models.SessionActive {
			p.Status = models.SessionInProgress
			if err := o.registry.UpdateSession(*p); err != nil {
				return nil, err
			}
		}
	}
	target.Status = models.SessionActive
	target.Updated = o.now()
	if err := o.registry.UpdateSession(*target); err != nil {
		return nil, err
	}
	if err := o.registry.SetActive(id); err != nil {
		return nil, err
	}
	if err := o.registry.Save(); err != nil {
		return nil, fmt.Errorf("saving session registry: %w", err)
	}
	o.logEvent("session.switched", map[string]any{"session_id": id, "previous": prev})
	return target, nil
}

// Archive marks a session archived and clears the active pointer if it
// named it.
func (o *Orchestrator) Archive(id string) error {
	if err := o.registry.Load(); err != nil {
		return fmt.Errorf("loading session registry: %w", err)
	}
	sess, err := o.registry.GetSession(id)
	if err != nil {
		return err
	}
	sess.Status = models.SessionArchived
	sess.Updated = o.now()
	if err := o.registry.UpdateSession(*sess); err != nil {
		return err
	}
	if active, _ := o.registry.ActiveID(); active == id {
		if err := o.registry.ClearActive(); err != nil {
			return err
		}
	}
	if err := o.registry.Save(); err != nil {
		return fmt.Errorf("saving session registry: %w", err)
	}
	o.logEvent("session.archived", map[string]any{"session_id": id})
	return nil
}

// Delete removes a session and all of its documents. It is irreversible
// and requires force.
func (o *Orchestrator) Delete(id string, force bool) error {
	if err := o.registry.Load(); err != nil {
		return fmt.Errorf("loading session registry: %w", err)
	}
	if _, err := o.registry.GetSession(id); err != nil {
		return err
	}
	if !force {
		return &OverrideRequiredError{Action: "delete", Reason: fmt.Sprintf("deleting session %s removes all of its documents", id)}
	}
	if err := o.docs.DeleteSession(id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if err := o.registry.RemoveSession(id); err != nil {
		return err
	}
	if active, _ := o.registry.ActiveID(); active == id {
		if err := o.registry.ClearActive(); err != nil {
			return err
		}
	}
	if err := o.registry.Save(); err != nil {
		return fmt.Errorf("saving session registry: %w", err)
	}
	o.logEvent("session.deleted", map[string]any{"session_id": id})
	return nil
}
