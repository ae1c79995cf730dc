package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// FinalizeResult lists what finalize handed to the ready queue.
type FinalizeResult struct {
	Tasks      []models.ReadyTask
	Duplicates []string
	Unresolved []string
}

// Finalize hands approved stories to the ready queue and completes the
// session. Stories still awaiting a decision block it unless force is set.
func (o *Orchestrator) Finalize(h Handle, force bool) (*FinalizeResult, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	if err := writable(st.session); err != nil {
		return nil, err
	}
	if err := require(st.session, "finalize", models.PhaseStories); err != nil {
		return nil, err
	}
	stories, err := o.docs.LoadStories(st.session.ID)
	if err != nil {
		return nil, err
	}

	res := &FinalizeResult{}
	for _, s := range stories.Stories {
		if s.Status == models.StoryDraft || s.Status == models.StorySkipped {
			res.Unresolved = append(res.Unresolved, s.ID)
		}
	}
	if len(res.Unresolved) > 0 && !force {
		return nil, &OverrideRequiredError{
			Action: "finalize",
			Reason: fmt.Sprintf("stories %s are still awaiting a decision", strings.Join(res.Unresolved, ", ")),
		}
	}

	if err := o.ready.Load(); err != nil {
		return nil, fmt.Errorf("finalize: loading ready queue: %w", err)
	}
	for _, s := range stories.Stories {
		if s.Status != models.StoryApproved {
			continue
		}
		if o.ready.FindByStory(st.session.ID, s.ID) != nil {
			res.Duplicates = append(res.Duplicates, s.ID)
			continue
		}
		id, err := o.readyIDs.Next()
		if err != nil {
			return nil, fmt.Errorf("finalize: %w", err)
		}
		task := ReadyTaskFor(s, st.session.ID)
		task.ID = id
		task.Created = o.now().Format("2006-01-02T15:04:05Z07:00")
		if err := o.ready.AddTask(task); err != nil {
			return nil, fmt.Errorf("finalize: %w", err)
		}
		res.Tasks = append(res.Tasks, task)
	}
	if err := o.ready.Save(); err != nil {
		return nil, fmt.Errorf("finalize: saving ready queue: %w", err)
	}

	if !st.session.PhaseDone(models.PhaseReview) {
		o.completePhase(st, models.PhaseReview, "closed by finalize")
	}
	o.interact(st, models.InteractionFinalized, map[string]string{"tasks": fmt.Sprint(len(res.Tasks))})
	o.completePhase(st, models.PhaseFinalize, fmt.Sprintf("%d tasks", len(res.Tasks)))
	st.session.Status = models.SessionCompleted
	st.session.AwaitingResponse = false
	if active, _ := o.registry.ActiveID(); active == st.session.ID {
		if err := o.registry.ClearActive(); err != nil {
			return nil, err
		}
	}
	if err := o.save(st); err != nil {
		return nil, err
	}
	o.logEvent("session.finalized", map[string]any{
		"session_id": st.session.ID,
		"tasks":      len(res.Tasks),
		"forced":     force && len(res.Unresolved) > 0,
	})
	return res, nil
}

// ReadyTaskFor converts an approved story into a ready-queue task.
func ReadyTaskFor(s models.Story, sessionID string) models.ReadyTask {
	criteria := make([]string, 0, len(s.Criteria))
	for _, c := range s.Criteria {
		criteria = append(criteria, RenderCriterion(c))
	}
	return models.ReadyTask{
		Title:              s.Title,
		Priority:           PriorityFor(s.Complexity),
		Description:        StorySentence(s),
		AcceptanceCriteria: criteria,
		StoryID:            s.ID,
		SessionID:          sessionID,
		Tags:               []string{"story-digest", sessionID},
	}
}

// StorySentence renders the "As a ..., I want ..., so that ..." line.
func StorySentence(s models.Story) string {
	return fmt.Sprintf("As a %s, I want %s, so that %s.", s.Role.Text, s.Action.Text, s.Benefit.Text)
}
