package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// Decision is a reviewer's verdict on the presented story.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionSkip    Decision = "skip"
)

// ErrNoStoryPresented is returned by a decision with nothing presented.
var ErrNoStoryPresented = errors.New("no story is being presented: run 'sdg present' first")

// ReviewState is the approval queue after an operation.
type ReviewState struct {
	Current   *models.Story
	Remaining int
	Approved  int
	Rejected  int
	Skipped   int
	Done      bool
}

// Present selects the next story awaiting a decision: the first draft in
// queue order, else the first skipped story.
func (o *Orchestrator) Present(h Handle) (*ReviewState, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	if err := writable(st.session); err != nil {
		return nil, err
	}
	if err := require(st.session, "present", models.PhaseStories); err != nil {
		return nil, err
	}
	stories, queue, err := o.loadReview(st.session.ID)
	if err != nil {
		return nil, err
	}
	next := nextForReview(stories, queue)
	queue.Current = ""
	if next != nil {
		queue.Current = next.ID
		o.interact(st, models.InteractionStoryPresented, map[string]string{"story": next.ID})
	}
	if err := o.docs.SaveQueue(st.session.ID, queue); err != nil {
		return nil, err
	}
	if err := o.save(st); err != nil {
		return nil, err
	}
	return reviewState(stories, queue), nil
}

// Decide applies a decision to the presented story and presents the next
// one. Rejections need a reason.
func (o *Orchestrator) Decide(h Handle, d Decision, reason string) (*ReviewState, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	if err := writable(st.session); err != nil {
		return nil, err
	}
	if err := require(st.session, string(d), models.PhaseStories); err != nil {
		return nil, err
	}
	stories, queue, err := o.loadReview(st.session.ID)
	if err != nil {
		return nil, err
	}
	story := stories.Find(queue.Current)
	if queue.Current == "" || story == nil {
		return nil, ErrNoStoryPresented
	}

	switch d {
	case DecisionApprove:
		story.Status, story.RejectReason = models.StoryApproved, ""
	case DecisionReject:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			verr := &ValidationError{}
			verr.add("reason", "a rejection needs a reason")
			return nil, verr
		}
		story.Status, story.RejectReason = models.StoryRejected, reason
	case DecisionSkip:
		story.Status = models.StorySkipped
		queue.Order = append(removeID(queue.Order, story.ID), story.ID)
	default:
		return nil, fmt.Errorf("unknown decision %q", d)
	}
	o.interact(st, models.InteractionStoryDecided, map[string]string{"story": story.ID, "decision": string(d)})
	o.logEvent("story.decided", map[string]any{
		"session_id": st.session.ID,
		"story_id":   story.ID,
		"decision":   string(d),
	})

	queue.Current = ""
	if next := nextForReview(stories, queue); next != nil && next.ID != story.ID {
		queue.Current = next.ID
		o.interact(st, models.InteractionStoryPresented, map[string]string{"story": next.ID})
	}
	rs := reviewState(stories, queue)
	if rs.Done && !st.session.PhaseDone(models.PhaseReview) {
		o.completePhase(st, models.PhaseReview, fmt.Sprintf("%d approved, %d rejected", rs.Approved, rs.Rejected))
	}

	if err := o.docs.SaveStories(st.session.ID, stories); err != nil {
		return nil, err
	}
	if err := o.docs.SaveQueue(st.session.ID, queue); err != nil {
		return nil, err
	}
	if err := o.save(st); err != nil {
		return nil, err
	}
	return rs, nil
}

func (o *Orchestrator) loadReview(sessionID string) (*models.StorySet, *models.PresentationQueue, error) {
	stories, err := o.docs.LoadStories(sessionID)
	if err != nil {
		return nil, nil, err
	}
	queue, err := o.docs.LoadQueue(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if len(queue.Order) == 0 {
		for _, s := range stories.Stories {
			queue.Order = append(queue.Order, s.ID)
		}
	}
	return stories, queue, nil
}

func nextForReview(stories *models.StorySet, queue *models.PresentationQueue) *models.Story {
	for _, want := range []models.StoryStatus{models.StoryDraft, models.StorySkipped} {
		for _, id := range queue.Order {
			if s := stories.Find(id); s != nil && s.Status == want {
				return s
			}
		}
	}
	return nil
}

func reviewState(stories *models.StorySet, queue *models.PresentationQueue) *ReviewState {
	rs := &ReviewState{}
	for _, s := range stories.Stories {
		switch s.Status {
		case models.StoryApproved:
			rs.Approved++
		case models.StoryRejected:
			rs.Rejected++
		case models.StorySkipped:
			rs.Skipped++
			rs.Remaining++
		default:
			rs.Remaining++
		}
	}
	if s := stories.Find(queue.Current); s != nil {
		cp := *s
		rs.Current = &cp
	}
	rs.Done = rs.Remaining == 0
	return rs
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
