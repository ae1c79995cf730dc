package core

import (
	"fmt"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// resettable lists the phases whose outputs can be discarded.
var resettable = map[models.Phase]bool{
	models.PhaseAssociate:      true,
	models.PhaseOrphans:        true,
	models.PhaseContradictions: true,
	models.PhaseClarify:        true,
	models.PhaseStories:        true,
	models.PhaseReview:         true,
}

// Reset discards the outputs of phase and every later phase. Earlier
// passes are replayed from the pass-1 state so the remaining documents are
// exactly what those passes produce.
func (o *Orchestrator) Reset(h Handle, phase models.Phase) error {
	if !resettable[phase] {
		return fmt.Errorf("phase %q cannot be reset: choose one of associate, orphans, contradictions, clarify, stories, review", phase)
	}
	st, err := o.load(h)
	if err != nil {
		return err
	}
	if err := writable(st.session); err != nil {
		return err
	}
	idx := models.PhaseIndex(phase)

	switch phase {
	case models.PhaseReview:
		stories, queue, err := o.loadReview(st.session.ID)
		if err != nil {
			return err
		}
		queue.Order = queue.Order[:0]
		for i := range stories.Stories {
			stories.Stories[i].Status = models.StoryDraft
			stories.Stories[i].RejectReason = ""
			queue.Order = append(queue.Order, stories.Stories[i].ID)
		}
		queue.Current = ""
		if err := o.docs.SaveStories(st.session.ID, stories); err != nil {
			return err
		}
		if err := o.docs.SaveQueue(st.session.ID, queue); err != nil {
			return err
		}
	case models.PhaseStories:
		if err := o.clearStories(st.session.ID); err != nil {
			return err
		}
	default:
		stripToExtraction(st)
		st.clarifications = &models.ClarificationSet{Locale: o.clarifier.Locale()}
		if idx > models.PhaseIndex(models.PhaseAssociate) {
			o.runAssociate(st)
		}
		if idx > models.PhaseIndex(models.PhaseOrphans) {
			o.orphans.Resolve(st.topics, st.statements)
		}
		if idx > models.PhaseIndex(models.PhaseContradictions) {
			o.runContradictions(st)
		}
		if err := o.clearStories(st.session.ID); err != nil {
			return err
		}
	}

	for _, p := range models.PhaseOrder[idx:] {
		st.session.Phases[p] = models.PhaseRecord{Status: models.PhasePending}
	}
	st.session.CurrentPhase = models.PhaseOrder[idx-1]
	st.session.AwaitingResponse = false
	if err := o.save(st); err != nil {
		return fmt.Errorf("saving reset session: %w", err)
	}
	o.logEvent("phase.reset", map[string]any{"session_id": st.session.ID, "phase": string(phase)})
	return nil
}

func (o *Orchestrator) clearStories(sessionID string) error {
	if err := o.docs.SaveStories(sessionID, &models.StorySet{}); err != nil {
		return err
	}
	return o.docs.SaveQueue(sessionID, &models.PresentationQueue{})
}

// stripToExtraction returns the topics and statements to their pass-1
// shape: transcript statements without assignments or links, extraction
// topics only, and the pass-1 coverage entry.
func stripToExtraction(st *state) {
	var statements []models.Statement
	for _, s := range st.statements.Statements {
		if s.Source != models.SourceTranscript {
			continue
		}
		s.TopicID, s.Confidence, s.MatchMethod = "", 0, ""
		s.OrphanStatus, s.Candidates = "", nil
		s.Superseded, s.SupersededBy, s.Supersedes = false, "", ""
		statements = append(statements, s)
	}
	var history []models.CoverageSnapshot
	for _, c := range st.statements.CoverageHistory {
		if c.Pass == "pass1" {
			history = append(history, c)
		}
	}
	st.statements = &models.StatementMap{Statements: statements, CoverageHistory: history}

	var topics []models.Topic
	for _, t := range st.topics.Topics {
		if t.Source == models.TopicFromExtraction {
			topics = append(topics, t)
		}
	}
	st.topics = &models.TopicSet{Topics: topics}
}
