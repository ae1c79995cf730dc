package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

const (
	smallMaxCriteria  = 2
	mediumMaxCriteria = 5
)

// requirementStatements returns the statements of a topic that every story
// must cover: live, meaningful transcript statements.
func requirementStatements(sm *models.StatementMap, topicID string) []models.Statement {
	var out []models.Statement
	for _, s := range sm.Statements {
		if s.TopicID == topicID && s.Meaningful && !s.Superseded && s.Source == models.SourceTranscript {
			out = append(out, s)
		}
	}
	return out
}

// Trace rebuilds the traceability matrix of a story and re-validates it
// against the topic's requirement statements. Validation failures are
// recorded on the story, never returned.
func Trace(st *models.Story, sm *models.StatementMap, topic *models.Topic) {
	st.Traceability = nil
	referenced := make(map[string]bool)
	st.Assumptions = nil
	for _, c := range st.Criteria {
		seen := make(map[string]bool)
		traceable := false
		for _, cl := range c.Clauses() {
			if cl.SourceType.Traceable() {
				traceable = true
			}
			if cl.Source == "" || seen[cl.Source] {
				continue
			}
			seen[cl.Source] = true
			st.Traceability = append(st.Traceability, models.TraceEntry{
				Criterion:  c.ID,
				Source:     cl.Source,
				SourceType: cl.SourceType,
			})
			if cl.SourceType == models.SourceTypeStatement {
				referenced[cl.Source] = true
			}
		}
		if !traceable {
			st.Assumptions = append(st.Assumptions, c.ID)
		}
	}

	reqs := requirementStatements(sm, st.TopicID)
	st.Uncovered = nil
	covered := 0
	for _, s := range reqs {
		if referenced[s.ID] {
			covered++
		} else {
			st.Uncovered = append(st.Uncovered, s.ID)
		}
	}
	st.Coverage = 100
	if len(reqs) > 0 {
		st.Coverage = round1(float64(covered) / float64(len(reqs)) * 100)
	}

	st.Warnings = nil
	if len(st.Uncovered) > 0 {
		st.Warnings = append(st.Warnings, fmt.Sprintf("coverage %.1f%%: uncovered requirement statements %s", st.Coverage, strings.Join(st.Uncovered, ", ")))
	}
	if len(st.Assumptions) > 0 {
		st.Warnings = append(st.Warnings, fmt.Sprintf("criteria %s have no traceable source and are assumptions", strings.Join(st.Assumptions, ", ")))
	}
	if topic != nil && topic.NeedsReview {
		st.Warnings = append(st.Warnings, fmt.Sprintf("topic %q was generated from orphan statements and needs review", topic.Title))
	}
	st.Valid = len(st.Uncovered) == 0 && len(st.Criteria) > 0
	st.Complexity = complexityFor(len(st.Criteria))
}

func complexityFor(criteria int) models.Complexity {
	switch {
	case criteria <= smallMaxCriteria:
		return models.ComplexitySmall
	case criteria <= mediumMaxCriteria:
		return models.ComplexityMedium
	default:
		return models.ComplexityLarge
	}
}

// PriorityFor maps story complexity to a ready-queue priority.
func PriorityFor(c models.Complexity) models.Priority {
	switch c {
	case models.ComplexityLarge:
		return models.P1
	case models.ComplexityMedium:
		return models.P2
	default:
		return models.P3
	}
}

// RenderCriterion formats a criterion as a single Given/When/Then line.
func RenderCriterion(c models.Criterion) string {
	return fmt.Sprintf("Given %s, when %s, then %s", c.Given.Text, c.When.Text, c.Then.Text)
}
