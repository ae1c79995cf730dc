package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// CriterionInput is a manually written criterion.
type CriterionInput struct {
	Given string
	When  string
	Then  string
}

// ParseCriterion splits "given|when|then" text into a CriterionInput.
func ParseCriterion(s string) (CriterionInput, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return CriterionInput{}, fmt.Errorf("criterion %q must have the form given|when|then", s)
	}
	return CriterionInput{
		Given: strings.TrimSpace(parts[0]),
		When:  strings.TrimSpace(parts[1]),
		Then:  strings.TrimSpace(parts[2]),
	}, nil
}

// StoryEdit is a set of changes committed to a story in one step. Nil
// pointers leave the field unchanged.
type StoryEdit struct {
	Title          *string
	Role           *string
	Action         *string
	Benefit        *string
	AddCriteria    []CriterionInput
	RemoveCriteria []string
}

// ApplyEdit validates the edit against the story and commits it. The story
// is left untouched when validation fails.
func ApplyEdit(st *models.Story, edit StoryEdit, sm *models.StatementMap, topic *models.Topic) error {
	verr := &ValidationError{}
	checkText := func(field string, v *string) {
		if v != nil && strings.TrimSpace(*v) == "" {
			verr.add(field, "must not be empty")
		}
	}
	checkText("title", edit.Title)
	checkText("role", edit.Role)
	checkText("action", edit.Action)
	checkText("benefit", edit.Benefit)

	for i, c := range edit.AddCriteria {
		field := fmt.Sprintf("criteria[%d]", i)
		if c.Given == "" {
			verr.add(field+".given", "must not be empty")
		}
		if c.When == "" {
			verr.add(field+".when", "must not be empty")
		}
		if c.Then == "" {
			verr.add(field+".then", "must not be empty")
		}
	}

	remove := toSet(edit.RemoveCriteria...)
	for _, id := range edit.RemoveCriteria {
		if !hasCriterion(st, id) {
			verr.add("criteria", fmt.Sprintf("unknown criterion %s", id))
		}
	}
	remaining := 0
	for _, c := range st.Criteria {
		if !remove[c.ID] {
			remaining++
		}
	}
	if remaining+len(edit.AddCriteria) == 0 {
		verr.add("criteria", "a story needs at least one acceptance criterion")
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	if edit.Title != nil {
		st.Title = strings.TrimSpace(*edit.Title)
	}
	setPart := func(p *models.Part, v *string) {
		if v != nil {
			*p = models.Part{Text: strings.TrimSpace(*v), SourceType: models.SourceTypeManual}
		}
	}
	setPart(&st.Role, edit.Role)
	setPart(&st.Action, edit.Action)
	setPart(&st.Benefit, edit.Benefit)

	kept := st.Criteria[:0]
	ids := make([]string, 0, len(st.Criteria))
	for _, c := range st.Criteria {
		ids = append(ids, c.ID)
		if !remove[c.ID] {
			kept = append(kept, c)
		}
	}
	st.Criteria = kept
	next := nextSeq("AC", ids)
	for _, in := range edit.AddCriteria {
		manual := func(text string) models.Clause {
			return models.Clause{Text: text, SourceType: models.SourceTypeManual}
		}
		st.Criteria = append(st.Criteria, models.Criterion{
			ID:    criterionID(next),
			Given: manual(in.Given),
			When:  manual(in.When),
			Then:  manual(in.Then),
		})
		next++
	}
	Trace(st, sm, topic)
	return nil
}

func hasCriterion(st *models.Story, id string) bool {
	for _, c := range st.Criteria {
		if c.ID == id {
			return true
		}
	}
	return false
}
