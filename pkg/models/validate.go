package models

import "fmt"

// Validate checks that topic ids are present and unique.
func (ts *TopicSet) Validate() error {
	seen := make(map[string]bool, len(ts.Topics))
	for i, t := range ts.Topics {
		if t.ID == "" {
			return fmt.Errorf("topics[%d]: id must not be empty", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("topics[%d]: duplicate id %s", i, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// Validate checks statement ids and the rule that filler statements never
// carry a topic.
func (sm *StatementMap) Validate() error {
	seen := make(map[string]bool, len(sm.Statements))
	for i, s := range sm.Statements {
		if s.ID == "" {
			return fmt.Errorf("statements[%d]: id must not be empty", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("statements[%d]: duplicate id %s", i, s.ID)
		}
		seen[s.ID] = true
		if !s.Meaningful && s.TopicID != "" {
			return fmt.Errorf("statement %s: non-meaningful statement has topic %s", s.ID, s.TopicID)
		}
	}
	for i, c := range sm.Contradictions {
		if !seen[c.StatementA] || !seen[c.StatementB] {
			return fmt.Errorf("contradictions[%d]: references unknown statement", i)
		}
	}
	return nil
}

// Validate checks question ids and statuses.
func (cs *ClarificationSet) Validate() error {
	seen := make(map[string]bool, len(cs.Questions))
	for i, q := range cs.Questions {
		if q.ID == "" {
			return fmt.Errorf("questions[%d]: id must not be empty", i)
		}
		if seen[q.ID] {
			return fmt.Errorf("questions[%d]: duplicate id %s", i, q.ID)
		}
		seen[q.ID] = true
		if q.Status != QuestionPending && q.Status != QuestionAnswered {
			return fmt.Errorf("question %s: invalid status %q", q.ID, q.Status)
		}
	}
	return nil
}

// Validate checks that every story has an id and a topic.
func (ss *StorySet) Validate() error {
	for i, s := range ss.Stories {
		if s.ID == "" || s.TopicID == "" {
			return fmt.Errorf("stories[%d]: id and topic_id are required", i)
		}
	}
	return nil
}
