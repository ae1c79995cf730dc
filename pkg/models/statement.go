package models

// StatementSource distinguishes transcript sentences from sentences derived
// from clarification answers.
type StatementSource string

const (
	SourceTranscript    StatementSource = "transcript"
	SourceClarification StatementSource = "clarification"
)

// MatchMethod records how a statement was associated with its topic.
type MatchMethod string

const (
	MatchEntity        MatchMethod = "entity"
	MatchTitle         MatchMethod = "title"
	MatchKeyword       MatchMethod = "keyword"
	MatchContinuity    MatchMethod = "continuity"
	MatchSemantic      MatchMethod = "semantic"
	MatchCluster       MatchMethod = "cluster"
	MatchCatchAll      MatchMethod = "catch_all"
	MatchClarification MatchMethod = "clarification"
)

// OrphanStatus explains why a statement could not be associated.
type OrphanStatus string

const (
	OrphanAmbiguous OrphanStatus = "ambiguous"
	OrphanNoMatch   OrphanStatus = "no_match"
	OrphanLowMatch  OrphanStatus = "low_match"
)

// Statement is one atomic extracted sentence and the unit of traceability.
// An empty TopicID marks an orphan; non-meaningful statements never carry one.
type Statement struct {
	ID           string          `yaml:"id"`
	Text         string          `yaml:"text"`
	Position     int             `yaml:"position"`
	TimestampMS  *int64          `yaml:"timestamp_ms,omitempty"`
	Speaker      string          `yaml:"speaker,omitempty"`
	Meaningful   bool            `yaml:"meaningful"`
	TopicID      string          `yaml:"topic_id,omitempty"`
	Confidence   float64         `yaml:"confidence"`
	MatchMethod  MatchMethod     `yaml:"match_method,omitempty"`
	Source       StatementSource `yaml:"source"`
	QuestionID   string          `yaml:"question_id,omitempty"`
	Superseded   bool            `yaml:"superseded,omitempty"`
	SupersededBy string          `yaml:"superseded_by,omitempty"`
	Supersedes   string          `yaml:"supersedes,omitempty"`
	OrphanStatus OrphanStatus    `yaml:"orphan_status,omitempty"`
	Candidates   []string        `yaml:"candidates,omitempty"`
}

// IsOrphan reports whether a meaningful statement lacks a topic.
func (s Statement) IsOrphan() bool {
	return s.Meaningful && s.TopicID == ""
}

// ContradictionType classifies how two statements conflict.
type ContradictionType string

const (
	ContradictionOpposite ContradictionType = "opposite_values"
	ContradictionNumeric  ContradictionType = "numeric_conflict"
)

// Resolution is the state of a detected contradiction.
type Resolution string

const (
	ResolutionPending             Resolution = "pending"
	ResolutionAutoResolved        Resolution = "auto_resolved"
	ResolutionClarificationNeeded Resolution = "clarification_needed"
	ResolutionNotContradiction    Resolution = "not_contradiction"
	ResolutionResolved            Resolution = "resolved"
	ResolutionKeepBoth            Resolution = "keep_both"
)

// Contradiction is a pair of statements in the same topic whose values
// conflict. StatementA is always the earlier statement.
type Contradiction struct {
	ID         string            `yaml:"id"`
	Type       ContradictionType `yaml:"type"`
	TopicID    string            `yaml:"topic_id"`
	StatementA string            `yaml:"statement_a"`
	StatementB string            `yaml:"statement_b"`
	Attribute  string            `yaml:"attribute"`
	ValueA     string            `yaml:"value_a"`
	ValueB     string            `yaml:"value_b"`
	Confidence float64           `yaml:"confidence"`
	Resolution Resolution        `yaml:"resolution"`
	Winner     string            `yaml:"winner,omitempty"`
	QuestionID string            `yaml:"question_id,omitempty"`
}

// CoverageSnapshot captures mapping coverage after one pass.
type CoverageSnapshot struct {
	Pass       string  `yaml:"pass"`
	Mapped     int     `yaml:"mapped"`
	Orphans    int     `yaml:"orphans"`
	Meaningful int     `yaml:"meaningful"`
	Percentage float64 `yaml:"percentage"`
}

// StatementMap is the persisted statement-map document for a session.
type StatementMap struct {
	Statements      []Statement        `yaml:"statements"`
	Contradictions  []Contradiction    `yaml:"contradictions,omitempty"`
	CoverageHistory []CoverageSnapshot `yaml:"coverage_history,omitempty"`
}

// Find returns a pointer to the statement with the given ID, or nil.
func (m *StatementMap) Find(id string) *Statement {
	for i := range m.Statements {
		if m.Statements[i].ID == id {
			return &m.Statements[i]
		}
	}
	return nil
}

// ForTopic returns the statements associated with topicID, in order.
func (m *StatementMap) ForTopic(topicID string) []Statement {
	var out []Statement
	for _, s := range m.Statements {
		if s.TopicID == topicID {
			out = append(out, s)
		}
	}
	return out
}
