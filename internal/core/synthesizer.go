package core

import (
	"regexp"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"go.uber.org/zap"
)

// roleRules detect the acting user type. Labels are the canonical role.
var roleRules = []Rule{
	rule(`\bas an? (admin|administrator)\b|\badmins?\b|\badministrators?\b`, 1, "admin"),
	rule(`\bmanagers?\b`, 1, "manager"),
	rule(`\bcustomers?\b|\bclients?\b`, 1, "customer"),
	rule(`\bguests?\b|\bvisitors?\b|\banonymous users?\b`, 1, "guest"),
	rule(`\beditors?\b|\bauthors?\b`, 1, "editor"),
	rule(`\bshoppers?\b|\bbuyers?\b`, 1, "shopper"),
	rule(`\bsellers?\b|\bvendors?\b|\bmerchants?\b`, 1, "seller"),
	rule(`\bagents?\b|\bsupport staff\b`, 1, "support agent"),
	rule(`\boperators?\b`, 1, "operator"),
	rule(`\bdevelopers?\b`, 1, "developer"),
	rule(`\bteachers?\b`, 1, "teacher"),
	rule(`\bstudents?\b`, 1, "student"),
}

var (
	benefitPattern     = regexp.MustCompile(`(?i)\b(?:so that|in order to)\s+(.+?)[.!?]*$`)
	modalPattern       = regexp.MustCompile(`(?i)^(.*?)\b(?:should|must|shall|will|needs? to|has to|have to|can)\s+(.+?)[.!?]*$`)
	imperativePattern  = regexp.MustCompile(`(?i)^(?:we |i |they )?(?:need|want|would like)?\s*(?:to )?((?:add|create|implement|build|show|display|allow|let|support|have)\b.+?)[.!?]*$`)
	whenClausePattern  = regexp.MustCompile(`(?i)\bwhen\s+(.+?)(?:,|\s+then\b)\s*(?:then\s+)?(.+?)[.!?]*$`)
	conditionalPattern = regexp.MustCompile(`(?i)^\s*(?:if|when|once|after|given|whenever)\b`)
)

// entityOutcomes gives the Then clause implied by an entity type.
var entityOutcomes = map[string]string{
	"table":        "the data is displayed in the table",
	"list":         "the items are listed",
	"button":       "the action is performed",
	"form":         "the submitted data is saved",
	"search":       "matching results are shown",
	"filter":       "only matching records are shown",
	"login":        "the user is signed in",
	"export":       "the file is downloaded",
	"import":       "the records are imported",
	"chart":        "the data is plotted",
	"graph":        "the data is plotted",
	"notification": "the notification is delivered",
	"report":       "the report is generated",
	"dashboard":    "the dashboard shows the requested information",
	"upload":       "the file is uploaded",
	"payment":      "the payment is confirmed",
	"checkout":     "the order is placed",
}

// Synthesizer turns topics and their statements into user stories.
type Synthesizer struct {
	defaultRole string
	h           *Heuristics
}

// NewSynthesizer creates a Synthesizer. defaultRole is used when no user
// type is mentioned in a topic.
func NewSynthesizer(defaultRole string, h *Heuristics) *Synthesizer {
	if h == nil {
		h = NewHeuristics(nil)
	}
	if defaultRole == "" {
		defaultRole = "user"
	}
	return &Synthesizer{defaultRole: defaultRole, h: h}
}

// Generate builds one draft story per active topic that has live
// statements.
func (s *Synthesizer) Generate(topics *models.TopicSet, sm *models.StatementMap, cs *models.ClarificationSet) models.StorySet {
	var set models.StorySet
	for _, t := range topics.Active() {
		reqs := requirementStatements(sm, t.ID)
		answered := answeredFor(cs, t.ID)
		if len(reqs) == 0 && len(answered) == 0 {
			continue
		}
		topic := t
		st := s.story(&topic, sm, reqs, answered)
		st.ID = storyID(len(set.Stories) + 1)
		Trace(&st, sm, &topic)
		set.Stories = append(set.Stories, st)
	}
	s.h.Logger().Debug("stories generated", zap.Int("count", len(set.Stories)))
	return set
}

func (s *Synthesizer) story(t *models.Topic, sm *models.StatementMap, reqs []models.Statement, answered []models.Question) models.Story {
	live := liveStatements(sm, t.ID)
	st := models.Story{
		TopicID: t.ID,
		Title:   t.Title,
		Status:  models.StoryDraft,
	}
	st.Role = s.role(live)
	st.Action = action(t, reqs)
	st.Benefit = benefit(t, live)

	n := 0
	next := func() string {
		n++
		return criterionID(n)
	}
	for _, r := range reqs {
		st.Criteria = append(st.Criteria, s.statementCriterion(next(), t, st.Role.Text, r, live))
	}
	for _, q := range answered {
		st.Criteria = append(st.Criteria, clarificationCriterion(next(), t, st.Role.Text, q))
	}
	return st
}

// role returns the first user type mentioned in the topic, or the default.
func (s *Synthesizer) role(live []models.Statement) models.Part {
	for _, st := range live {
		if r, ok := FirstMatch(roleRules, st.Text); ok {
			return models.Part{Text: r.Label, Source: st.ID, SourceType: models.SourceTypeStatement}
		}
	}
	return models.Part{Text: s.defaultRole, SourceType: models.SourceTypeContext}
}

func action(t *models.Topic, reqs []models.Statement) models.Part {
	for _, r := range reqs {
		if phrase := actionPhrase(r.Text); phrase != "" {
			return models.Part{Text: phrase, Source: r.ID, SourceType: models.SourceTypeStatement}
		}
	}
	return models.Part{Text: "to use the " + strings.ToLower(t.Title), SourceType: models.SourceTypeInferred}
}

// actionPhrase rewrites "The dashboard should have a table" as "the
// dashboard to have a table" and "Add an export button" as "to add an
// export button".
func actionPhrase(text string) string {
	text = strings.TrimSpace(text)
	if m := modalPattern.FindStringSubmatch(text); m != nil {
		subject := strings.TrimSpace(m[1])
		subject = strings.TrimSuffix(strings.TrimSuffix(subject, ","), " also")
		if subject == "" || isPronoun(subject) {
			return "to " + lowerFirst(m[2])
		}
		return lowerFirst(subject) + " to " + lowerFirst(m[2])
	}
	if m := imperativePattern.FindStringSubmatch(text); m != nil {
		return "to " + lowerFirst(m[1])
	}
	return ""
}

func isPronoun(s string) bool {
	switch strings.ToLower(s) {
	case "it", "we", "i", "they", "you", "users", "the user", "the users", "people", "everyone":
		return true
	}
	return false
}

func benefit(t *models.Topic, live []models.Statement) models.Part {
	for _, st := range live {
		if m := benefitPattern.FindStringSubmatch(st.Text); m != nil {
			return models.Part{Text: lowerFirst(m[1]), Source: st.ID, SourceType: models.SourceTypeStatement}
		}
	}
	return models.Part{
		Text:       "the " + strings.ToLower(t.Title) + " supports my work",
		SourceType: models.SourceTypeInferred,
	}
}

// statementCriterion derives Given/When/Then from one requirement.
func (s *Synthesizer) statementCriterion(id string, t *models.Topic, role string, req models.Statement, live []models.Statement) models.Criterion {
	c := models.Criterion{ID: id}

	if m := whenClausePattern.FindStringSubmatch(req.Text); m != nil {
		c.Given = contextGiven(t, role)
		c.When = models.Clause{Text: strings.TrimSpace(m[1]), Source: req.ID, SourceType: models.SourceTypeStatement}
		c.Then = models.Clause{Text: lowerFirst(strings.TrimSpace(m[2])), Source: req.ID, SourceType: models.SourceTypeStatement}
		return c
	}

	c.Given = contextGiven(t, role)
	for i := len(live) - 1; i >= 0; i-- {
		prev := live[i]
		if prev.Position < req.Position && prev.ID != req.ID && conditionalPattern.MatchString(prev.Text) {
			c.Given = models.Clause{Text: lowerFirst(trimEnd(prev.Text)), Source: prev.ID, SourceType: models.SourceTypeStatement}
			break
		}
	}

	when := "the " + role + " uses the " + strings.ToLower(t.Title)
	if phrase := actionPhrase(req.Text); phrase != "" {
		when = "the " + role + " needs " + phrase
	}
	c.When = models.Clause{Text: when, Source: req.ID, SourceType: models.SourceTypeStatement}

	then := "the requirement \"" + trimEnd(req.Text) + "\" is met"
	for _, e := range vocabularyEntities(req.Text) {
		if out, ok := entityOutcomes[e]; ok {
			then = out
			break
		}
	}
	c.Then = models.Clause{Text: then, Source: req.ID, SourceType: models.SourceTypeStatement}
	return c
}

// clarificationCriterion builds a criterion from an answered question
// using the template for its detail category.
func clarificationCriterion(id string, t *models.Topic, role string, q models.Question) models.Criterion {
	entity := q.EntityType
	if entity == "" {
		entity = strings.ToLower(t.Title)
	}
	answer := trimEnd(q.Answer)
	src := func(text string) models.Clause {
		return models.Clause{Text: text, Source: q.ID, SourceType: models.SourceTypeClarification}
	}
	c := models.Criterion{ID: id, Given: contextGiven(t, role)}
	switch q.Detail {
	case "columns", "fields", "items", "widgets", "contents":
		c.When = src("the " + role + " views the " + entity)
		c.Then = src("it shows " + answer)
	case "validation":
		c.When = src("the " + role + " submits the " + entity + " with invalid input")
		c.Then = src("validation enforces " + answer)
	case "actions", "action", "submit":
		c.When = src("the " + role + " acts on the " + entity)
		c.Then = src("the system supports " + answer)
	case "sorting", "criteria", "scope":
		c.When = src("the " + role + " sorts or filters the " + entity)
		c.Then = src("the results follow " + answer)
	default:
		c.When = src("the " + role + " uses the " + entity)
		c.Then = src(lowerFirst(answer))
	}
	return c
}

func contextGiven(t *models.Topic, role string) models.Clause {
	return models.Clause{
		Text:       "the " + role + " is working with the " + strings.ToLower(t.Title),
		SourceType: models.SourceTypeContext,
	}
}

// answeredFor returns answered questions that add detail to a topic.
// Contradiction and ambiguity answers change statements instead.
func answeredFor(cs *models.ClarificationSet, topicID string) []models.Question {
	var out []models.Question
	for _, q := range cs.Answered() {
		if q.TopicID != topicID || q.Type == models.QuestionContradiction || q.Type == models.QuestionAmbiguity {
			continue
		}
		out = append(out, q)
	}
	return out
}

func liveStatements(sm *models.StatementMap, topicID string) []models.Statement {
	var out []models.Statement
	for _, s := range sm.Statements {
		if s.TopicID == topicID && s.Meaningful && !s.Superseded {
			out = append(out, s)
		}
	}
	return out
}

func trimEnd(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".!?")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if len(r) > 1 && r[1] >= 'A' && r[1] <= 'Z' {
		return s
	}
	return strings.ToLower(string(r[:1])) + string(r[1:])
}
