package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"go.uber.org/zap"
)

// AnswerResult reports what a reply changed.
type AnswerResult struct {
	Voice        bool
	Cleaned      string
	Strategy     string
	Answered     []string
	Derived      []string
	Followups    []string
	Confidence   float64
	Unmatched    int
	StillPending int
}

// Clarifier generates clarification questions and records answers.
type Clarifier struct {
	cfg       models.ClarifyConfig
	templates *TemplateSet
	h         *Heuristics
}

// NewClarifier creates a Clarifier rendering questions in locale.
func NewClarifier(locale string, cfg models.ClarifyConfig, h *Heuristics) *Clarifier {
	if h == nil {
		h = NewHeuristics(nil)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	return &Clarifier{cfg: cfg, templates: NewTemplateSet(locale), h: h}
}

// Locale returns the language questions are rendered in.
func (c *Clarifier) Locale() string {
	return c.templates.Locale()
}

// ContradictionQuestions turns escalated contradictions into questions
// offering both values plus "both are needed".
func (c *Clarifier) ContradictionQuestions(topics *models.TopicSet, sm *models.StatementMap, cs *models.ClarificationSet) int {
	added := 0
	for i := range sm.Contradictions {
		con := &sm.Contradictions[i]
		if con.Resolution != models.ResolutionClarificationNeeded || con.QuestionID != "" {
			continue
		}
		a, b := sm.Find(con.StatementA), sm.Find(con.StatementB)
		if a == nil || b == nil {
			continue
		}
		text, ok := c.render("contradiction.generic", map[string]string{
			"topic": topicTitle(topics, con.TopicID),
			"a":     a.Text,
			"b":     b.Text,
		})
		if !ok {
			continue
		}
		q := c.newQuestion(cs, models.Question{
			Type:            models.QuestionContradiction,
			TopicID:         con.TopicID,
			StatementID:     b.ID,
			Detail:          con.Attribute,
			Priority:        models.P1,
			Text:            text,
			Options:         []string{con.ValueA, con.ValueB, bothAreNeededOption},
			ContradictionID: con.ID,
		})
		con.QuestionID = q.ID
		added++
	}
	return added
}

// Generate adds completeness, specificity and ambiguity questions that do
// not exist yet and returns how many were added.
func (c *Clarifier) Generate(topics *models.TopicSet, sm *models.StatementMap, cs *models.ClarificationSet) int {
	gaps := guard(c.h, "gap-detect", []gap(nil), func() []gap {
		return append(detectGaps(sm), detectVagueness(sm)...)
	})
	added := 0
	for _, g := range gaps {
		if hasQuestionFor(cs, g) {
			continue
		}
		var key string
		vars := map[string]string{"topic": topicTitle(topics, g.TopicID), "entity": g.EntityType, "quote": g.Quote}
		switch g.Type {
		case models.QuestionCompleteness:
			key = "completeness." + g.EntityType + "." + g.Detail
		case models.QuestionSpecificity:
			key = "specificity." + g.Detail
		}
		text, ok := c.render(key, vars)
		if !ok {
			continue
		}
		c.newQuestion(cs, models.Question{
			Type:        g.Type,
			TopicID:     g.TopicID,
			StatementID: g.StatementID,
			EntityType:  g.EntityType,
			Detail:      g.Detail,
			Priority:    g.Priority,
			Text:        text,
		})
		added++
	}
	added += c.ambiguityQuestions(topics, sm, cs)
	return added
}

// ambiguityQuestions asks where each ambiguous orphan belongs.
func (c *Clarifier) ambiguityQuestions(topics *models.TopicSet, sm *models.StatementMap, cs *models.ClarificationSet) int {
	added := 0
	for _, s := range sm.Statements {
		if s.OrphanStatus != models.OrphanAmbiguous || len(s.Candidates) == 0 || s.Superseded {
			continue
		}
		if hasStatementQuestion(cs, models.QuestionAmbiguity, s.ID) {
			continue
		}
		options := make([]string, 0, len(s.Candidates))
		for _, id := range s.Candidates {
			options = append(options, topicTitle(topics, id))
		}
		text, ok := c.render("ambiguity.generic", map[string]string{
			"quote":   s.Text,
			"options": strings.Join(options, ", "),
		})
		if !ok {
			continue
		}
		c.newQuestion(cs, models.Question{
			Type:        models.QuestionAmbiguity,
			TopicID:     s.TopicID,
			StatementID: s.ID,
			Priority:    models.P2,
			Text:        text,
			Options:     options,
		})
		added++
	}
	return added
}

// Present returns the next batch of pending questions, marking them as
// presented. Questions already presented and still pending come first.
func (c *Clarifier) Present(cs *models.ClarificationSet) []models.Question {
	pending := cs.Pending()
	var batch []models.Question
	for _, q := range pending {
		if q.Presented && len(batch) < c.cfg.BatchSize {
			batch = append(batch, q)
		}
	}
	for _, q := range pending {
		if !q.Presented && len(batch) < c.cfg.BatchSize {
			batch = append(batch, q)
		}
	}
	for i := range batch {
		cs.Find(batch[i].ID).Presented = true
		batch[i].Presented = true
	}
	return batch
}

// Answer attributes a reply to the presented questions and applies every
// attributed segment. Nothing is changed when no segment can be attributed.
func (c *Clarifier) Answer(topics *models.TopicSet, sm *models.StatementMap, cs *models.ClarificationSet, reply string, voice bool, now time.Time) (AnswerResult, error) {
	var res AnswerResult
	var presented []models.Question
	for _, q := range cs.Pending() {
		if q.Presented {
			presented = append(presented, q)
		}
	}
	if len(presented) == 0 {
		return res, ErrNoPendingQuestions
	}

	res.Cleaned = strings.TrimSpace(reply)
	if voice || c.cfg.ForceVoice || c.h.DetectVoice(reply).IsVoice {
		res.Voice = true
		res.Cleaned = CleanVoice(reply)
	}

	parsed := ParseAnswers(res.Cleaned, presented)
	if len(parsed) == 0 {
		return res, ErrUnattributedAnswer
	}
	res.Strategy = parsed[0].Strategy

	var usable []ParsedAnswer
	for _, p := range parsed {
		if q := cs.Find(p.QuestionID); q != nil && q.Status == models.QuestionPending && settles(*q, p.Text) {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return res, ErrUnattributedAnswer
	}
	parsed = usable

	total := 0.0
	for _, p := range parsed {
		q := cs.Find(p.QuestionID)
		conf := AnswerConfidence(p.Text)
		total += conf
		derived := c.apply(topics, sm, cs, q, p.Text, conf, now)
		res.Answered = append(res.Answered, q.ID)
		res.Derived = append(res.Derived, derived)
		res.Followups = append(res.Followups, c.followups(topics, cs, q, p.Text)...)
	}
	res.Confidence = round2(total / float64(len(parsed)))
	res.Unmatched = len(presented) - len(parsed)
	res.StillPending = len(cs.Pending())
	c.h.Logger().Debug("answer recorded",
		zap.String("strategy", res.Strategy),
		zap.Bool("voice", res.Voice),
		zap.Strings("answered", res.Answered))
	return res, nil
}

// apply records the answer on q, settles contradiction and ambiguity
// questions, and appends the derived statement. It returns the derived
// statement ID.
func (c *Clarifier) apply(topics *models.TopicSet, sm *models.StatementMap, cs *models.ClarificationSet, q *models.Question, answer string, conf float64, now time.Time) string {
	topicID := q.TopicID
	switch q.Type {
	case models.QuestionContradiction:
		if con := findContradiction(sm, q.ContradictionID); con != nil {
			choice, _ := chooseOption(answer, q.Options)
			ApplyContradictionChoice(sm, con, choice)
		}
	case models.QuestionAmbiguity:
		if s := sm.Find(q.StatementID); s != nil {
			if idx := optionIndex(answer, q.Options); idx >= 0 && idx < len(s.Candidates) {
				topicID = s.Candidates[idx]
				s.TopicID = topicID
				s.Confidence = 1
				s.MatchMethod = models.MatchClarification
				s.OrphanStatus = ""
				s.Candidates = nil
			} else {
				topicID = s.TopicID
			}
		}
	}
	if topicID == "" || topics.Find(topicID) == nil {
		if len(topics.Topics) > 0 {
			topicID = topics.Topics[0].ID
		}
	}

	ids := make([]string, 0, len(sm.Statements))
	maxPos := -1
	for _, s := range sm.Statements {
		ids = append(ids, s.ID)
		if s.Position > maxPos {
			maxPos = s.Position
		}
	}
	derived := models.Statement{
		ID:          statementID(nextSeq("S", ids)),
		Text:        answer,
		Position:    maxPos + 1,
		Meaningful:  true,
		TopicID:     topicID,
		Confidence:  1.0,
		MatchMethod: models.MatchClarification,
		Source:      models.SourceClarification,
		QuestionID:  q.ID,
	}
	sm.Statements = append(sm.Statements, derived)

	at := now
	q.Status = models.QuestionAnswered
	q.Answer = answer
	q.AnswerConfidence = conf
	q.AnsweredAt = &at
	q.DerivedStatementID = derived.ID
	if q.Type == models.QuestionAmbiguity {
		q.TopicID = topicID
	}
	return derived.ID
}

// followups spawns questions for the triggers the answer fires, at most
// one per topic and trigger.
func (c *Clarifier) followups(topics *models.TopicSet, cs *models.ClarificationSet, parent *models.Question, answer string) []string {
	topicID, parentID := parent.TopicID, parent.ID
	var out []string
	for _, trigger := range followupTriggers(answer) {
		if hasFollowup(cs, topicID, trigger) {
			continue
		}
		text, ok := c.render("followup."+trigger, map[string]string{"topic": topicTitle(topics, topicID)})
		if !ok {
			continue
		}
		q := c.newQuestion(cs, models.Question{
			Type:     models.QuestionFollowup,
			TopicID:  topicID,
			Priority: followupPriority[trigger],
			Text:     text,
			Trigger:  trigger,
			ParentID: parentID,
		})
		out = append(out, q.ID)
	}
	return out
}

func (c *Clarifier) render(key string, vars map[string]string) (string, bool) {
	text, ok := c.templates.Render(key, vars)
	if !ok {
		c.h.Logger().Debug("no question template, skipping",
			zap.String("key", key),
			zap.String("locale", c.templates.Locale()))
	}
	return text, ok
}

// newQuestion assigns the next ID, appends q as pending and returns it.
func (c *Clarifier) newQuestion(cs *models.ClarificationSet, q models.Question) models.Question {
	ids := make([]string, 0, len(cs.Questions))
	for _, existing := range cs.Questions {
		ids = append(ids, existing.ID)
	}
	q.ID = questionID(nextSeq("Q", ids))
	q.Status = models.QuestionPending
	cs.Questions = append(cs.Questions, q)
	return q
}

func hasQuestionFor(cs *models.ClarificationSet, g gap) bool {
	for _, q := range cs.Questions {
		if q.Type != g.Type || q.TopicID != g.TopicID {
			continue
		}
		switch g.Type {
		case models.QuestionCompleteness:
			if q.EntityType == g.EntityType && q.Detail == g.Detail {
				return true
			}
		case models.QuestionSpecificity:
			if q.StatementID == g.StatementID {
				return true
			}
		}
	}
	return false
}

func hasStatementQuestion(cs *models.ClarificationSet, t models.QuestionType, statementID string) bool {
	for _, q := range cs.Questions {
		if q.Type == t && q.StatementID == statementID {
			return true
		}
	}
	return false
}

func findContradiction(sm *models.StatementMap, id string) *models.Contradiction {
	for i := range sm.Contradictions {
		if sm.Contradictions[i].ID == id {
			return &sm.Contradictions[i]
		}
	}
	return nil
}

// settles reports whether answer can close q. Contradiction and ambiguity
// questions need a reply that picks one of their options.
func settles(q models.Question, answer string) bool {
	switch q.Type {
	case models.QuestionContradiction:
		_, ok := chooseOption(answer, q.Options)
		return ok
	case models.QuestionAmbiguity:
		return optionIndex(answer, q.Options) >= 0
	}
	return true
}

// chooseOption maps a reply onto one of the options. A reply naming one
// value picks it; "both", its ordinal, or naming every value keeps both.
// Anything else picks nothing.
func chooseOption(answer string, options []string) (string, bool) {
	if idx := optionIndex(answer, options); idx >= 0 {
		return options[idx], true
	}
	toks := words(answer)
	named, values := 0, 0
	for _, o := range options {
		if o == bothAreNeededOption {
			continue
		}
		values++
		if hasTerm(toks, o) {
			named++
		}
	}
	if values > 1 && named == values {
		return bothAreNeededOption, true
	}
	return "", false
}

// optionIndex returns the index of the single option the answer names, by
// ordinal ("1", "2") or by wording, or -1.
func optionIndex(answer string, options []string) int {
	trimmed := strings.Trim(strings.TrimSpace(answer), ".)")
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(options) {
		return n - 1
	}
	toks := words(answer)
	if hasTerm(toks, "both") {
		for i, o := range options {
			if o == bothAreNeededOption {
				return i
			}
		}
		return -1
	}
	found := -1
	for i, o := range options {
		if o == bothAreNeededOption {
			continue
		}
		if hasTerm(toks, o) || strings.EqualFold(strings.TrimSpace(answer), o) {
			if found >= 0 {
				return -1
			}
			found = i
		}
	}
	return found
}

// topicTitle returns the topic's title, or its ID when unknown.
func topicTitle(topics *models.TopicSet, id string) string {
	if t := topics.Find(id); t != nil {
		return t.Title
	}
	return fmt.Sprintf("topic %s", id)
}
