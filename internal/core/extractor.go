package core

import (
	"regexp"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"go.uber.org/zap"
)

// fillerRules flag statements that carry no requirement content.
var fillerRules = []Rule{
	rule(`^(ok(ay)?|k|yeah|yep|yes|no|nope|sure|right|great|cool|nice|perfect|exactly|agreed|correct|got it|makes sense|sounds good|fair enough|thanks?( you| so much)?|thank you)[\s.,!?]*$`, 1, "acknowledgement"),
	rule(`^(hi|hello|hey|good (morning|afternoon|evening)|bye|goodbye|see you( later)?|welcome|how are you( doing)?)\b[\w\s,]*[.!?]*$`, 1, "greeting"),
	rule(`^(um+|uh+|hmm+|er+|well|so|anyway|alright|i (think|guess|mean|see)|let me (think|see)|you know|like i said|not sure|maybe)[\s.,!?]*$`, 1, "hedge"),
	rule(`^(can you (hear|see) me|you'?re on mute|let me share my screen|is everyone here)\b.*$`, 1, "greeting"),
}

// requirementSignal marks statements that are always meaningful.
var requirementSignal = regexp.MustCompile(`(?i)\b(should|must|shall|needs?|add|create|implement)\b|\bwhen\b.+\bthen\b`)

// Extractor splits entries into statements, filters fillers and associates
// statements with topics.
type Extractor struct {
	cfg models.ExtractionConfig
	h   *Heuristics
}

// NewExtractor creates an Extractor.
func NewExtractor(cfg models.ExtractionConfig, h *Heuristics) *Extractor {
	if h == nil {
		h = NewHeuristics(nil)
	}
	return &Extractor{cfg: cfg, h: h}
}

// IsRequirement reports whether text carries a requirement signal.
func IsRequirement(text string) bool {
	return requirementSignal.MatchString(text)
}

// IsMeaningful applies the filler filter. Requirement signals win over
// length and filler checks.
func (e *Extractor) IsMeaningful(text string) bool {
	return guard(e.h, "meaningful", true, func() bool {
		if IsRequirement(text) {
			return true
		}
		if _, ok := FirstMatch(fillerRules, strings.TrimSpace(text)); ok {
			return false
		}
		return wordCount(text) >= e.cfg.MinWords
	})
}

// SplitStatements splits each entry into sentences. Speaker and timestamp
// changes always start a new statement since every entry is split on its own.
func (e *Extractor) SplitStatements(entries []models.Entry) []models.Statement {
	var out []models.Statement
	for _, entry := range entries {
		for _, sentence := range splitSentences(entry.Text) {
			s := models.Statement{
				ID:          statementID(len(out) + 1),
				Text:        sentence,
				Position:    len(out),
				TimestampMS: entry.TimestampMS,
				Speaker:     entry.Speaker,
				Source:      models.SourceTranscript,
			}
			s.Meaningful = e.IsMeaningful(sentence)
			out = append(out, s)
		}
	}
	return out
}

// Extract runs pass 1: statement splitting, filler filtering and topic
// extraction. Statements are returned unassigned.
func (e *Extractor) Extract(entries []models.Entry) (models.TopicSet, []models.Statement) {
	statements := e.SplitStatements(entries)
	topics := guard(e.h, "topic-extraction", models.TopicSet{}, func() models.TopicSet {
		return extractTopics(statements)
	})
	e.h.Logger().Debug("pass 1 extraction complete",
		zap.Int("statements", len(statements)),
		zap.Int("topics", len(topics.Topics)))
	return topics, statements
}

// Associate runs pass 2 over transcript statements: each meaningful
// statement gets the best scoring topic at or above the match threshold,
// else the topic of the immediately preceding meaningful statement when
// that one was assigned with high confidence, else it stays an orphan.
func (e *Extractor) Associate(topics *models.TopicSet, sm *models.StatementMap) {
	var prev *models.Statement
	for i := range sm.Statements {
		s := &sm.Statements[i]
		if s.Source != models.SourceTranscript {
			continue
		}
		if !s.Meaningful {
			s.TopicID, s.Confidence, s.MatchMethod = "", 0, ""
			continue
		}

		topicID, score, method := bestTopic(topics.Active(), s.Text, scoreTopic)
		switch {
		case topicID != "" && score >= e.cfg.MatchThreshold:
			s.TopicID, s.Confidence, s.MatchMethod = topicID, score, method
		case prev != nil && prev.TopicID != "" && prev.Confidence >= e.cfg.ContinuityThreshold:
			s.TopicID, s.Confidence, s.MatchMethod = prev.TopicID, continuityScore, models.MatchContinuity
		default:
			s.TopicID, s.Confidence, s.MatchMethod = "", 0, ""
			s.OrphanStatus = models.OrphanNoMatch
			if score > 0 {
				s.OrphanStatus = models.OrphanLowMatch
			}
		}
		if s.TopicID != "" {
			s.OrphanStatus = ""
		}
		prev = s
	}
}

const (
	entityScore     = 0.9
	titleScore      = 0.8
	keywordScore    = 0.75
	continuityScore = 0.6
	semanticScore   = 0.7
)

type topicScorer func(models.Topic, string) (float64, models.MatchMethod)

// scoreTopic is the base scorer: entity name, then title word, then keyword.
func scoreTopic(t models.Topic, text string) (float64, models.MatchMethod) {
	toks := words(text)
	for _, ent := range t.Entities {
		if hasTerm(toks, ent) {
			return entityScore, models.MatchEntity
		}
	}
	for _, w := range significantWords(t.Title) {
		if hasTerm(toks, w) {
			return titleScore, models.MatchTitle
		}
	}
	for _, kw := range t.Keywords {
		if hasTerm(toks, kw) {
			return keywordScore, models.MatchKeyword
		}
	}
	return 0, ""
}

// bestTopic returns the highest scoring topic. Equal scores keep the first
// topic in list order.
func bestTopic(topics []models.Topic, text string, score topicScorer) (string, float64, models.MatchMethod) {
	bestID, best := "", 0.0
	var method models.MatchMethod
	for _, t := range topics {
		s, m := score(t, text)
		if s > best {
			bestID, best, method = t.ID, s, m
		}
	}
	return bestID, best, method
}

// hasTerm matches a single or multi-word term against tokens, accepting
// simple plural forms.
func hasTerm(toks []string, term string) bool {
	parts := words(term)
	if len(parts) == 0 {
		return false
	}
	for i := 0; i+len(parts) <= len(toks); i++ {
		ok := true
		for j, p := range parts {
			if !sameStem(toks[i+j], p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func sameStem(tok, term string) bool {
	return tok == term || tok == term+"s" || tok == term+"es" ||
		(strings.HasSuffix(term, "y") && tok == term[:len(term)-1]+"ies")
}
