package core

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// Parse strategies, in the order they are tried.
const (
	StrategyNumbered    = "numbered"
	StrategyKeyword     = "keyword"
	StrategyPassthrough = "passthrough"
	StrategyPositional  = "positional"
)

var (
	numberedItem = regexp.MustCompile(`(?m)(?:^|\s)(\d{1,2})[.):]\s+`)

	uncertaintyRules = []Rule{
		rule(`\bmaybe\b`, 1, "uncertain"),
		rule(`\bperhaps\b`, 1, "uncertain"),
		rule(`\bi think\b`, 1, "uncertain"),
		rule(`\bi guess\b`, 1, "uncertain"),
		rule(`\bprobably\b`, 1, "uncertain"),
		rule(`\bnot sure\b`, 1, "uncertain"),
		rule(`\bmight\b`, 1, "uncertain"),
	}
	yesNoPattern = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|no|nope|correct|right|exactly|sí|si)\b`)
)

const (
	baseAnswerConfidence = 0.9
	uncertaintyPenalty   = 0.2
	minAnswerConfidence  = 0.3
	yesNoBoost           = 0.1
)

// ParsedAnswer is the segment of a reply attributed to one question.
type ParsedAnswer struct {
	QuestionID string
	Text       string
	Strategy   string
}

// ParseAnswers attributes a free-text reply to the pending questions. The
// first strategy that produces any attribution wins.
func ParseAnswers(text string, pending []models.Question) []ParsedAnswer {
	text = strings.TrimSpace(text)
	if text == "" || len(pending) == 0 {
		return nil
	}
	if out := parseNumbered(text, pending); len(out) > 0 {
		return out
	}
	if out := parseKeywordAnchored(text, pending); len(out) > 0 {
		return out
	}
	if len(pending) == 1 {
		return []ParsedAnswer{{QuestionID: pending[0].ID, Text: text, Strategy: StrategyPassthrough}}
	}
	if sentences := splitSentences(text); len(sentences) == len(pending) {
		out := make([]ParsedAnswer, len(pending))
		for i, q := range pending {
			out[i] = ParsedAnswer{QuestionID: q.ID, Text: sentences[i], Strategy: StrategyPositional}
		}
		return out
	}
	return nil
}

// parseNumbered splits "1. foo 2. bar" replies; item N answers the N-th
// pending question. Repeated numbers are joined into one answer.
func parseNumbered(text string, pending []models.Question) []ParsedAnswer {
	locs := numberedItem.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var out []ParsedAnswer
	seen := make(map[string]int)
	for i, loc := range locs {
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || n < 1 || n > len(pending) {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		seg := strings.TrimSpace(text[loc[1]:end])
		if seg == "" {
			continue
		}
		id := pending[n-1].ID
		if j, ok := seen[id]; ok {
			out[j].Text += " " + seg
			continue
		}
		seen[id] = len(out)
		out = append(out, ParsedAnswer{QuestionID: id, Text: seg, Strategy: StrategyNumbered})
	}
	return out
}

// parseKeywordAnchored assigns each sentence to the first pending question
// whose detail keywords it mentions.
func parseKeywordAnchored(text string, pending []models.Question) []ParsedAnswer {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return nil
	}
	claimed := make(map[string]bool)
	var out []ParsedAnswer
	for _, sentence := range sentences {
		toks := words(sentence)
		for _, q := range pending {
			if claimed[q.ID] {
				continue
			}
			if matchesQuestion(toks, q) {
				claimed[q.ID] = true
				out = append(out, ParsedAnswer{QuestionID: q.ID, Text: sentence, Strategy: StrategyKeyword})
				break
			}
		}
	}
	return out
}

// matchesQuestion reports whether a sentence mentions the question's
// anchor terms: its detail keywords, or one of its options.
func matchesQuestion(toks []string, q models.Question) bool {
	var anchors []string
	if q.EntityType != "" {
		for _, d := range entityTemplates[q.EntityType] {
			if d.Name == q.Detail {
				anchors = append(anchors, d.Keywords...)
			}
		}
	}
	if q.Detail != "" {
		anchors = append(anchors, strings.ReplaceAll(q.Detail, "_", " "))
	}
	for _, o := range q.Options {
		if o != bothAreNeededOption {
			anchors = append(anchors, o)
		}
	}
	for _, a := range anchors {
		if hasTerm(toks, a) {
			return true
		}
	}
	return false
}

// AnswerConfidence penalizes hedging and rewards direct yes/no replies.
func AnswerConfidence(text string) float64 {
	conf := baseAnswerConfidence
	scores := ScoreRules(uncertaintyRules, text)
	conf -= uncertaintyPenalty * scores["uncertain"]
	if conf < minAnswerConfidence {
		conf = minAnswerConfidence
	}
	if yesNoPattern.MatchString(text) {
		conf += yesNoBoost
	}
	if conf > 1 {
		conf = 1
	}
	return round2(conf)
}
