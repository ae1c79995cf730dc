package core

import (
	"regexp"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"go.uber.org/zap"
)

// antonymPairs is the fixed table of opposite values. The attribute of a
// detected contradiction is "left/right" in table order.
var antonymPairs = [][2]string{
	{"left", "right"},
	{"top", "bottom"},
	{"show", "hide"},
	{"visible", "hidden"},
	{"enable", "disable"},
	{"enabled", "disabled"},
	{"required", "optional"},
	{"public", "private"},
	{"ascending", "descending"},
	{"allow", "deny"},
	{"allow", "block"},
	{"before", "after"},
	{"light", "dark"},
	{"single", "multiple"},
	{"on", "off"},
	{"always", "never"},
	{"minimum", "maximum"},
	{"include", "exclude"},
	{"manual", "automatic"},
	{"open", "closed"},
	{"first", "last"},
	{"horizontal", "vertical"},
	{"increase", "decrease"},
	{"mandatory", "optional"},
}

var (
	correctionRules = []Rule{
		rule(`\bactually\b`, 1, "correction"),
		rule(`\bwait\b`, 1, "correction"),
		rule(`\bscratch that\b`, 1, "correction"),
		rule(`\bon second thought\b`, 1, "correction"),
		rule(`\bcorrection\b`, 1, "correction"),
		rule(`\bi meant\b`, 1, "correction"),
		rule(`\blet me rephrase\b`, 1, "correction"),
		rule(`\bchange (that|it) to\b`, 1, "correction"),
		rule(`\binstead\b`, 1, "correction"),
		rule(`\bno,? (not|make it)\b`, 1, "correction"),
	}
	additiveRules = []Rule{
		rule(`\balso\b`, 1, "additive"),
		rule(`\bas well\b`, 1, "additive"),
		rule(`\bboth\b`, 1, "additive"),
		rule(`\bin addition\b`, 1, "additive"),
		rule(`\badditionally\b`, 1, "additive"),
	}
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Resolution confidence weights.
const (
	baseConfidence      = 0.2
	correctionWeight    = 0.6
	sameSpeakerWeight   = 0.15
	farDistanceWeight   = 0.1
	reMentionWeight     = 0.1
	bothAreNeededOption = "both are needed"
)

// ContradictionReport summarizes a pass-4 run.
type ContradictionReport struct {
	Detected     int
	AutoResolved int
	Escalated    int
	NotConflicts int
}

// ContradictionResolver finds and resolves conflicting statements within a
// topic.
type ContradictionResolver struct {
	cfg models.ContradictionConfig
	h   *Heuristics
}

// NewContradictionResolver creates a ContradictionResolver.
func NewContradictionResolver(cfg models.ContradictionConfig, h *Heuristics) *ContradictionResolver {
	if h == nil {
		h = NewHeuristics(nil)
	}
	return &ContradictionResolver{cfg: cfg, h: h}
}

// Run detects new contradiction pairs and resolves each one.
func (r *ContradictionResolver) Run(sm *models.StatementMap) ContradictionReport {
	var report ContradictionReport
	found := guard(r.h, "contradiction-detect", []models.Contradiction(nil), func() []models.Contradiction {
		return r.Detect(sm)
	})
	for _, c := range found {
		r.resolve(sm, &c)
		sm.Contradictions = append(sm.Contradictions, c)
		report.Detected++
		switch c.Resolution {
		case models.ResolutionAutoResolved:
			report.AutoResolved++
		case models.ResolutionClarificationNeeded:
			report.Escalated++
		case models.ResolutionNotContradiction:
			report.NotConflicts++
		}
	}
	r.h.Logger().Debug("contradiction pass complete",
		zap.Int("detected", report.Detected),
		zap.Int("auto_resolved", report.AutoResolved),
		zap.Int("escalated", report.Escalated))
	return report
}

// Detect returns the contradiction pairs not already recorded. Pairs are
// only formed within a topic; StatementA is always the earlier statement.
func (r *ContradictionResolver) Detect(sm *models.StatementMap) []models.Contradiction {
	known := make(map[[2]string]bool)
	ids := make([]string, 0, len(sm.Contradictions))
	for _, c := range sm.Contradictions {
		known[[2]string{c.StatementA, c.StatementB}] = true
		ids = append(ids, c.ID)
	}

	byTopic := make(map[string][]models.Statement)
	var order []string
	for _, s := range sm.Statements {
		if !s.Meaningful || s.TopicID == "" || s.Superseded {
			continue
		}
		if _, ok := byTopic[s.TopicID]; !ok {
			order = append(order, s.TopicID)
		}
		byTopic[s.TopicID] = append(byTopic[s.TopicID], s)
	}

	var out []models.Contradiction
	next := nextSeq("C", ids)
	for _, topic := range order {
		group := byTopic[topic]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.Position > b.Position {
					a, b = b, a
				}
				if known[[2]string{a.ID, b.ID}] {
					continue
				}
				c, ok := comparePair(a, b)
				if !ok {
					continue
				}
				c.ID = contradictionID(next)
				c.TopicID = topic
				next++
				known[[2]string{a.ID, b.ID}] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// comparePair checks a pair for opposite values, then for numeric conflict.
func comparePair(a, b models.Statement) (models.Contradiction, bool) {
	ta, tb := words(a.Text), words(b.Text)
	for _, pair := range antonymPairs {
		var va, vb string
		switch {
		case hasValue(ta, pair[0]) && hasValue(tb, pair[1]) && !hasValue(ta, pair[1]):
			va, vb = pair[0], pair[1]
		case hasValue(ta, pair[1]) && hasValue(tb, pair[0]) && !hasValue(ta, pair[0]):
			va, vb = pair[1], pair[0]
		default:
			continue
		}
		if len(sharedSignificant(a.Text, b.Text, pair[0], pair[1])) == 0 {
			continue
		}
		return models.Contradiction{
			Type:       models.ContradictionOpposite,
			StatementA: a.ID,
			StatementB: b.ID,
			Attribute:  pair[0] + "/" + pair[1],
			ValueA:     va,
			ValueB:     vb,
			Resolution: models.ResolutionPending,
		}, true
	}

	na, nb := numberPattern.FindAllString(a.Text, -1), numberPattern.FindAllString(b.Text, -1)
	if len(na) == 0 || len(nb) == 0 {
		return models.Contradiction{}, false
	}
	va, vb := firstMissing(na, nb), firstMissing(nb, na)
	if va == "" || vb == "" {
		return models.Contradiction{}, false
	}
	shared := sharedSignificant(a.Text, b.Text)
	if len(shared) <= 2 {
		return models.Contradiction{}, false
	}
	if len(shared) > 3 {
		shared = shared[:3]
	}
	return models.Contradiction{
		Type:       models.ContradictionNumeric,
		StatementA: a.ID,
		StatementB: b.ID,
		Attribute:  strings.Join(shared, " "),
		ValueA:     va,
		ValueB:     vb,
		Resolution: models.ResolutionPending,
	}, true
}

// determiners follow "on" when it is a preposition ("on the page").
var determiners = toSet("the", "a", "an", "this", "that", "these", "those", "my", "your", "our", "their", "its", "each", "every")

// hasValue is hasTerm except that "on" only counts as a value when no
// determiner follows it.
func hasValue(toks []string, term string) bool {
	if term != "on" {
		return hasTerm(toks, term)
	}
	for i, t := range toks {
		if t == "on" && (i+1 == len(toks) || !determiners[toks[i+1]]) {
			return true
		}
	}
	return false
}

// sharedSignificant returns the non-trivial words found in both texts,
// excluding numbers and any of the given words, in order of a.
func sharedSignificant(a, b string, exclude ...string) []string {
	skip := toSet(exclude...)
	inB := toSet(significantWords(b)...)
	var out []string
	seen := make(map[string]bool)
	for _, w := range significantWords(a) {
		if skip[w] || seen[w] || !inB[w] || numberPattern.MatchString(w) {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func firstMissing(from, in []string) string {
	set := toSet(in...)
	for _, v := range from {
		if !set[v] {
			return v
		}
	}
	return ""
}

// resolve scores the pair and either auto-resolves it in favor of the later
// statement, reclassifies it as additive, or escalates it.
func (r *ContradictionResolver) resolve(sm *models.StatementMap, c *models.Contradiction) {
	a, b := sm.Find(c.StatementA), sm.Find(c.StatementB)
	if a == nil || b == nil {
		c.Resolution = models.ResolutionClarificationNeeded
		return
	}

	if _, additive := FirstMatch(additiveRules, b.Text); additive {
		c.Resolution = models.ResolutionNotContradiction
		c.Confidence = 0
		return
	}

	conf := baseConfidence
	if _, ok := FirstMatch(correctionRules, b.Text); ok {
		conf += correctionWeight
	}
	if a.Speaker != "" && a.Speaker == b.Speaker {
		conf += sameSpeakerWeight
	}
	if b.Position-a.Position >= r.cfg.FarDistance {
		conf += farDistanceWeight
	}
	if reMentioned(sm, b, c.ValueB) {
		conf += reMentionWeight
	}
	c.Confidence = round2(conf)

	linked := a.Superseded || a.SupersededBy != "" || a.Supersedes != "" ||
		b.Superseded || b.SupersededBy != "" || b.Supersedes != ""
	if c.Confidence >= r.cfg.AutoResolveThreshold && !linked {
		supersede(a, b)
		c.Resolution = models.ResolutionAutoResolved
		c.Winner = b.ID
		return
	}
	c.Resolution = models.ResolutionClarificationNeeded
}

// reMentioned reports whether a statement after b in the same topic
// repeats the contested value.
func reMentioned(sm *models.StatementMap, b *models.Statement, value string) bool {
	for _, s := range sm.Statements {
		if s.ID != b.ID && s.TopicID == b.TopicID && s.Position > b.Position && hasTerm(words(s.Text), value) {
			return true
		}
	}
	return false
}

// supersede marks loser as replaced by winner.
func supersede(loser, winner *models.Statement) {
	loser.Superseded = true
	loser.SupersededBy = winner.ID
	winner.Supersedes = loser.ID
}

// ApplyContradictionChoice settles an escalated contradiction with the
// user's choice: one of the two values, or "both are needed".
func ApplyContradictionChoice(sm *models.StatementMap, c *models.Contradiction, choice string) {
	a, b := sm.Find(c.StatementA), sm.Find(c.StatementB)
	norm := normalizeKey(choice)
	switch {
	case a != nil && b != nil && (norm == normalizeKey(c.ValueA) || norm == normalizeKey(a.Text)):
		clearLinks(sm, a, b)
		supersede(b, a)
		c.Winner = a.ID
		c.Resolution = models.ResolutionResolved
	case a != nil && b != nil && (norm == normalizeKey(c.ValueB) || norm == normalizeKey(b.Text)):
		clearLinks(sm, a, b)
		supersede(a, b)
		c.Winner = b.ID
		c.Resolution = models.ResolutionResolved
	default:
		c.Winner = ""
		c.Resolution = models.ResolutionKeepBoth
	}
}

// clearLinks drops existing supersede links of a and b so each statement
// keeps at most one.
func clearLinks(sm *models.StatementMap, stmts ...*models.Statement) {
	for _, s := range stmts {
		if s.SupersededBy != "" {
			if other := sm.Find(s.SupersededBy); other != nil && other.Supersedes == s.ID {
				other.Supersedes = ""
			}
		}
		if s.Supersedes != "" {
			if other := sm.Find(s.Supersedes); other != nil && other.SupersededBy == s.ID {
				other.Superseded, other.SupersededBy = false, ""
			}
		}
		s.Superseded, s.SupersededBy, s.Supersedes = false, "", ""
	}
}
