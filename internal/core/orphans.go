package core

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"go.uber.org/zap"
)

// synonymGroups drives the semantic expansion used when re-scoring orphans.
var synonymGroups = [][]string{
	{"login", "log in", "sign in", "signin", "authentication", "authenticate", "auth", "credentials", "password"},
	{"dashboard", "overview", "home page", "homepage", "landing page"},
	{"table", "grid", "rows", "columns", "spreadsheet"},
	{"search", "find", "lookup", "look up", "query"},
	{"filter", "narrow", "refine", "facet"},
	{"export", "download", "csv", "pdf"},
	{"import", "upload", "attach"},
	{"notification", "alert", "notify", "reminder"},
	{"profile", "account", "avatar"},
	{"settings", "preferences", "configuration", "options"},
	{"chart", "graph", "plot", "visualization"},
	{"report", "summary", "analytics", "metrics"},
	{"button", "cta", "link"},
	{"form", "input", "fields"},
	{"delete", "remove", "erase"},
	{"payment", "checkout", "billing", "invoice"},
	{"signup", "sign up", "register", "registration", "onboarding"},
}

// OrphanReport summarizes a pass-3 run.
type OrphanReport struct {
	Semantic  int
	Clustered int
	CatchAll  int
	Ambiguous int
	NewTopics []string
	Coverage  models.CoverageSnapshot
}

// OrphanResolver runs the three-step orphan fallback.
type OrphanResolver struct {
	cfg models.OrphanConfig
	h   *Heuristics
}

// NewOrphanResolver creates an OrphanResolver.
func NewOrphanResolver(cfg models.OrphanConfig, h *Heuristics) *OrphanResolver {
	if h == nil {
		h = NewHeuristics(nil)
	}
	return &OrphanResolver{cfg: cfg, h: h}
}

// Resolve re-scores orphans with semantic expansion, clusters what is left
// into new topics, and assigns the remainder to the catch-all topic. With no
// orphans it changes nothing but the coverage history.
func (r *OrphanResolver) Resolve(topics *models.TopicSet, sm *models.StatementMap) OrphanReport {
	var report OrphanReport

	for i := range sm.Statements {
		s := &sm.Statements[i]
		if !s.IsOrphan() {
			continue
		}
		r.rescore(topics, s, &report)
	}

	r.cluster(topics, sm, &report)

	for i := range sm.Statements {
		s := &sm.Statements[i]
		if !s.Meaningful {
			continue
		}
		if s.TopicID != "" && s.Confidence >= r.cfg.CatchAllThreshold {
			continue
		}
		catchAll := r.catchAllTopic(topics, &report)
		s.TopicID = catchAll
		s.Confidence = r.cfg.CatchAllThreshold
		s.MatchMethod = models.MatchCatchAll
		if s.OrphanStatus != models.OrphanAmbiguous {
			s.OrphanStatus = ""
		}
		report.CatchAll++
	}

	report.Coverage = recordCoverage("pass3", sm)
	r.h.Logger().Debug("orphan resolution complete",
		zap.Int("semantic", report.Semantic),
		zap.Int("clustered", report.Clustered),
		zap.Int("catch_all", report.CatchAll),
		zap.Int("ambiguous", report.Ambiguous))
	return report
}

type candidate struct {
	id     string
	score  float64
	method models.MatchMethod
}

// rescore accepts a clear winner, or records the candidates of an
// ambiguous tie.
func (r *OrphanResolver) rescore(topics *models.TopicSet, s *models.Statement, report *OrphanReport) {
	cands := guard(r.h, "orphan-rescore", []candidate(nil), func() []candidate {
		var out []candidate
		for _, t := range topics.Active() {
			score, method := scoreTopic(t, s.Text)
			if sem := semanticMatch(t, s.Text); sem > score {
				score, method = sem, models.MatchSemantic
			}
			if score > 0 {
				out = append(out, candidate{t.ID, score, method})
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
		return out
	})

	if len(cands) == 0 {
		s.OrphanStatus = models.OrphanNoMatch
		return
	}
	best := cands[0]
	runnerUp := 0.0
	if len(cands) > 1 {
		runnerUp = cands[1].score
	}
	switch {
	case best.score >= r.cfg.Accept && round2(best.score-runnerUp) > r.cfg.ClearMargin:
		s.TopicID, s.Confidence, s.MatchMethod = best.id, best.score, best.method
		s.OrphanStatus, s.Candidates = "", nil
		report.Semantic++
	case len(cands) > 1 && round2(best.score-runnerUp) < r.cfg.AmbiguityMargin:
		s.OrphanStatus = models.OrphanAmbiguous
		s.Candidates = nil
		for _, c := range cands {
			if round2(best.score-c.score) < r.cfg.AmbiguityMargin {
				s.Candidates = append(s.Candidates, c.id)
			}
		}
		report.Ambiguous++
	default:
		s.OrphanStatus = models.OrphanLowMatch
	}
}

// semanticMatch scores a topic by synonym expansion of its terms.
func semanticMatch(t models.Topic, text string) float64 {
	toks := words(text)
	terms := append(append(append([]string(nil), t.Entities...), t.Keywords...), significantWords(t.Title)...)
	for _, group := range synonymGroups {
		inGroup := false
		for _, term := range terms {
			for _, syn := range group {
				if sameStem(term, syn) || term == syn {
					inGroup = true
				}
			}
		}
		if !inGroup {
			continue
		}
		for _, syn := range group {
			if hasTerm(toks, syn) {
				return semanticScore
			}
		}
	}
	return 0
}

// cluster groups non-ambiguous orphans sharing at least two words longer
// than three characters, and turns each group of two or more into a topic
// that needs review.
func (r *OrphanResolver) cluster(topics *models.TopicSet, sm *models.StatementMap, report *OrphanReport) {
	var idx []int
	for i, s := range sm.Statements {
		if s.IsOrphan() && s.OrphanStatus != models.OrphanAmbiguous {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return
	}

	wordSets := make([]map[string]bool, len(idx))
	for k, i := range idx {
		wordSets[k] = clusterWords(sm.Statements[i].Text)
	}

	parent := make([]int, len(idx))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			if sharedCount(wordSets[a], wordSets[b]) >= 2 {
				parent[find(b)] = find(a)
			}
		}
	}

	groups := make(map[int][]int)
	var roots []int
	for k := range idx {
		root := find(k)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], k)
	}

	for _, root := range roots {
		members := groups[root]
		if len(members) < 2 {
			continue
		}
		first := sm.Statements[idx[members[0]]]
		id := topicID(nextSeq("T", topicIDs(topics)))
		topics.Topics = append(topics.Topics, models.Topic{
			ID:          id,
			Title:       titleCase(keyPhrase(first.Text)),
			Keywords:    sharedWords(wordSets, members),
			Source:      models.TopicFromOrphans,
			Status:      models.TopicStatusActive,
			NeedsReview: true,
		})
		report.NewTopics = append(report.NewTopics, id)
		for _, k := range members {
			s := &sm.Statements[idx[k]]
			s.TopicID, s.Confidence, s.MatchMethod = id, 0.5, models.MatchCluster
			s.OrphanStatus = ""
			report.Clustered++
		}
	}
}

func clusterWords(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range words(text) {
		if utf8.RuneCountInString(w) > 3 && !stopwords[w] {
			set[w] = true
		}
	}
	return set
}

func sharedCount(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

// sharedWords returns the words found in at least two members, sorted.
func sharedWords(sets []map[string]bool, members []int) []string {
	counts := make(map[string]int)
	for _, k := range members {
		for w := range sets[k] {
			counts[w]++
		}
	}
	var out []string
	for _, w := range sortedKeys(counts) {
		if counts[w] >= 2 {
			out = append(out, w)
		}
	}
	return out
}

// keyPhrase names a generated topic after a statement's subject, or its
// first significant words.
func keyPhrase(text string) string {
	if p := subjectPhrase(text); p != "" {
		return p
	}
	sig := significantWords(text)
	if len(sig) > 3 {
		sig = sig[:3]
	}
	if len(sig) == 0 {
		return "Untitled"
	}
	return strings.Join(sig, " ")
}

// catchAllTopic returns the id of the persistent catch-all topic, creating
// it on first use.
func (r *OrphanResolver) catchAllTopic(topics *models.TopicSet, report *OrphanReport) string {
	for _, t := range topics.Topics {
		if t.Source == models.TopicCatchAll {
			return t.ID
		}
	}
	id := topicID(nextSeq("T", topicIDs(topics)))
	topics.Topics = append(topics.Topics, models.Topic{
		ID:     id,
		Title:  r.cfg.CatchAllTitle,
		Source: models.TopicCatchAll,
		Status: models.TopicStatusActive,
	})
	report.NewTopics = append(report.NewTopics, id)
	return id
}

func topicIDs(topics *models.TopicSet) []string {
	ids := make([]string, len(topics.Topics))
	for i, t := range topics.Topics {
		ids[i] = t.ID
	}
	return ids
}
