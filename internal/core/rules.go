package core

import (
	"regexp"
	"sort"
)

// Rule is one entry of a data-driven pattern table. Every classifier in
// this package is an ordered []Rule consumed by ScoreRules or FirstMatch.
type Rule struct {
	Pattern *regexp.Regexp
	Weight  float64
	Label   string
}

// rule compiles a case-insensitive pattern into a Rule.
func rule(pattern string, weight float64, label string) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + pattern), Weight: weight, Label: label}
}

// ScoreRules sums weight times hit count per label.
func ScoreRules(rules []Rule, text string) map[string]float64 {
	scores := make(map[string]float64)
	for _, r := range rules {
		hits := len(r.Pattern.FindAllStringIndex(text, -1))
		if hits > 0 {
			scores[r.Label] += r.Weight * float64(hits)
		}
	}
	return scores
}

// FirstMatch returns the first rule whose pattern matches text.
func FirstMatch(rules []Rule, text string) (Rule, bool) {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r, true
		}
	}
	return Rule{}, false
}

// BestLabel returns the highest scoring label whose score reaches
// threshold. Ties are broken alphabetically so results are stable.
func BestLabel(scores map[string]float64, threshold float64) (string, float64) {
	labels := make([]string, 0, len(scores))
	for l := range scores {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	best, bestScore := "", 0.0
	for _, l := range labels {
		if scores[l] > bestScore {
			best, bestScore = l, scores[l]
		}
	}
	if best == "" || bestScore < threshold {
		return "", bestScore
	}
	return best, bestScore
}
