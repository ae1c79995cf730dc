package core

import (
	"github.com/valter-silva-au/story-digest/pkg/models"
)

// detailSpec is one detail an entity type implies. The detail counts as
// answered when any of its keywords appears among the topic's statements.
type detailSpec struct {
	Name     string
	Priority models.Priority
	Keywords []string
}

// entityTemplates maps entity types to the details a complete requirement
// for them would mention.
var entityTemplates = map[string][]detailSpec{
	"table": {
		{"columns", models.P1, []string{"column", "field"}},
		{"actions", models.P2, []string{"action", "edit", "delete", "click", "button"}},
		{"sorting", models.P3, []string{"sort", "sortable", "order by"}},
	},
	"form": {
		{"fields", models.P1, []string{"field", "input"}},
		{"validation", models.P1, []string{"validate", "validation", "required", "format"}},
		{"submit", models.P2, []string{"submit", "save", "send"}},
	},
	"button": {
		{"action", models.P1, []string{"click", "press", "tap", "open", "trigger"}},
		{"placement", models.P2, []string{"left", "right", "top", "bottom", "header", "footer", "next to"}},
	},
	"list": {
		{"items", models.P1, []string{"item", "show", "display", "entry"}},
		{"sorting", models.P3, []string{"sort", "order", "newest", "oldest"}},
		{"empty_state", models.P3, []string{"empty", "no results", "nothing"}},
	},
	"search": {
		{"scope", models.P1, []string{"by name", "field", "across", "search by", "search for"}},
		{"results", models.P2, []string{"result", "results"}},
	},
	"login": {
		{"method", models.P1, []string{"password", "sso", "oauth", "google", "email", "magic link"}},
		{"failure", models.P2, []string{"fail", "failed", "wrong", "lock", "attempt"}},
	},
	"export": {
		{"format", models.P1, []string{"csv", "pdf", "excel", "xlsx", "json", "format"}},
		{"scope", models.P2, []string{"all", "selected", "filtered"}},
	},
	"chart": {
		{"type", models.P1, []string{"bar", "line", "pie", "area", "scatter"}},
		{"data", models.P1, []string{"data", "metric", "per", "over time"}},
	},
	"notification": {
		{"trigger", models.P1, []string{"when", "after", "whenever", "if"}},
		{"channel", models.P2, []string{"email", "sms", "push", "slack", "in-app"}},
	},
	"report": {
		{"contents", models.P1, []string{"include", "contain", "show", "list"}},
		{"schedule", models.P3, []string{"daily", "weekly", "monthly", "schedule", "every"}},
	},
	"filter": {
		{"criteria", models.P1, []string{"by", "status", "date", "category", "type"}},
	},
	"dashboard": {
		{"widgets", models.P1, []string{"widget", "chart", "table", "card", "metric", "metrics"}},
	},
	"upload": {
		{"file_types", models.P1, []string{"pdf", "image", "png", "jpg", "csv", "file type", "format"}},
		{"size_limit", models.P2, []string{"size", "mb", "gb", "limit"}},
	},
}

// vagueRules flag requirement phrasings that need a concrete rule.
var vagueRules = []Rule{
	rule(`\b(make it|look|looks) (nice|pretty|good|better|clean|modern)\b`, 1, "aesthetic"),
	rule(`\buser[- ]friendly\b|\beasy to use\b|\bintuitive\b`, 1, "usability"),
	rule(`\badd (some )?validation\b|\bvalidate (it|them|the input)\b`, 1, "validation"),
	rule(`\b(fast|quick|snappy|responsive|performant)\b`, 1, "performance"),
	rule(`\b(etc|and so on|and stuff|or something)\b`, 1, "open_ended"),
}

// gap is one detected missing or vague detail, before it becomes a question.
type gap struct {
	Type        models.QuestionType
	TopicID     string
	StatementID string
	EntityType  string
	Detail      string
	Priority    models.Priority
	Quote       string
}

// detectGaps scans meaningful, non-superseded statements for implied
// details that no sibling statement of the same topic mentions.
func detectGaps(sm *models.StatementMap) []gap {
	var out []gap
	seen := make(map[string]bool)
	for _, s := range sm.Statements {
		if !s.Meaningful || s.Superseded || s.TopicID == "" {
			continue
		}
		siblings := liveTexts(sm, s.TopicID)
		for _, entity := range vocabularyEntities(s.Text) {
			for _, d := range entityTemplates[entity] {
				key := s.TopicID + "|" + entity + "|" + d.Name
				if seen[key] {
					continue
				}
				seen[key] = true
				if mentionsAny(siblings, d.Keywords) {
					continue
				}
				out = append(out, gap{
					Type:        models.QuestionCompleteness,
					TopicID:     s.TopicID,
					StatementID: s.ID,
					EntityType:  entity,
					Detail:      d.Name,
					Priority:    d.Priority,
				})
			}
		}
	}
	return out
}

// detectVagueness returns one specificity gap per vague statement.
func detectVagueness(sm *models.StatementMap) []gap {
	var out []gap
	for _, s := range sm.Statements {
		if !s.Meaningful || s.Superseded || s.TopicID == "" || s.Source != models.SourceTranscript {
			continue
		}
		r, ok := FirstMatch(vagueRules, s.Text)
		if !ok {
			continue
		}
		p := models.P2
		if r.Label == "validation" {
			p = models.P1
		}
		out = append(out, gap{
			Type:        models.QuestionSpecificity,
			TopicID:     s.TopicID,
			StatementID: s.ID,
			Detail:      r.Label,
			Priority:    p,
			Quote:       s.Text,
		})
	}
	return out
}

// liveTexts returns the word lists of the topic's non-superseded statements.
func liveTexts(sm *models.StatementMap, topicID string) [][]string {
	var out [][]string
	for _, s := range sm.Statements {
		if s.TopicID == topicID && !s.Superseded {
			out = append(out, words(s.Text))
		}
	}
	return out
}

func mentionsAny(texts [][]string, keywords []string) bool {
	for _, toks := range texts {
		for _, kw := range keywords {
			if hasTerm(toks, kw) {
				return true
			}
		}
	}
	return false
}
