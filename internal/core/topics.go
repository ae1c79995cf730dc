package core

import (
	"regexp"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// entityVocabulary lists the feature nouns recognized as topic entities.
var entityVocabulary = []string{
	"dashboard", "table", "button", "form", "page", "screen", "login", "signup",
	"registration", "report", "search", "filter", "notification", "profile",
	"settings", "export", "import", "chart", "graph", "list", "menu", "navigation",
	"modal", "dialog", "upload", "calendar", "password", "checkout", "cart",
	"payment", "invoice", "order", "product", "inventory", "sidebar", "footer",
	"header", "tab", "card", "map", "feed", "comment", "message",
	"avatar", "widget",
}

var (
	subjectPattern = regexp.MustCompile(`(?i)\b(?:the|a|an|our|this|each|every)\s+((?:[a-z][\w-]*\s+){0,2}?[a-z][\w-]*)\s+(?:should|must|will|shall|can|needs? to|has to)\b`)
	objectPattern  = regexp.MustCompile(`(?i)\b(?:need|needs|want|add|create|implement|build)\s+(?:a|an|the|some|to have a|to have an)?\s*((?:[a-z][\w-]*\s+){0,1}[a-z][\w-]*)`)
)

var phraseStop = toSet("with", "for", "that", "which", "on", "in", "to", "of", "and", "or", "where", "so", "when", "from", "by", "at")

// subjectPhrase returns the noun phrase the statement is about, or "".
func subjectPhrase(text string) string {
	for _, p := range []*regexp.Regexp{subjectPattern, objectPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			phrase := trimPhrase(m[1])
			if phrase != "" {
				return phrase
			}
		}
	}
	return ""
}

// trimPhrase lowercases the phrase, cuts it at the first preposition and
// drops stopwords.
func trimPhrase(phrase string) string {
	var kept []string
	for _, w := range words(phrase) {
		if phraseStop[w] {
			break
		}
		if stopwords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// vocabularyEntities returns the vocabulary nouns present in text, in
// vocabulary order.
func vocabularyEntities(text string) []string {
	toks := words(text)
	var out []string
	for _, v := range entityVocabulary {
		if hasTerm(toks, v) {
			out = append(out, v)
		}
	}
	return out
}

// headNoun returns the last word of the phrase.
func headNoun(phrase string) string {
	ws := strings.Fields(phrase)
	if len(ws) == 0 {
		return ""
	}
	return ws[len(ws)-1]
}

// findTopicFor returns the index of the topic that already owns term as its
// title, entity or keyword, or -1.
func findTopicFor(topics []models.Topic, term string) int {
	key := normalizeKey(term)
	for i, t := range topics {
		if normalizeKey(t.Title) == key {
			return i
		}
		for _, e := range t.Entities {
			if sameStem(key, e) || sameStem(e, key) {
				return i
			}
		}
		for _, k := range t.Keywords {
			if k == key {
				return i
			}
		}
	}
	return -1
}

// extractTopics creates topics from the subjects of requirement statements
// and from recognized feature nouns. A subject already known as a topic's
// title, entity or keyword extends that topic instead of creating one.
func extractTopics(statements []models.Statement) models.TopicSet {
	var topics []models.Topic
	for _, s := range statements {
		if !s.Meaningful || !IsRequirement(s.Text) {
			continue
		}
		entities := vocabularyEntities(s.Text)
		phrase := subjectPhrase(s.Text)
		if phrase == "" && len(entities) > 0 {
			phrase = entities[0]
		}
		if phrase == "" {
			continue
		}

		idx := findTopicFor(topics, headNoun(phrase))
		if idx < 0 {
			for _, w := range strings.Fields(phrase) {
				if idx = findTopicFor(topics, w); idx >= 0 {
					break
				}
			}
		}
		if idx >= 0 {
			topics[idx].Entities = unionStrings(topics[idx].Entities, unclaimed(topics, idx, entities))
			continue
		}

		keywords := unionStrings(strings.Fields(phrase), nil)
		topics = append(topics, models.Topic{
			ID:       topicID(len(topics) + 1),
			Title:    titleCase(phrase),
			Keywords: keywords,
			Entities: unclaimed(topics, -1, entities),
			Source:   models.TopicFromExtraction,
			Status:   models.TopicStatusActive,
		})
	}
	return models.TopicSet{Topics: topics}
}

// unclaimed filters out entities that already belong to a topic other
// than the one at self.
func unclaimed(topics []models.Topic, self int, entities []string) []string {
	var out []string
	for _, e := range entities {
		owner := -1
		for i, t := range topics {
			for _, te := range t.Entities {
				if te == e {
					owner = i
				}
			}
		}
		if owner < 0 || owner == self {
			out = append(out, e)
		}
	}
	return out
}
