package core

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var abbreviations = map[string]bool{
	"e.g": true, "i.e": true, "mr": true, "mrs": true, "ms": true,
	"dr": true, "vs": true, "approx": true, "no": true,
}

// sentenceSpans returns the byte ranges of the sentences in text. A sentence
// ends at terminal punctuation followed by whitespace or end of text, or at
// a newline.
func sentenceSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		seg := strings.TrimRightFunc(text[start:end], unicode.IsSpace)
		if seg != "" {
			spans = append(spans, [2]int{start, start + len(seg)})
		}
		start = -1
	}

	for i, r := range text {
		if start < 0 {
			if unicode.IsSpace(r) {
				continue
			}
			start = i
		}
		switch {
		case r == '\n':
			flush(i)
		case r == '.' || r == '!' || r == '?':
			next := i + 1
			for next < len(text) && strings.ContainsRune(".!?\"')", rune(text[next])) {
				next++
			}
			if next < len(text) {
				nr, _ := utf8.DecodeRuneInString(text[next:])
				if !unicode.IsSpace(nr) {
					continue
				}
			}
			if r == '.' && isAbbreviation(text[start:i]) {
				continue
			}
			flush(next)
		}
	}
	flush(len(text))
	return spans
}

func isAbbreviation(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], "(\"'"))
	return abbreviations[last]
}

// splitSentences splits text into trimmed sentences.
func splitSentences(text string) []string {
	spans := sentenceSpans(text)
	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		out = append(out, strings.TrimSpace(text[sp[0]:sp[1]]))
	}
	return out
}

// words returns the lowercase letter/digit tokens of s.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// estimateTokens approximates a tokenizer at four characters per token.
func estimateTokens(s string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(s)) / 4))
}

var stopwords = toSet(
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "when", "at", "by",
	"for", "with", "about", "into", "to", "from", "in", "on", "of", "off", "up",
	"is", "are", "was", "were", "be", "been", "it", "its", "it's", "this", "that",
	"these", "those", "we", "you", "they", "i", "he", "she", "our", "your", "their",
	"my", "me", "us", "them", "should", "must", "need", "needs", "can", "could",
	"would", "will", "shall", "may", "might", "have", "has", "had", "do", "does",
	"also", "just", "so", "as", "there", "here", "what", "which", "who", "all",
	"some", "any", "each", "very", "really", "not", "no", "yes", "want", "like",
)

// significantWords drops stopwords and tokens shorter than three runes.
func significantWords(s string) []string {
	var out []string
	for _, w := range words(s) {
		if utf8.RuneCountInString(w) < 3 || stopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

var folder = cases.Fold()

// normalizeKey folds case, applies NFKC, strips punctuation and collapses
// whitespace. Two titles that differ only in those respects share a key.
func normalizeKey(s string) string {
	s = folder.String(norm.NFKC.String(s))
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// titleCase renders a phrase in title case for generated topic names.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

func toSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func containsWord(text, word string) bool {
	for _, w := range words(text) {
		if w == word {
			return true
		}
	}
	return false
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
