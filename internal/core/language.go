package core

import (
	"unicode"
)

// LanguageResult is a detected language tag with its confidence.
type LanguageResult struct {
	Tag        string
	Confidence float64
}

// scriptLanguages maps dominant non-Latin scripts to a language tag.
var scriptLanguages = []struct {
	table *unicode.RangeTable
	tag   string
}{
	{unicode.Cyrillic, "ru"},
	{unicode.Greek, "el"},
	{unicode.Arabic, "ar"},
	{unicode.Hebrew, "he"},
	{unicode.Hangul, "ko"},
	{unicode.Devanagari, "hi"},
	{unicode.Thai, "th"},
	{unicode.Han, "zh"},
}

const scriptDominance = 0.5

var commonWords = map[string]map[string]bool{
	"en": toSet("the", "and", "is", "to", "of", "it", "that", "should", "we", "have", "a", "be", "for", "with", "this", "can", "need", "will", "on", "when"),
	"es": toSet("el", "la", "de", "que", "y", "en", "los", "las", "un", "una", "por", "con", "para", "es", "debe", "se", "del", "al", "lo", "como"),
	"fr": toSet("le", "la", "les", "de", "des", "et", "est", "un", "une", "que", "pour", "dans", "avec", "doit", "nous", "il", "du", "pas", "sur", "ce"),
	"de": toSet("der", "die", "das", "und", "ist", "nicht", "ein", "eine", "zu", "mit", "wir", "soll", "den", "auf", "für", "sie", "es", "im", "dem", "auch"),
	"pt": toSet("o", "a", "de", "que", "e", "do", "da", "em", "um", "uma", "para", "com", "não", "os", "as", "deve", "no", "na", "se", "por"),
	"it": toSet("il", "la", "di", "che", "e", "un", "una", "per", "con", "non", "sono", "deve", "del", "della", "nel", "gli", "le", "si", "lo", "come"),
	"nl": toSet("de", "het", "een", "en", "van", "is", "dat", "op", "te", "in", "moet", "niet", "met", "voor", "zijn", "er", "we", "ook", "als", "aan"),
}

var trigramProfiles = map[string]map[string]bool{
	"en": toSet("the", "he ", " th", "and", "nd ", " an", "ing", "ng ", "ion", " to", "to ", "ed ", "er ", "tio", "ent", " sh", "hou", "uld"),
	"es": toSet(" de", "de ", "os ", " la", "la ", "el ", " el", "ión", "que", " qu", "ue ", "es ", "as ", "ent", "con", "ara", " co", "aci"),
	"fr": toSet(" de", "es ", "de ", "le ", " le", "ent", "ion", "les", " la", "la ", "que", "re ", " qu", "tio", "e d", "ne ", "ait", "eur"),
	"de": toSet("en ", "er ", "ich", "die", "der", "ein", "sch", " di", "ie ", "che", "und", " un", "nd ", "cht", "ung", "gen", " de", "te "),
	"pt": toSet(" de", "de ", "os ", "ão ", "que", " qu", "do ", "da ", "as ", "ent", "ção", " co", "ar ", "em ", " em", "ra ", "ado", "est"),
	"it": toSet(" di", "di ", "to ", "la ", " la", "che", "re ", "one", "ell", "zio", "del", " de", "ent", "are", "no ", "lla", "per", " pe"),
	"nl": toSet("en ", "de ", " de", "het", "van", " va", "an ", "een", " ee", "et ", "er ", "ing", "oet", " mo", "ij ", "cht", "ijk", "aar"),
}

const (
	wordWeight    = 0.7
	trigramWeight = 0.3
	minLangScore  = 0.05
)

// DetectLanguage combines script ratios, common-word frequency and trigram
// profiles. Non-Latin scripts win outright once they dominate the letters;
// Latin text is disambiguated by the weighted word and trigram scores.
func (n *Normalizer) DetectLanguage(text string) LanguageResult {
	fallback := LanguageResult{Tag: "unknown"}
	return memo(n.h, "language", text, fallback, func() LanguageResult {
		return detectLanguage(text)
	})
}

func detectLanguage(text string) LanguageResult {
	letters := 0
	counts := make(map[string]int)
	kana := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			kana++
			continue
		}
		for _, sl := range scriptLanguages {
			if unicode.Is(sl.table, r) {
				counts[sl.tag]++
				break
			}
		}
	}
	if letters == 0 {
		return LanguageResult{Tag: "unknown"}
	}

	if float64(kana+counts["zh"])/float64(letters) >= scriptDominance && kana > 0 {
		return LanguageResult{Tag: "ja", Confidence: round2(float64(kana+counts["zh"]) / float64(letters))}
	}
	for _, sl := range scriptLanguages {
		ratio := float64(counts[sl.tag]) / float64(letters)
		if ratio >= scriptDominance {
			return LanguageResult{Tag: sl.tag, Confidence: round2(ratio)}
		}
	}

	toks := words(text)
	if len(toks) == 0 {
		return LanguageResult{Tag: "unknown"}
	}
	grams := trigrams(text)

	scores := make(map[string]float64)
	total := 0.0
	for _, lang := range sortedKeys(commonWords) {
		hits := 0
		for _, t := range toks {
			if commonWords[lang][t] {
				hits++
			}
		}
		gramHits := 0
		for _, g := range grams {
			if trigramProfiles[lang][g] {
				gramHits++
			}
		}
		score := wordWeight * float64(hits) / float64(len(toks))
		if len(grams) > 0 {
			score += trigramWeight * float64(gramHits) / float64(len(grams))
		}
		scores[lang] = score
		total += score
	}

	best, bestScore := BestLabel(scores, minLangScore)
	if best == "" || total == 0 {
		return LanguageResult{Tag: "unknown"}
	}
	return LanguageResult{Tag: best, Confidence: round2(bestScore / total)}
}

func trigrams(text string) []string {
	var out []string
	for _, w := range words(text) {
		padded := []rune(" " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			out = append(out, string(padded[i:i+3]))
		}
	}
	return out
}
