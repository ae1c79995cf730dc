package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	voiceFillerPattern     = regexp.MustCompile(`(?i)\b(um+|uh+|erm+|hmm+|like|you know|i mean|sort of|kind of|basically)\b`)
	voiceCorrectionPattern = regexp.MustCompile(`(?i)\b(no wait|wait no|scratch that|i mean|sorry|actually no)\b,?`)
	spokenFillerStrip      = regexp.MustCompile(`(?i)(^|\s)(um+|uh+|erm+|hmm+|you know|basically)(,)?(\s|$)`)
	multiSpace             = regexp.MustCompile(`\s{2,}`)
)

var spokenNumbers = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19, "twenty": 20, "thirty": 30, "forty": 40,
	"fifty": 50, "sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

const (
	voiceScoreThreshold = 2
	correctionDropWords = 3
	runOnWords          = 40
)

// VoiceDetection explains why a text was judged to be speech-to-text output.
type VoiceDetection struct {
	IsVoice       bool
	FillerDensity float64
	Corrections   int
	RunOn         bool
	Score         int
}

// DetectVoice scores filler density, self-correction markers and run-on
// sentence shape.
func (h *Heuristics) DetectVoice(text string) VoiceDetection {
	return memo(h, "voice", text, VoiceDetection{}, func() VoiceDetection {
		var d VoiceDetection
		n := wordCount(text)
		if n == 0 {
			return d
		}
		fillers := len(voiceFillerPattern.FindAllStringIndex(text, -1))
		d.FillerDensity = round2(float64(fillers) / float64(n))
		d.Corrections = len(voiceCorrectionPattern.FindAllStringIndex(text, -1))
		sentences := splitSentences(text)
		d.RunOn = n >= runOnWords && len(sentences) <= 1

		if d.FillerDensity >= 0.05 {
			d.Score++
		}
		if d.FillerDensity >= 0.1 {
			d.Score++
		}
		if d.Corrections > 0 {
			d.Score++
		}
		if d.RunOn {
			d.Score++
		}
		if !strings.ContainsAny(text, ".?!") && n >= 12 {
			d.Score++
		}
		d.IsVoice = d.Score >= voiceScoreThreshold
		return d
	})
}

// CleanVoice collapses self-corrections to the corrected segment, strips
// fillers, digitizes spoken numbers and inserts basic punctuation.
func CleanVoice(text string) string {
	out := collapseCorrections(text)
	for {
		next := spokenFillerStrip.ReplaceAllString(out, "$1")
		if next == out {
			break
		}
		out = next
	}
	out = digitizeNumbers(out)
	out = strings.TrimSpace(multiSpace.ReplaceAllString(out, " "))
	return punctuate(out)
}

// collapseCorrections drops the words immediately before each correction
// marker, keeping what follows it.
func collapseCorrections(text string) string {
	for {
		loc := voiceCorrectionPattern.FindStringIndex(text)
		if loc == nil {
			return text
		}
		before := strings.Fields(text[:loc[0]])
		keep := len(before) - correctionDropWords
		if keep < 0 {
			keep = 0
		}
		// Stop at a sentence end so earlier sentences survive.
		for i := len(before) - 1; i >= keep; i-- {
			if strings.ContainsAny(before[i], ".?!") {
				keep = i + 1
				break
			}
		}
		text = strings.Join(before[:keep], " ") + " " + strings.TrimSpace(text[loc[1]:])
	}
}

// digitizeNumbers replaces spoken cardinals below one hundred with digits.
func digitizeNumbers(text string) string {
	fields := strings.Fields(text)
	var out []string
	for i := 0; i < len(fields); i++ {
		word, trail := splitTrailingPunct(fields[i])
		v, ok := spokenNumbers[strings.ToLower(word)]
		if !ok {
			out = append(out, fields[i])
			continue
		}
		if v >= 20 && v%10 == 0 && trail == "" && i+1 < len(fields) {
			nextWord, nextTrail := splitTrailingPunct(fields[i+1])
			if u, ok := spokenNumbers[strings.ToLower(nextWord)]; ok && u > 0 && u < 10 {
				v += u
				trail = nextTrail
				i++
			}
		}
		out = append(out, strconv.Itoa(v)+trail)
	}
	return strings.Join(out, " ")
}

func splitTrailingPunct(w string) (string, string) {
	end := len(w)
	for end > 0 && unicode.IsPunct(rune(w[end-1])) {
		end--
	}
	return w[:end], w[end:]
}

// punctuate capitalizes the first letter and ends the text with a period.
func punctuate(text string) string {
	if text == "" {
		return text
	}
	r := []rune(text)
	r[0] = unicode.ToUpper(r[0])
	text = string(r)
	if !strings.ContainsAny(text[len(text)-1:], ".?!") {
		text += "."
	}
	return text
}
