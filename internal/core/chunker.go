package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// boundaryPriority lists the natural boundaries from most to least preferred.
var boundaryPriority = []models.BoundaryType{
	models.BoundarySpeakerChange,
	models.BoundaryParagraph,
	models.BoundaryNewline,
	models.BoundarySentence,
}

// ChunkPlanner splits oversized inputs into chunks.
type ChunkPlanner struct {
	cfg models.ChunkingConfig
}

// NewChunkPlanner creates a ChunkPlanner with the given thresholds.
func NewChunkPlanner(cfg models.ChunkingConfig) *ChunkPlanner {
	return &ChunkPlanner{cfg: cfg}
}

// NeedsChunking reports whether any size threshold is exceeded and why.
func (p *ChunkPlanner) NeedsChunking(words, tokens, chars int) (bool, string) {
	switch {
	case p.cfg.MaxWords > 0 && words > p.cfg.MaxWords:
		return true, fmt.Sprintf("word count %d exceeds %d", words, p.cfg.MaxWords)
	case p.cfg.MaxTokens > 0 && tokens > p.cfg.MaxTokens:
		return true, fmt.Sprintf("token estimate %d exceeds %d", tokens, p.cfg.MaxTokens)
	case p.cfg.MaxChars > 0 && chars > p.cfg.MaxChars:
		return true, fmt.Sprintf("character count %d exceeds %d", chars, p.cfg.MaxChars)
	}
	return false, ""
}

// Plan cuts text into chunks whose [StartOffset, EndOffset) spans tile
// [0, len(text)) exactly. Every cut moves strictly forward. Boundary is the
// kind of cut that ends the chunk; the final chunk repeats the kind of the
// cut that starts it. Speaker changes are only considered when speakers is
// set, since plain prose has no speaker prefixes.
func (p *ChunkPlanner) Plan(text string, speakers bool) []models.Chunk {
	if text == "" {
		return nil
	}
	target := p.cfg.TargetWords
	if target <= 0 {
		target = 2000
	}
	count := int(math.Ceil(float64(wordCount(text)) / float64(target)))
	if count < 1 {
		count = 1
	}

	cands := collectBoundaries(text, speakers)

	var cuts []int
	var kinds []models.BoundaryType
	prev := 0
	for i := 1; i < count; i++ {
		ideal := i * len(text) / count
		cut, kind := p.findCut(text, cands, ideal, prev)
		if cut <= prev || cut >= len(text) {
			break
		}
		cuts = append(cuts, cut)
		kinds = append(kinds, kind)
		prev = cut
	}

	chunks := make([]models.Chunk, 0, len(cuts)+1)
	start := 0
	sentenceStarts := cands[models.BoundarySentence]
	for i := 0; i <= len(cuts); i++ {
		end := len(text)
		var kind models.BoundaryType
		switch {
		case i < len(cuts):
			end, kind = cuts[i], kinds[i]
		case i > 0:
			kind = kinds[i-1]
		default:
			kind = models.BoundaryForced
		}
		span := text[start:end]
		chunks = append(chunks, models.Chunk{
			Index:        i,
			StartOffset:  start,
			EndOffset:    end,
			ContextStart: p.contextStart(text, sentenceStarts, start),
			WordCount:    wordCount(span),
			TokenCount:   estimateTokens(span),
			Boundary:     kind,
		})
		start = end
	}
	return chunks
}

// findCut searches [ideal-window, ideal+window] for the best natural
// boundary after prev, falling back to a forced cut.
func (p *ChunkPlanner) findCut(text string, cands map[models.BoundaryType][]int, ideal, prev int) (int, models.BoundaryType) {
	window := p.cfg.WindowChars
	lo, hi := ideal-window, ideal+window
	if lo <= prev {
		lo = prev + 1
	}
	if hi >= len(text) {
		hi = len(text) - 1
	}
	if lo <= hi {
		for _, kind := range boundaryPriority {
			if pos, ok := nearest(cands[kind], ideal, lo, hi); ok {
				return pos, kind
			}
		}
	}
	return forcedCut(text, ideal, prev, lo, hi), models.BoundaryForced
}

// nearest returns the position in sorted closest to ideal within [lo, hi].
func nearest(sorted []int, ideal, lo, hi int) (int, bool) {
	i := sort.SearchInts(sorted, lo)
	best, found := 0, false
	for ; i < len(sorted) && sorted[i] <= hi; i++ {
		if !found || abs(sorted[i]-ideal) < abs(best-ideal) {
			best, found = sorted[i], true
		}
	}
	return best, found
}

// forcedCut prefers whitespace inside the window and otherwise cuts at the
// rune start at or after ideal. The result is always greater than prev.
func forcedCut(text string, ideal, prev, lo, hi int) int {
	if ideal <= prev {
		ideal = prev + 1
	}
	for d := 0; lo <= hi && d <= hi-lo; d++ {
		for _, pos := range []int{ideal - d, ideal + d} {
			if pos >= lo && pos <= hi && pos > prev && pos < len(text) && text[pos-1] == ' ' {
				return pos
			}
		}
	}
	cut := ideal
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	return cut
}

// contextStart moves back by the overlap and then forward to the next
// sentence (or word) start so the leading context is never a fragment.
func (p *ChunkPlanner) contextStart(text string, sentenceStarts []int, start int) int {
	if start == 0 || p.cfg.OverlapChars <= 0 {
		return start
	}
	from := start - p.cfg.OverlapChars
	if from < 0 {
		from = 0
	}
	i := sort.SearchInts(sentenceStarts, from)
	if i < len(sentenceStarts) && sentenceStarts[i] < start {
		return sentenceStarts[i]
	}
	if from == 0 {
		return 0
	}
	for pos := from; pos < start; pos++ {
		if text[pos-1] == ' ' || text[pos-1] == '\n' {
			return pos
		}
	}
	return start
}

var speakerPrefix = canonicalLine

// collectBoundaries indexes every candidate cut position per boundary kind.
// A position is the offset of the first byte of the next chunk.
func collectBoundaries(text string, speakers bool) map[models.BoundaryType][]int {
	out := make(map[models.BoundaryType][]int)

	lineStart := 0
	prevSpeaker := ""
	blank := false
	for lineStart < len(text) {
		end := strings.IndexByte(text[lineStart:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += lineStart
		}
		line := text[lineStart:end]
		if strings.TrimSpace(line) == "" {
			blank = true
		} else {
			if lineStart > 0 {
				out[models.BoundaryNewline] = append(out[models.BoundaryNewline], lineStart)
				if blank {
					out[models.BoundaryParagraph] = append(out[models.BoundaryParagraph], lineStart)
				}
			}
			if m := speakerPrefix.FindStringSubmatch(line); speakers && m != nil && m[2] != "" {
				speaker := strings.TrimSpace(m[2])
				if lineStart > 0 && prevSpeaker != "" && speaker != prevSpeaker {
					out[models.BoundarySpeakerChange] = append(out[models.BoundarySpeakerChange], lineStart)
				}
				prevSpeaker = speaker
			}
			blank = false
		}
		lineStart = end + 1
	}

	for _, sp := range sentenceSpans(text) {
		if sp[0] > 0 {
			out[models.BoundarySentence] = append(out[models.BoundarySentence], sp[0])
		}
	}
	for kind := range out {
		sort.Ints(out[kind])
	}
	return out
}

// ChunkText returns the chunk's span including its leading context.
func ChunkText(text string, c models.Chunk) string {
	return text[c.ContextStart:c.EndOffset]
}

// ExtractionTexts returns the text pass 1 reads for each chunk. A forced
// cut can split a sentence, so the chunk before the cut reads on to the end
// of that sentence and the chunk after it starts at its first whole
// sentence. A chunk that lies inside one sentence reads nothing.
func ExtractionTexts(text string, chunks []models.Chunk) []string {
	spans := sentenceSpans(text)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		from, to := c.ContextStart, c.EndOffset
		if i > 0 && chunks[i-1].Boundary == models.BoundaryForced {
			from = sentenceStartFrom(spans, from, len(text))
		}
		if i < len(chunks)-1 && c.Boundary == models.BoundaryForced {
			to = sentenceEndAt(spans, to)
		}
		if from < c.EndOffset && from < to {
			out[i] = text[from:to]
		}
	}
	return out
}

// sentenceStartFrom returns the first sentence start at or after pos, or n.
func sentenceStartFrom(spans [][2]int, pos, n int) int {
	k := sort.Search(len(spans), func(k int) bool { return spans[k][0] >= pos })
	if k < len(spans) {
		return spans[k][0]
	}
	return n
}

// sentenceEndAt returns the end of the sentence pos falls inside, or pos.
func sentenceEndAt(spans [][2]int, pos int) int {
	k := sort.Search(len(spans), func(k int) bool { return spans[k][1] >= pos })
	if k < len(spans) && spans[k][0] < pos {
		return spans[k][1]
	}
	return pos
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
