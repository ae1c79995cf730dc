package core

import (
	"fmt"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// signatureLen bounds the normalized-text prefix used to spot statements
// repeated in overlap regions. Distinct statements sharing a longer prefix
// are merged; that is a known limitation of the heuristic.
const signatureLen = 100

// ChunkResult holds the pass-1 output of one chunk.
type ChunkResult struct {
	ChunkIndex int
	Topics     []models.Topic
	Statements []models.Statement
}

func chunkID(index int) string {
	return fmt.Sprintf("chunk-%d", index+1)
}

// MergeChunkResults combines per-chunk results. Topics merge on their
// normalized title, unioning keywords, entities and contributing chunk ids.
// Statements merge on a truncated normalized-text signature. Every id is
// regenerated sequentially.
func MergeChunkResults(results []ChunkResult) (models.TopicSet, []models.Statement, models.MergeReport) {
	var report models.MergeReport
	var merged models.TopicSet
	byKey := make(map[string]int)

	for _, res := range results {
		remap := make(map[string]string)
		for _, t := range res.Topics {
			report.TopicsBefore++
			key := normalizeKey(t.Title)
			idx, ok := byKey[key]
			if !ok {
				nt := t
				nt.ID = fmt.Sprintf("T%d", len(merged.Topics)+1)
				nt.Keywords = unionStrings(nil, t.Keywords)
				nt.Entities = unionStrings(nil, t.Entities)
				nt.ChunkIDs = nil
				merged.Topics = append(merged.Topics, nt)
				idx = len(merged.Topics) - 1
				byKey[key] = idx
			} else {
				mt := &merged.Topics[idx]
				mt.Keywords = unionStrings(mt.Keywords, t.Keywords)
				mt.Entities = unionStrings(mt.Entities, t.Entities)
			}
			mt := &merged.Topics[idx]
			mt.ChunkIDs = unionStrings(mt.ChunkIDs, []string{chunkID(res.ChunkIndex)})
			remap[t.ID] = mt.ID
		}
		for i := range res.Statements {
			res.Statements[i].TopicID = remap[res.Statements[i].TopicID]
		}
	}

	seen := make(map[string]bool)
	var statements []models.Statement
	for _, res := range results {
		for _, s := range res.Statements {
			report.StatementsBefore++
			sig := statementSignature(s.Text)
			if seen[sig] {
				report.DuplicatesDropped++
				continue
			}
			seen[sig] = true
			s.ID = fmt.Sprintf("S%d", len(statements)+1)
			s.Position = len(statements)
			statements = append(statements, s)
		}
	}

	report.TopicsAfter = len(merged.Topics)
	report.StatementsAfter = len(statements)
	return merged, statements, report
}

func statementSignature(text string) string {
	key := []rune(normalizeKey(text))
	if len(key) > signatureLen {
		key = key[:signatureLen]
	}
	return string(key)
}

// unionStrings appends the items of add missing from base, keeping order.
func unionStrings(base, add []string) []string {
	seen := make(map[string]bool, len(base))
	for _, b := range base {
		seen[b] = true
	}
	out := append([]string(nil), base...)
	for _, a := range add {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
