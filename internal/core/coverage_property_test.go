package core

import (
	"fmt"
	"math"
	"testing"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"pgregory.net/rapid"
)

// Mapped and orphan statements always add up to the meaningful count, and
// the percentage is mapped over meaningful rounded to one decimal.
func TestProperty_CoverageArithmetic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		sm := &models.StatementMap{}
		meaningful, mapped := 0, 0
		for i := 0; i < n; i++ {
			s := models.Statement{
				ID:         fmt.Sprintf("S%d", i+1),
				Text:       "The table shows totals.",
				Meaningful: rapid.Bool().Draw(rt, "meaningful"),
				TopicID:    rapid.SampledFrom([]string{"", "T1", "T2"}).Draw(rt, "topic"),
			}
			if s.Meaningful {
				meaningful++
				if s.TopicID != "" {
					mapped++
				}
			}
			sm.Statements = append(sm.Statements, s)
		}

		snap := ComputeCoverage("pass2", sm)

		if snap.Mapped+snap.Orphans != snap.Meaningful {
			rt.Fatalf("mapped %d + orphans %d != meaningful %d", snap.Mapped, snap.Orphans, snap.Meaningful)
		}
		if snap.Meaningful != meaningful || snap.Mapped != mapped {
			rt.Fatalf("counted %d/%d, want %d/%d", snap.Mapped, snap.Meaningful, mapped, meaningful)
		}
		want := 100.0
		if meaningful > 0 {
			want = math.Round(float64(mapped)/float64(meaningful)*100*10) / 10
		}
		if snap.Percentage != want {
			rt.Fatalf("percentage = %v, want %v", snap.Percentage, want)
		}
		if snap.Percentage < 0 || snap.Percentage > 100 {
			rt.Fatalf("percentage out of range: %v", snap.Percentage)
		}
	})
}
