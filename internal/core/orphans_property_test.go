package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/valter-silva-au/story-digest/pkg/models"
	"pgregory.net/rapid"
)

// A second pass 3 over its own output moves nothing: every meaningful
// statement already has a topic and the only change is one more coverage
// entry.
func TestProperty_OrphanResolveIdempotent(t *testing.T) {
	vocab := []string{
		"login", "credentials", "dashboard", "overview", "invoices", "company",
		"logo", "weather", "widgets", "export", "download", "quarterly", "sales",
		"password", "header", "report", "summary", "chart",
	}
	rapid.Check(t, func(rt *rapid.T) {
		topics, _ := orphanFixture()
		sm := &models.StatementMap{}
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		for i := 0; i < n; i++ {
			ws := rapid.SliceOfN(rapid.SampledFrom(vocab), 1, 6).Draw(rt, "words")
			s := transcriptStatement(fmt.Sprintf("S%d", i+1), "The "+strings.Join(ws, " ")+" should work.")
			s.Position = i
			s.Meaningful = rapid.IntRange(0, 4).Draw(rt, "meaningful") > 0
			if rapid.Bool().Draw(rt, "mapped") {
				s.TopicID = rapid.SampledFrom([]string{"T1", "T2"}).Draw(rt, "topic")
				s.Confidence = rapid.SampledFrom([]float64{0.2, 0.5, 0.9}).Draw(rt, "confidence")
				s.MatchMethod = models.MatchKeyword
			}
			sm.Statements = append(sm.Statements, s)
		}

		r := NewOrphanResolver(DefaultConfig().Orphans, nil)
		first := r.Resolve(topics, sm)
		topicsAfter := *topics
		topicsAfter.Topics = append([]models.Topic(nil), topics.Topics...)
		statementsAfter := append([]models.Statement(nil), sm.Statements...)

		second := r.Resolve(topics, sm)

		if diff := cmp.Diff(statementsAfter, sm.Statements); diff != "" {
			rt.Fatalf("statements changed on the second run (-first +second):\n%s", diff)
		}
		if diff := cmp.Diff(topicsAfter.Topics, topics.Topics); diff != "" {
			rt.Fatalf("topics changed on the second run (-first +second):\n%s", diff)
		}
		if second.Semantic+second.Clustered+second.CatchAll != 0 || len(second.NewTopics) != 0 {
			rt.Fatalf("second run reassigned statements: %+v", second)
		}
		if diff := cmp.Diff(first.Coverage, second.Coverage); diff != "" {
			rt.Fatalf("coverage changed (-first +second):\n%s", diff)
		}
		if second.Coverage.Orphans != 0 {
			rt.Fatalf("orphans left after pass 3: %+v", second.Coverage)
		}
	})
}
