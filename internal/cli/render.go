package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

func printRecovery(sum *core.RecoverySummary) {
	fmt.Printf("Resuming session %s: waiting for answers since %s ago\n", sum.SessionID, formatElapsed(sum.Elapsed))
	fmt.Printf("  Answered: %d  Pending: %d  (%.0f%% complete)\n", sum.Answered, sum.Pending, sum.Ratio*100)
	if len(sum.RecentAnswers) > 0 {
		fmt.Println("  Recent answers:")
		for _, q := range sum.RecentAnswers {
			fmt.Printf("    %s %s\n      -> %s\n", q.ID, q.Text, q.Answer)
		}
	}
	fmt.Println()
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "less than a minute"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func printQuestions(batch []models.Question) {
	for i, q := range batch {
		fmt.Printf("%d. [%s %s] %s\n", i+1, q.Priority, q.ID, q.Text)
		for j, opt := range q.Options {
			fmt.Printf("     %c) %s\n", 'a'+j, opt)
		}
	}
}

func printStorySummary(s models.Story) {
	valid := "ok"
	if !s.Valid {
		valid = "needs work"
	}
	fmt.Printf("  %-8s %-9s %-3s %5.1f%%  %-10s %s\n", s.ID, s.Status, s.Complexity, s.Coverage, valid, s.Title)
}

func printStory(s models.Story) {
	fmt.Printf("%s  %s\n", s.ID, s.Title)
	fmt.Printf("  Status:     %s\n", s.Status)
	fmt.Printf("  Topic:      %s\n", s.TopicID)
	fmt.Printf("  Complexity: %s (%s)\n", s.Complexity, core.PriorityFor(s.Complexity))
	fmt.Println()
	fmt.Printf("  %s\n", core.StorySentence(s))
	fmt.Println()
	fmt.Println("  Acceptance criteria:")
	for _, c := range s.Criteria {
		fmt.Printf("    %s: %s\n", c.ID, core.RenderCriterion(c))
		fmt.Printf("         sources: %s\n", clauseSources(c))
	}
	fmt.Printf("\n  Coverage: %.1f%%\n", s.Coverage)
	if len(s.Uncovered) > 0 {
		fmt.Printf("  Uncovered statements: %s\n", strings.Join(s.Uncovered, ", "))
	}
	for _, a := range s.Assumptions {
		fmt.Printf("  Assumption: %s\n", a)
	}
	for _, w := range s.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	if s.RejectReason != "" {
		fmt.Printf("  Rejected: %s\n", s.RejectReason)
	}
}

func clauseSources(c models.Criterion) string {
	parts := make([]string, 0, 3)
	for _, cl := range c.Clauses() {
		src := cl.Source
		if src == "" {
			src = "-"
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", src, cl.SourceType))
	}
	return strings.Join(parts, " ")
}

func printCoverage(c models.CoverageSnapshot) {
	fmt.Printf("  Coverage: %.1f%% (%d of %d meaningful statements mapped, %d orphans)\n",
		c.Percentage, c.Mapped, c.Meaningful, c.Orphans)
}
