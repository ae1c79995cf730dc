package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

var pass2Cmd = &cobra.Command{
	Use:   "pass2",
	Short: "Associate orphan statements with topics",
	Long: `Run pass 2: match every statement that has no topic against the
topic keywords, then carry topic continuity from neighbouring statements.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		snap, err := Digest.Associate(handle())
		if err != nil {
			return err
		}
		fmt.Println("Pass 2 complete")
		printCoverage(snap)
		fmt.Println("\nNext: sdg pass3")
		return nil
	},
}

var pass3Cmd = &cobra.Command{
	Use:   "pass3",
	Short: "Resolve the remaining orphan statements",
	Long: `Run pass 3: place each remaining orphan by semantic similarity,
cluster the rest into new topics, and put anything left into the
catch-all topic. Coverage after this pass is 100%.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		rep, err := Digest.ResolveOrphans(handle())
		if err != nil {
			return err
		}
		fmt.Println("Pass 3 complete")
		fmt.Printf("  Semantic matches: %d\n", rep.Semantic)
		fmt.Printf("  Clustered:        %d\n", rep.Clustered)
		fmt.Printf("  Catch-all:        %d\n", rep.CatchAll)
		if rep.Ambiguous > 0 {
			fmt.Printf("  Ambiguous:        %d (will be asked about)\n", rep.Ambiguous)
		}
		for _, t := range rep.NewTopics {
			fmt.Printf("  New topic:        %s\n", t)
		}
		printCoverage(rep.Coverage)
		fmt.Println("\nNext: sdg pass4")
		return nil
	},
}

var pass4Cmd = &cobra.Command{
	Use:   "pass4",
	Short: "Detect and resolve contradictions",
	Long: `Run pass 4: find conflicting statements within each topic. Clear
self-corrections are resolved automatically and the earlier statement is
superseded; the rest become clarification questions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		res, err := Digest.ResolveContradictions(handle())
		if err != nil {
			return err
		}
		fmt.Println("Pass 4 complete")
		fmt.Printf("  Contradictions detected: %d\n", res.Detected)
		fmt.Printf("  Auto-resolved:           %d\n", res.AutoResolved)
		fmt.Printf("  Escalated:               %d\n", res.Escalated)
		if res.NotConflicts > 0 {
			fmt.Printf("  Dismissed:               %d\n", res.NotConflicts)
		}
		if res.Questions > 0 {
			fmt.Printf("  Questions added:         %d\n", res.Questions)
		}
		fmt.Println("\nNext: sdg questions")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <phase>",
	Short: "Discard the results of a phase and every later phase",
	Long: `Discard the outputs of the given phase and of every phase after it,
so they can be run again. Valid phases: associate, orphans, contradictions,
clarify, stories, review.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"associate", "orphans", "contradictions", "clarify", "stories", "review"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		phase := models.Phase(args[0])
		if err := Digest.Reset(handle(), phase); err != nil {
			return err
		}
		fmt.Printf("Reset %s and every later phase\n", phase)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pass2Cmd)
	rootCmd.AddCommand(pass3Cmd)
	rootCmd.AddCommand(pass4Cmd)
	rootCmd.AddCommand(resetCmd)
}
