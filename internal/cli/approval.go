package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/internal/core"
)

var presentCmd = &cobra.Command{
	Use:   "present",
	Short: "Present the next story awaiting a decision",
	Long: `Show the next story in the approval queue. Decide on it with
'sdg approve', 'sdg reject <reason>' or 'sdg skip'. Skipped stories come
back after every other story has been decided.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		rs, err := Digest.Present(handle())
		if err != nil {
			return err
		}
		printReviewState(rs)
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the presented story",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(core.DecisionApprove, "")
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <reason>",
	Short: "Reject the presented story",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(core.DecisionReject, strings.Join(args, " "))
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Skip the presented story for now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(core.DecisionSkip, "")
	},
}

var decided = map[core.Decision]string{
	core.DecisionApprove: "approved",
	core.DecisionReject:  "rejected",
	core.DecisionSkip:    "skipped",
}

func decide(d core.Decision, reason string) error {
	if Digest == nil {
		return fmt.Errorf("digest orchestrator not initialized")
	}
	rs, err := Digest.Decide(handle(), d, reason)
	if err != nil {
		return err
	}
	fmt.Printf("Story %s.\n\n", decided[d])
	printReviewState(rs)
	return nil
}

func printReviewState(rs *core.ReviewState) {
	if rs.Current != nil {
		printStory(*rs.Current)
		fmt.Printf("\n%d story(ies) awaiting a decision. Approve, reject <reason> or skip.\n", rs.Remaining)
		return
	}
	if rs.Done {
		fmt.Printf("Review complete: %d approved, %d rejected.\n", rs.Approved, rs.Rejected)
		fmt.Println("\nNext: sdg finalize")
		return
	}
	fmt.Println("No story to present.")
}

var finalizeForce bool

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Hand approved stories to the ready queue and close the session",
	Long: `Convert every approved story into a ready-queue task and mark the
session completed. Stories that were already handed over are not queued
twice. Finalize refuses while stories await a decision unless --force is
given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		res, err := Digest.Finalize(handle(), finalizeForce)
		if err != nil {
			return err
		}
		fmt.Printf("Session finalized: %d task(s) queued\n", len(res.Tasks))
		for _, t := range res.Tasks {
			fmt.Printf("  %s  %s  %s (%s)\n", t.ID, t.Priority, t.Title, t.StoryID)
		}
		if len(res.Duplicates) > 0 {
			fmt.Printf("  Already queued: %s\n", strings.Join(res.Duplicates, ", "))
		}
		if len(res.Unresolved) > 0 {
			fmt.Printf("  Left undecided: %s\n", strings.Join(res.Unresolved, ", "))
		}
		return nil
	},
}

func init() {
	finalizeCmd.Flags().BoolVar(&finalizeForce, "force", false, "Finalize even when stories await a decision")
	rootCmd.AddCommand(presentCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(finalizeCmd)
}
