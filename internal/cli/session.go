package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage digest sessions",
	Long: `List, switch between, archive and delete digest sessions, and show
the progress of one session.`,
}

var sessionListAll bool

var sessionListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List digest sessions",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		var statuses []models.SessionStatus
		if !sessionListAll {
			statuses = []models.SessionStatus{models.SessionActive, models.SessionInProgress}
		}
		sessions, err := Digest.ListSessions(statuses...)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		active, _ := Digest.ActiveSessionID()
		fmt.Printf("  %-2s %-10s %-12s %-15s %-17s %s\n", "", "ID", "STATUS", "PHASE", "UPDATED", "TITLE")
		for _, s := range sessions {
			marker := ""
			if s.ID == active {
				marker = "*"
			}
			fmt.Printf("  %-2s %-10s %-12s %-15s %-17s %s\n",
				marker, s.ID, s.Status, s.CurrentPhase, s.Updated.Format("2006-01-02 15:04"), s.Title)
		}
		return nil
	},
}

var sessionSwitchCmd = &cobra.Command{
	Use:         "switch [session-id]",
	Short:       "Make another session the active one",
	Long:        `Make the given session active. Without an argument, pick from a list.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		var id string
		if len(args) == 1 {
			id = args[0]
		} else {
			picked, err := pickSession()
			if err != nil {
				return err
			}
			id = picked
		}
		sess, err := Digest.Switch(id)
		if err != nil {
			return err
		}
		fmt.Printf("Active session: %s (%s)\n", sess.ID, sess.Title)
		fmt.Printf("  Phase: %s\n", sess.CurrentPhase)
		if sum, err := Digest.Recovery(core.Handle{SessionID: sess.ID}); err == nil && sum != nil {
			fmt.Println()
			printRecovery(sum)
		}
		return nil
	},
}

var sessionArchiveCmd = &cobra.Command{
	Use:         "archive <session-id>",
	Short:       "Archive a session",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		if err := Digest.Archive(args[0]); err != nil {
			return err
		}
		fmt.Printf("Archived session %s\n", args[0])
		return nil
	},
}

var sessionDeleteForce bool

var sessionDeleteCmd = &cobra.Command{
	Use:         "delete <session-id>",
	Short:       "Delete a session and all of its documents",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		if err := Digest.Delete(args[0], sessionDeleteForce); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress of the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		rep, err := Digest.Status(handle())
		if err != nil {
			return err
		}
		s := rep.Session
		fmt.Printf("Session %s: %s\n", s.ID, s.Title)
		fmt.Printf("  Status:  %s\n", s.Status)
		fmt.Printf("  Input:   %s (%s, %d words)\n", s.Input.Path, s.Input.Format, s.Input.WordCount)
		fmt.Println("\n  Phases:")
		for _, p := range models.PhaseOrder {
			rec := s.Phases[p]
			status := string(rec.Status)
			if status == "" {
				status = string(models.PhasePending)
			}
			line := fmt.Sprintf("    %-15s %-10s", p, status)
			if rec.Note != "" {
				line += " " + rec.Note
			}
			fmt.Println(line)
		}
		fmt.Println()
		fmt.Printf("  Topics: %d  Statements: %d  Contradictions: %d\n", rep.Topics, rep.Statements, rep.Contradictions)
		printCoverage(rep.Coverage)
		fmt.Printf("  Questions: %d (%d pending)\n", rep.Questions, rep.Pending)
		if len(rep.Stories) > 0 {
			fmt.Printf("  Stories: %d draft, %d approved, %d rejected, %d skipped\n",
				rep.Stories[models.StoryDraft], rep.Stories[models.StoryApproved],
				rep.Stories[models.StoryRejected], rep.Stories[models.StorySkipped])
		}
		if s.AwaitingResponse {
			fmt.Println("\n  Waiting for answers: run 'sdg questions' to see them again.")
		}
		return nil
	},
}

func init() {
	sessionListCmd.Flags().BoolVar(&sessionListAll, "all", false, "Include completed and archived sessions")
	sessionDeleteCmd.Flags().BoolVar(&sessionDeleteForce, "force", false, "Confirm the deletion")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionSwitchCmd)
	sessionCmd.AddCommand(sessionArchiveCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	rootCmd.AddCommand(sessionCmd)
}
