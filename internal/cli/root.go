package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/internal/observability"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// skipRecovery marks commands that do not operate on a session.
const skipRecovery = "skip-recovery"

var rootCmd = &cobra.Command{
	Use:   "sdg",
	Short: "Story digest - turn meeting transcripts into traceable user stories",
	Long: `Story digest (sdg) reads a requirements conversation (a meeting
transcript, chat export or notes) and digests it in passes: topic and
statement extraction, association, orphan and contradiction resolution,
an interactive clarification loop, and user story synthesis with
acceptance criteria traced back to the transcript.

Every step is saved, so a session can be interrupted and resumed at any
point. Phase commands act on the active session unless --session is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugFlag && Heuristics != nil {
			Heuristics.SetLogger(observability.NewLogger(true))
		}
		if Digest == nil || cmd.Annotations[skipRecovery] != "" {
			return nil
		}
		sum, err := Digest.Recovery(handle())
		if err != nil || sum == nil {
			// No active session or an unknown --session: the command reports it.
			return nil
		}
		printRecovery(sum)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipRecovery: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sdg %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "Operate on this session instead of the active one")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Write heuristic diagnostics to stderr")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
