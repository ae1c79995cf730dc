package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Show the next batch of clarification questions",
	Long: `Generate clarification questions for missing details, vague wording,
unresolved contradictions and ambiguous placements, then show the next
batch in priority order. Reply with 'sdg answer'.

When nothing is left to ask, the clarify phase is completed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		res, err := Digest.Questions(handle())
		if err != nil {
			return err
		}
		if len(res.Batch) == 0 {
			fmt.Println("No open questions.")
			fmt.Println("\nNext: sdg generate-stories")
			return nil
		}
		if res.Generated > 0 {
			fmt.Printf("%d new question(s) generated.\n\n", res.Generated)
		}
		printQuestions(res.Batch)
		if rest := res.Pending - len(res.Batch); rest > 0 {
			fmt.Printf("\n%d more question(s) pending after this batch.\n", rest)
		}
		fmt.Println(`
Answer with: sdg answer "1. ... 2. ..."`)
		return nil
	},
}

var answerVoiceFlag bool

var answerCmd = &cobra.Command{
	Use:   "answer <text|->",
	Short: "Answer the presented clarification questions",
	Long: `Record a free-text reply to the presented questions. Number the
answers ("1. ... 2. ...") to answer several at once; a single answer goes
to the first presented question. Use "-" to read the reply from stdin.

Dictated replies are detected automatically and cleaned of filler words
and self-corrections. Use --voice to force voice cleanup.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		reply := strings.Join(args, " ")
		if reply == "-" {
			var err error
			if reply, err = readInput("-"); err != nil {
				return err
			}
		}
		voice := answerVoiceFlag || (Config != nil && Config.Clarify.ForceVoice)

		res, err := Digest.Answer(handle(), reply, voice)
		if err != nil {
			return err
		}

		if res.Voice {
			fmt.Printf("Voice input cleaned: %q\n", res.Cleaned)
		}
		fmt.Printf("Recorded %d answer(s) (%s, confidence %.2f)\n", len(res.Answered), res.Strategy, res.Confidence)
		for i, id := range res.Answered {
			fmt.Printf("  %s -> %s\n", id, res.Derived[i])
		}
		if len(res.Followups) > 0 {
			fmt.Printf("  Follow-up questions added: %s\n", strings.Join(res.Followups, ", "))
		}
		if res.Unmatched > 0 {
			fmt.Printf("  %d presented question(s) still unanswered\n", res.Unmatched)
		}
		if res.StillPending > 0 {
			fmt.Printf("\n%d question(s) pending. Next: sdg questions\n", res.StillPending)
		} else {
			fmt.Println("\nAll questions answered. Next: sdg generate-stories")
		}
		return nil
	},
}

func init() {
	answerCmd.Flags().BoolVar(&answerVoiceFlag, "voice", false, "Treat the reply as dictated speech")
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(answerCmd)
}
