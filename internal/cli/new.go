package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/internal/core"
)

var newTitleFlag string

var newCmd = &cobra.Command{
	Use:   "new <input|->",
	Short: "Start a digest session from a transcript",
	Long: `Start a new digest session from a transcript file, or from stdin when
the input is "-".

The input is normalized (speaker turns, timestamps, chat exports, voice
filler), split into chunks when it is too large, and run through pass 1:
topic and statement extraction. The new session becomes the active one.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}

		raw, err := readInput(args[0])
		if err != nil {
			return err
		}

		res, err := Digest.NewSession(core.NewSessionInput{
			Path:  args[0],
			Raw:   raw,
			Title: newTitleFlag,
		})
		if err != nil {
			return err
		}

		in := res.Session.Input
		fmt.Printf("Created session %s: %s\n", res.Session.ID, res.Session.Title)
		fmt.Printf("  Format:     %s (%s)\n", in.Format, in.SourceType)
		fmt.Printf("  Language:   %s (%.2f)\n", in.Language, in.LanguageConfidence)
		fmt.Printf("  Size:       %d words, ~%d tokens\n", in.WordCount, in.TokenCount)
		if res.Chunking.Chunked {
			fmt.Printf("  Chunked:    %d chunks (%s)\n", len(res.Chunking.Chunks), res.Chunking.Reason)
		}
		fmt.Printf("  Topics:     %d\n", res.Topics)
		fmt.Printf("  Statements: %d (%d meaningful)\n", res.Statements, res.Meaningful)
		fmt.Println("\nNext: sdg pass2")
		return nil
	},
}

// readInput reads a file, or Stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}

func init() {
	newCmd.Flags().StringVar(&newTitleFlag, "title", "", "Session title (defaults to the first topic)")
	rootCmd.AddCommand(newCmd)
}
