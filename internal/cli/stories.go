package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/internal/core"
)

var generateStoriesCmd = &cobra.Command{
	Use:   "generate-stories",
	Short: "Synthesize user stories from the digested session",
	Long: `Generate one draft user story per active topic. Every acceptance
criterion is traced to the transcript statement or the answered question
it came from; criteria without a source are listed as assumptions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		set, err := Digest.GenerateStories(handle())
		if err != nil {
			return err
		}
		fmt.Printf("Generated %d stories\n\n", len(set.Stories))
		for _, s := range set.Stories {
			printStorySummary(s)
		}
		fmt.Println("\nNext: sdg present (or sdg review)")
		return nil
	},
}

var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "Inspect and edit generated stories",
}

var storyListJSON bool

var storyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stories of the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		set, err := Digest.Stories(handle())
		if err != nil {
			return err
		}
		if storyListJSON {
			data, err := json.MarshalIndent(set.Stories, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stories as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		if len(set.Stories) == 0 {
			fmt.Println("No stories.")
			return nil
		}
		fmt.Printf("  %-8s %-9s %-3s %6s  %-10s %s\n", "ID", "STATUS", "CX", "COVER", "VALID", "TITLE")
		for _, s := range set.Stories {
			printStorySummary(s)
		}
		return nil
	},
}

var storyShowCmd = &cobra.Command{
	Use:   "show <story-id>",
	Short: "Show a story with its criteria and sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		set, err := Digest.Stories(handle())
		if err != nil {
			return err
		}
		s := set.Find(args[0])
		if s == nil {
			return fmt.Errorf("story %s not found", args[0])
		}
		printStory(*s)
		return nil
	},
}

var storyEditCmd = &cobra.Command{
	Use:   "edit <story-id>",
	Short: "Edit a story",
	Long: `Edit a story's title, role, action or benefit, add criteria written
as "given|when|then", or remove criteria by id. The whole edit is
validated before anything is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		edit := core.StoryEdit{}
		for _, f := range []struct {
			name string
			dst  **string
		}{
			{"title", &edit.Title},
			{"role", &edit.Role},
			{"action", &edit.Action},
			{"benefit", &edit.Benefit},
		} {
			if cmd.Flags().Changed(f.name) {
				v, _ := cmd.Flags().GetString(f.name)
				*f.dst = &v
			}
		}
		adds, _ := cmd.Flags().GetStringArray("add")
		for _, a := range adds {
			c, err := core.ParseCriterion(a)
			if err != nil {
				return err
			}
			edit.AddCriteria = append(edit.AddCriteria, c)
		}
		edit.RemoveCriteria, _ = cmd.Flags().GetStringSlice("remove")

		story, err := Digest.EditStory(handle(), args[0], edit)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n\n", story.ID)
		printStory(*story)
		return nil
	},
}

func init() {
	storyListCmd.Flags().BoolVar(&storyListJSON, "json", false, "Output stories as JSON")

	storyEditCmd.Flags().String("title", "", "New story title")
	storyEditCmd.Flags().String("role", "", "New role (As a ...)")
	storyEditCmd.Flags().String("action", "", "New action (I want ...)")
	storyEditCmd.Flags().String("benefit", "", "New benefit (so that ...)")
	storyEditCmd.Flags().StringArray("add", nil, `Add a criterion written as "given|when|then" (repeatable)`)
	storyEditCmd.Flags().StringSlice("remove", nil, "Remove criteria by id")

	storyCmd.AddCommand(storyListCmd)
	storyCmd.AddCommand(storyShowCmd)
	storyCmd.AddCommand(storyEditCmd)
	rootCmd.AddCommand(generateStoriesCmd)
	rootCmd.AddCommand(storyCmd)
}
