package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/internal/storage"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Inspect the ready queue of finalized stories",
}

var (
	readyListJSON     bool
	readyListPriority []string
	readyListSession  string
	readyListTags     []string
)

var readyListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List ready-queue tasks",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if ReadyQueue == nil {
			return fmt.Errorf("ready queue not initialized")
		}
		if err := ReadyQueue.Load(); err != nil {
			return err
		}
		filter := storage.ReadyFilter{SessionID: readyListSession, Tags: readyListTags}
		for _, p := range readyListPriority {
			filter.Priority = append(filter.Priority, models.Priority(strings.ToUpper(p)))
		}
		tasks := ReadyQueue.FilterTasks(filter)

		if readyListJSON {
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		if len(tasks) == 0 {
			fmt.Println("Ready queue is empty.")
			return nil
		}
		fmt.Printf("  %-12s %-4s %-10s %-8s %s\n", "ID", "PRI", "SESSION", "STORY", "TITLE")
		for _, t := range tasks {
			fmt.Printf("  %-12s %-4s %-10s %-8s %s\n", t.ID, t.Priority, t.SessionID, t.StoryID, t.Title)
		}
		return nil
	},
}

func init() {
	readyListCmd.Flags().BoolVar(&readyListJSON, "json", false, "Output tasks as JSON")
	readyListCmd.Flags().StringSliceVar(&readyListPriority, "priority", nil, "Filter by priority (P1,P2,...)")
	readyListCmd.Flags().StringVar(&readyListSession, "from-session", "", "Filter by originating session")
	readyListCmd.Flags().StringSliceVar(&readyListTags, "tag", nil, "Filter by tag (repeatable)")
	readyCmd.AddCommand(readyListCmd)
	rootCmd.AddCommand(readyCmd)
}
