package cli

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// statusOrder defines the display order for the interactive picker
// (active first, then in_progress, archived).
var statusOrder = []models.SessionStatus{
	models.SessionActive,
	models.SessionInProgress,
	models.SessionArchived,
}

// pickSession shows a numbered list of switchable sessions and returns
// the selected session ID. Returns an error if no sessions are available
// or the user cancels.
func pickSession() (string, error) {
	if Digest == nil {
		return "", fmt.Errorf("digest orchestrator not initialized")
	}

	sessions, err := Digest.ListSessions(statusOrder...)
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions to switch to (use 'sdg new <input>' to create one)")
	}

	// Sort by status order, then most recently updated first.
	sort.SliceStable(sessions, func(i, j int) bool {
		si := statusIndex(sessions[i].Status)
		sj := statusIndex(sessions[j].Status)
		if si != sj {
			return si < sj
		}
		return sessions[i].Updated.After(sessions[j].Updated)
	})

	fmt.Println("\nSessions:")
	fmt.Println()
	fmt.Printf("  %-4s %-10s %-12s %-15s %s\n", "#", "ID", "STATUS", "PHASE", "TITLE")
	fmt.Printf("  %-4s %-10s %-12s %-15s %s\n", "---", "--", "------", "-----", "-----")
	for i, s := range sessions {
		fmt.Printf("  %-4d %-10s %-12s %-15s %s\n", i+1, s.ID, s.Status, s.CurrentPhase, s.Title)
	}
	fmt.Println()

	reader := bufio.NewReader(Stdin)
	for {
		fmt.Printf("Select session [1-%d] (or 'q' to cancel): ", len(sessions))
		input, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "q" || input == "Q" {
			return "", fmt.Errorf("cancelled")
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(sessions) {
			fmt.Printf("  Invalid selection. Enter a number between 1 and %d.\n", len(sessions))
			continue
		}
		return sessions[num-1].ID, nil
	}
}

// statusIndex returns a sort key for status ordering in the picker.
func statusIndex(s models.SessionStatus) int {
	for i, status := range statusOrder {
		if s == status {
			return i
		}
	}
	return len(statusOrder)
}
