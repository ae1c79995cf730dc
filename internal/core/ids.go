package core

import (
	"fmt"
	"strconv"
	"strings"
)

func statementID(n int) string     { return fmt.Sprintf("S%d", n) }
func topicID(n int) string         { return fmt.Sprintf("T%d", n) }
func questionID(n int) string      { return fmt.Sprintf("Q%d", n) }
func contradictionID(n int) string { return fmt.Sprintf("C%d", n) }
func storyID(n int) string         { return fmt.Sprintf("US-%03d", n) }
func criterionID(n int) string     { return fmt.Sprintf("AC%d", n) }

// nextSeq returns one more than the largest numeric suffix among ids that
// carry prefix.
func nextSeq(prefix string, ids []string) int {
	max := 0
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(id, prefix)); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}
