package core

import "github.com/valter-silva-au/story-digest/pkg/models"

// followupRules detect answers that open a new question. Label is the
// trigger name; Weight is unused.
var followupRules = []Rule{
	rule(`\b(multiple|several|many|more than one|up to \d+|each|every)\b`, 1, "multiplicity"),
	rule(`\b(if|unless|only when|depending on|except)\b`, 1, "conditionality"),
	rule(`\b(delete|remove|erase|purge|cancel|archive)\b`, 1, "destructive"),
	rule(`\b(admin|admins|administrator|manager|owner|role|roles|permission|permissions)\b`, 1, "permission"),
	rule(`\b(later|phase two|phase 2|future|next release|eventually|v2)\b`, 1, "deferred"),
}

var followupPriority = map[string]models.Priority{
	"multiplicity":   models.P2,
	"conditionality": models.P2,
	"destructive":    models.P1,
	"permission":     models.P2,
	"deferred":       models.P3,
}

// followupTriggers returns the triggers an answer fires, in table order.
func followupTriggers(answer string) []string {
	scores := ScoreRules(followupRules, answer)
	var out []string
	for _, r := range followupRules {
		if scores[r.Label] > 0 {
			out = append(out, r.Label)
		}
	}
	return out
}

// hasFollowup reports whether the topic already has a follow-up for trigger.
func hasFollowup(cs *models.ClarificationSet, topicID, trigger string) bool {
	for _, q := range cs.Questions {
		if q.Type == models.QuestionFollowup && q.TopicID == topicID && q.Trigger == trigger {
			return true
		}
	}
	return false
}
