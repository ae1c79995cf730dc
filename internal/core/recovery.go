package core

import (
	"time"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

const recentAnswerLimit = 3

// RecoverySummary describes a clarification round that was interrupted
// after questions were presented and before any answer arrived.
type RecoverySummary struct {
	SessionID       string
	Answered        int
	Pending         int
	Ratio           float64
	RecentAnswers   []models.Question
	Elapsed         time.Duration
	LastInteraction models.InteractionType
}

// Recovery inspects the last checkpoint of a session. When it was a
// question batch with no later answer, the session is flagged as awaiting
// a response and a summary is returned. Otherwise it returns nil.
func (o *Orchestrator) Recovery(h Handle) (*RecoverySummary, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	sum := o.recoverySummary(st)
	if sum == nil {
		return nil, nil
	}
	if !st.session.AwaitingResponse {
		st.session.AwaitingResponse = true
		if err := o.saveSession(st.session); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (o *Orchestrator) recoverySummary(st *state) *RecoverySummary {
	last := st.conversation.Last()
	if last == nil || last.Type != models.InteractionQuestionsPresented {
		return nil
	}
	pending := st.clarifications.Pending()
	waiting := 0
	for _, q := range pending {
		if q.Presented {
			waiting++
		}
	}
	if waiting == 0 {
		return nil
	}
	answered := st.clarifications.Answered()
	sum := &RecoverySummary{
		SessionID:       st.session.ID,
		Answered:        len(answered),
		Pending:         len(pending),
		Elapsed:         o.now().Sub(last.Time),
		LastInteraction: last.Type,
	}
	if total := sum.Answered + sum.Pending; total > 0 {
		sum.Ratio = round2(float64(sum.Answered) / float64(total))
	}
	start := len(answered) - recentAnswerLimit
	if start < 0 {
		start = 0
	}
	sum.RecentAnswers = answered[start:]
	return sum
}
