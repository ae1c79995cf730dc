package core

// ContentTypeResult is the outcome of the content-type classifier.
type ContentTypeResult struct {
	Label      string
	Confidence float64
	Scores     map[string]float64
}

// contentTypeThreshold is the minimum weighted hits per 100 words.
const contentTypeThreshold = 1.0

var contentTypeRules = []Rule{
	rule(`(?m)^\s*[\w .'-]{1,40}:\s`, 1.0, "transcript"),
	rule(`\b(um+|uh+|you know|i mean|yeah|okay so)\b`, 0.5, "transcript"),
	rule(`\b(shall|must|should|required|requirement)\b`, 1.0, "requirements"),
	rule(`\b(the system|the user|users? can|ability to)\b`, 0.8, "requirements"),
	rule(`\b(api|endpoint|schema|database|latency|protocol|json|http)\b`, 1.0, "technical_spec"),
	rule(`\b(architecture|component|interface|throughput)\b`, 0.6, "technical_spec"),
	rule(`\b(agenda|attendees|action items?|minutes|next steps|decided)\b`, 1.2, "meeting_notes"),
	rule(`\bas an? [\w ]{1,30},? i want\b`, 3.0, "user_story"),
	rule(`\b(so that|acceptance criteria|given .{1,60} when .{1,60} then)\b`, 1.5, "user_story"),
	rule(`\b(steps to reproduce|expected( behavior| result)?|actual( behavior| result)?|stack trace|regression)\b`, 2.0, "bug_report"),
	rule(`\b(crash(es|ed)?|error|exception|fails?)\b`, 0.6, "bug_report"),
	rule(`(?m)^#{1,6}\s`, 1.0, "documentation"),
	rule(`\b(installation|usage|overview|getting started|example)\b`, 0.8, "documentation"),
	rule(`(?m)^(from|to|cc|subject|sent):\s`, 2.0, "email_thread"),
	rule(`\b(regards|best,|thanks,|wrote:)`, 1.0, "email_thread"),
	rule(`(?m)^\s*(func|def|class|import|package|public|private|return)\b`, 2.0, "code"),
	rule(`[{};]\s*$`, 0.5, "code"),
}

// DetectContentType scores the content-type rule table normalized by word
// count. Scores below the threshold yield "unknown".
func (n *Normalizer) DetectContentType(text string) ContentTypeResult {
	fallback := ContentTypeResult{Label: "unknown"}
	return memo(n.h, "content_type", text, fallback, func() ContentTypeResult {
		wc := wordCount(text)
		if wc == 0 {
			return fallback
		}
		raw := ScoreRules(contentTypeRules, text)
		scores := make(map[string]float64, len(raw))
		total := 0.0
		for label, s := range raw {
			scores[label] = s / (float64(wc) / 100)
			total += scores[label]
		}
		label, best := BestLabel(scores, contentTypeThreshold)
		if label == "" {
			return ContentTypeResult{Label: "unknown", Scores: scores}
		}
		return ContentTypeResult{Label: label, Confidence: round2(best / total), Scores: scores}
	})
}
