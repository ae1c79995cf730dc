package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

func TestParseAnswers(t *testing.T) {
	columns := models.Question{ID: "Q1", Type: models.QuestionCompleteness, EntityType: "table", Detail: "columns"}
	format := models.Question{ID: "Q2", Type: models.QuestionCompleteness, EntityType: "export", Detail: "format"}
	both := []models.Question{columns, format}

	tests := []struct {
		name    string
		text    string
		pending []models.Question
		want    []ParsedAnswer
	}{
		{
			name:    "numbered",
			text:    "1. Name, region and revenue 2. CSV only",
			pending: both,
			want: []ParsedAnswer{
				{QuestionID: "Q1", Text: "Name, region and revenue", Strategy: StrategyNumbered},
				{QuestionID: "Q2", Text: "CSV only", Strategy: StrategyNumbered},
			},
		},
		{
			name:    "keyword anchored",
			text:    "Export as CSV. Columns are name and revenue.",
			pending: both,
			want: []ParsedAnswer{
				{QuestionID: "Q2", Text: "Export as CSV.", Strategy: StrategyKeyword},
				{QuestionID: "Q1", Text: "Columns are name and revenue.", Strategy: StrategyKeyword},
			},
		},
		{
			name:    "passthrough",
			text:    "Name and revenue",
			pending: []models.Question{columns},
			want:    []ParsedAnswer{{QuestionID: "Q1", Text: "Name and revenue", Strategy: StrategyPassthrough}},
		},
		{
			name:    "positional",
			text:    "Name and revenue. Yes.",
			pending: both,
			want: []ParsedAnswer{
				{QuestionID: "Q1", Text: "Name and revenue.", Strategy: StrategyPositional},
				{QuestionID: "Q2", Text: "Yes.", Strategy: StrategyPositional},
			},
		},
		{
			name:    "repeated number joins segments",
			text:    "1. name and email 1. also the role",
			pending: both,
			want:    []ParsedAnswer{{QuestionID: "Q1", Text: "name and email also the role", Strategy: StrategyNumbered}},
		},
		{
			name:    "unattributable",
			text:    "Name and revenue",
			pending: both,
		},
		{
			name:    "empty",
			text:    "   ",
			pending: both,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnswers(tt.text, tt.pending)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAnswers (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnswerConfidence(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"Name and revenue", 0.9},
		{"Maybe CSV, I think", 0.5},
		{"Yes, exactly that", 1},
		{"maybe perhaps probably, I guess, not sure", 0.3},
		{"No, maybe not", 0.8},
	}
	for _, tt := range tests {
		if got := AnswerConfidence(tt.text); got != tt.want {
			t.Errorf("AnswerConfidence(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDetectVoice(t *testing.T) {
	h := NewHeuristics(nil)

	spoken := h.DetectVoice("um so like we need uh a table you know with like the revenue and stuff and um the export")
	if !spoken.IsVoice || spoken.Score < voiceScoreThreshold || spoken.FillerDensity < 0.1 {
		t.Errorf("expected speech-to-text, got %+v", spoken)
	}

	typed := h.DetectVoice("We need a revenue table with a CSV export.")
	if typed.IsVoice || typed.Score != 0 {
		t.Errorf("expected typed text, got %+v", typed)
	}

	if empty := h.DetectVoice(""); empty.IsVoice {
		t.Errorf("empty text is never voice: %+v", empty)
	}
}

func TestCleanVoice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"um so the table should show twenty five rows you know", "So the table should show 25 rows."},
		{"We need exports. CSV no wait PDF", "We need exports. PDF."},
		{"ten items", "10 items."},
		{"Already clean.", "Already clean."},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanVoice(tt.in); got != tt.want {
			t.Errorf("CleanVoice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
