package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

func ms(v int64) *int64 { return &v }

func TestNormalize_Formats(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		format Format
		want   []models.Entry
	}{
		{
			name: "srt",
			raw: `1
00:00:01,000 --> 00:00:04,000
Alice: We need a sales dashboard.

2
00:00:05,500 --> 00:00:08,000
Bob: It should show revenue per region.
`,
			format: FormatSRT,
			want: []models.Entry{
				{TimestampMS: ms(1000), Speaker: "Alice", Text: "We need a sales dashboard."},
				{TimestampMS: ms(5500), Speaker: "Bob", Text: "It should show revenue per region."},
			},
		},
		{
			name: "vtt merges broken cues",
			raw: `WEBVTT

00:00:01.000 --> 00:00:03.000
<v Alice>The export must include all columns

00:00:03.500 --> 00:00:05.000
<v Alice>and the totals row.</v>
`,
			format: FormatVTT,
			want: []models.Entry{
				{TimestampMS: ms(1000), Speaker: "Alice", Text: "The export must include all columns and the totals row."},
			},
		},
		{
			name: "zoom chat",
			raw: `10:01:05 From Alice Smith to Everyone: We need single sign-on.
10:02:10 From Bob to Everyone: Password reset must use email.`,
			format: FormatMeetingChat,
			want: []models.Entry{
				{TimestampMS: ms(36065000), Speaker: "Alice Smith", Text: "We need single sign-on."},
				{TimestampMS: ms(36130000), Speaker: "Bob", Text: "Password reset must use email."},
			},
		},
		{
			name: "bracketed twelve hour chat",
			raw: `[10:32 AM] Alice: The table needs a totals row.
[1:05 PM] Bob: And a CSV export.`,
			format: FormatMeetingChat,
			want: []models.Entry{
				{TimestampMS: ms(37920000), Speaker: "Alice", Text: "The table needs a totals row."},
				{TimestampMS: ms(47100000), Speaker: "Bob", Text: "And a CSV export."},
			},
		},
		{
			name:   "json meeting",
			raw:    `{"segments":[{"speaker":"Alice","text":"We need a dashboard.","start":1.5},{"speaker":{"name":"Bob"},"text":"Agreed.","start_ms":2500},{"speaker":"Eve","text":""}]}`,
			format: FormatJSONMeeting,
			want: []models.Entry{
				{TimestampMS: ms(1500), Speaker: "Alice", Text: "We need a dashboard."},
				{TimestampMS: ms(2500), Speaker: "Bob", Text: "Agreed."},
			},
		},
		{
			name:   "html chat",
			raw:    `<html><body><div>Alice: We need a dashboard.</div><div>Bob: With a revenue table.</div></body></html>`,
			format: FormatHTMLChat,
			want: []models.Entry{
				{Speaker: "Alice", Text: "We need a dashboard."},
				{Speaker: "Bob", Text: "With a revenue table."},
			},
		},
		{
			name:   "bom and crlf",
			raw:    "\ufeffAlice: Hello there everyone.\r\nBob: Hi Alice, welcome aboard.\r\n",
			format: FormatMeetingChat,
			want: []models.Entry{
				{Speaker: "Alice", Text: "Hello there everyone."},
				{Speaker: "Bob", Text: "Hi Alice, welcome aboard."},
			},
		},
	}

	n := NewNormalizer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if got.Format != tt.format {
				t.Errorf("Format = %s, want %s", got.Format, tt.format)
			}
			if diff := cmp.Diff(tt.want, got.Entries); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
			if got.SourceType != "transcript" || got.SourceConfidence != 1 {
				t.Errorf("source = %s (%v), want transcript (1)", got.SourceType, got.SourceConfidence)
			}
			if strings.ContainsAny(got.Text, "\r\ufeff<") {
				t.Errorf("canonical text not clean: %q", got.Text)
			}
		})
	}
}

func TestNormalize_CanonicalText(t *testing.T) {
	got := NewNormalizer(nil).Normalize(`1
00:00:01,000 --> 00:00:04,000
Alice: We need a sales dashboard.

2
01:02:03,000 --> 01:02:05,000
Bob: It should show revenue per region.
`)
	want := "[00:01] Alice: We need a sales dashboard.\n[1:02:03] Bob: It should show revenue per region."
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if diff := cmp.Diff(got.Entries, EntriesFor(got.Format, got.Text)); diff != "" {
		t.Errorf("canonical text does not parse back (-normalized +reparsed):\n%s", diff)
	}
}

func TestNormalize_PlainText(t *testing.T) {
	got := NewNormalizer(nil).Normalize("The system shall export reports.\nUsers must be able to filter by date.\n")

	if got.Format != FormatPlainText {
		t.Errorf("Format = %s, want plain_text", got.Format)
	}
	if len(got.Entries) != 2 || got.Entries[1].Text != "Users must be able to filter by date." {
		t.Errorf("unexpected entries: %+v", got.Entries)
	}
	if got.SourceType != "requirements" {
		t.Errorf("SourceType = %s, want requirements", got.SourceType)
	}
	if got.SourceConfidence <= 0 || got.SourceConfidence > 1 {
		t.Errorf("SourceConfidence out of range: %v", got.SourceConfidence)
	}
	if got.Language != "en" {
		t.Errorf("Language = %s, want en", got.Language)
	}
}

func TestNormalize_HTMLWithoutChat(t *testing.T) {
	got := NewNormalizer(nil).Normalize(`<div><p>Some paragraph about the product.</p><script>alert(1)</script></div>`)
	if got.Format != FormatPlainText {
		t.Errorf("Format = %s, want plain_text", got.Format)
	}
	if got.Text != "Some paragraph about the product." {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestNormalize_EmptyAndCounts(t *testing.T) {
	n := NewNormalizer(nil)

	empty := n.Normalize("   \n\n")
	if empty.Format != FormatPlainText || empty.Text != "" || len(empty.Entries) != 0 || empty.WordCount != 0 {
		t.Errorf("unexpected empty result: %+v", empty)
	}
	if empty.SourceType != "unknown" || empty.Language != "unknown" {
		t.Errorf("empty input should be unknown, got %s/%s", empty.SourceType, empty.Language)
	}

	got := n.Normalize("one two three four")
	if got.WordCount != 4 || got.CharCount != 18 || got.TokenCount != 5 {
		t.Errorf("counts = %d words, %d chars, %d tokens", got.WordCount, got.CharCount, got.TokenCount)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"The dashboard should show the revenue and it needs to be fast.", "en"},
		{"El sistema debe exportar los informes de ventas para la gerencia.", "es"},
		{"Система должна экспортировать отчеты", "ru"},
		{"システムはレポートを出力する", "ja"},
		{"12345 67890", "unknown"},
		{"", "unknown"},
	}
	n := NewNormalizer(nil)
	for _, tt := range tests {
		got := n.DetectLanguage(tt.text)
		if got.Tag != tt.want {
			t.Errorf("DetectLanguage(%q) = %s, want %s", tt.text, got.Tag, tt.want)
		}
		if tt.want != "unknown" && (got.Confidence <= 0 || got.Confidence > 1) {
			t.Errorf("DetectLanguage(%q) confidence = %v", tt.text, got.Confidence)
		}
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"As a sales manager, I want a revenue table so that I can track targets.", "user_story"},
		{"Steps to reproduce: open the report. Expected result: totals. Actual result: the page crashes.", "bug_report"},
		{"Agenda: pricing. Attendees: Alice, Bob. Action items: Bob drafts the proposal.", "meeting_notes"},
		{"zzz qqq", "unknown"},
	}
	n := NewNormalizer(nil)
	for _, tt := range tests {
		if got := n.DetectContentType(tt.text); got.Label != tt.want {
			t.Errorf("DetectContentType(%q) = %s (scores %v), want %s", tt.text, got.Label, got.Scores, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"01:02:03,456", 3723456, true},
		{"01:02:03.4", 3723400, true},
		{"02:03", 123000, true},
		{"12:15 AM", 900000, true},
		{"12:00 PM", 43200000, true},
		{"3:30pm", 55800000, true},
		{"abc", 0, false},
		{"1:2:3:4", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseTimestamp(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseTimestamp(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp(65000); got != "01:05" {
		t.Errorf("formatTimestamp(65000) = %s", got)
	}
	if got := formatTimestamp(3723456); got != "1:02:03" {
		t.Errorf("formatTimestamp(3723456) = %s", got)
	}
}

func TestReadInput(t *testing.T) {
	got, err := ReadInput("-", strings.NewReader("from stdin"))
	if err != nil || got != "from stdin" {
		t.Errorf("ReadInput(-) = %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "meeting.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = ReadInput(path, nil)
	if err != nil || got != "from file" {
		t.Errorf("ReadInput(file) = %q, %v", got, err)
	}

	if _, err := ReadInput(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestHeuristics_GuardAndMemo(t *testing.T) {
	h := NewHeuristics(nil)

	got := guard(h, "boom", 7, func() int { panic("boom") })
	if got != 7 {
		t.Errorf("guard returned %d, want fallback 7", got)
	}

	calls := 0
	fn := func() int { calls++; return 42 }
	if memo(h, "answer", "input", 0, fn) != 42 || memo(h, "answer", "input", 0, fn) != 42 {
		t.Error("memo returned the wrong value")
	}
	if calls != 1 {
		t.Errorf("expected one computation, got %d", calls)
	}
	if memo(h, "answer", "other input", 0, fn) != 42 || calls != 2 {
		t.Errorf("different input must miss the cache, calls = %d", calls)
	}

	h.SetLogger(nil)
	if h.Logger() == nil {
		t.Error("Logger must never be nil")
	}
}
