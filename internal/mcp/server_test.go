package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/internal/observability"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

// --- Fake implementations ---

type fakeDigest struct {
	status    *core.StatusReport
	questions *core.QuestionsResult
	answer    *core.AnswerResult
	stories   *models.StorySet
	recovery  *core.RecoverySummary
	err       error

	lastHandle core.Handle
	lastReply  string
	lastVoice  bool
}

func (f *fakeDigest) Status(h core.Handle) (*core.StatusReport, error) {
	f.lastHandle = h
	return f.status, f.err
}

func (f *fakeDigest) Questions(h core.Handle) (*core.QuestionsResult, error) {
	f.lastHandle = h
	return f.questions, f.err
}

func (f *fakeDigest) Answer(h core.Handle, reply string, voice bool) (*core.AnswerResult, error) {
	f.lastHandle, f.lastReply, f.lastVoice = h, reply, voice
	return f.answer, f.err
}

func (f *fakeDigest) Stories(h core.Handle) (*models.StorySet, error) {
	f.lastHandle = h
	return f.stories, f.err
}

func (f *fakeDigest) Recovery(h core.Handle) (*core.RecoverySummary, error) {
	f.lastHandle = h
	return f.recovery, f.err
}

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

// --- Test helpers ---

func sampleStory(id string, status models.StoryStatus) models.Story {
	return models.Story{
		ID:      id,
		TopicID: "T1",
		Title:   "Sales dashboard",
		Role:    models.Part{Text: "sales manager"},
		Action:  models.Part{Text: "the dashboard to have a table"},
		Benefit: models.Part{Text: "I can track revenue"},
		Criteria: []models.Criterion{{
			ID:    "AC1",
			Given: models.Clause{Text: "the dashboard is open"},
			When:  models.Clause{Text: "the page loads"},
			Then:  models.Clause{Text: "the table shows revenue per region"},
		}},
		Coverage:   100,
		Valid:      true,
		Complexity: models.ComplexitySmall,
		Status:     status,
	}
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decodeOutput reads the structured tool output into out.
func decodeOutput(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return
	}
	if result.StructuredContent == nil {
		t.Fatalf("no structured output (text was: %s)", text)
	}
	data, _ := json.Marshal(result.StructuredContent)
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshalling output: %v (text was: %s)", err, text)
	}
}

func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Tests ---

func TestListTools(t *testing.T) {
	srv := NewServer(&fakeDigest{}, nil, "test")

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	t1, t2 := gomcp.NewInMemoryTransports()
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	got := make(map[string]bool)
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{"digest_status", "list_questions", "answer_questions", "list_stories", "recovery_summary", "get_metrics"} {
		if !got[name] {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestDigestStatus(t *testing.T) {
	fd := &fakeDigest{status: &core.StatusReport{
		Session: models.Session{
			ID:           "SESS-00001",
			Title:        "Sales dashboard",
			Status:       models.SessionActive,
			CurrentPhase: models.PhaseOrphans,
			Phases: map[models.Phase]models.PhaseRecord{
				models.PhaseOrphans:        {Status: models.PhaseCompleted},
				models.PhaseContradictions: {Status: models.PhasePending},
			},
		},
		Coverage:   models.CoverageSnapshot{Percentage: 100},
		Topics:     3,
		Statements: 12,
		Questions:  4,
		Pending:    2,
		Stories:    map[models.StoryStatus]int{models.StoryDraft: 2},
	}}
	srv := NewServer(fd, nil, "test")

	result := callTool(t, srv, "digest_status", map[string]any{"session_id": "SESS-00001"})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}

	var out statusOutput
	decodeOutput(t, result, &out)
	if out.SessionID != "SESS-00001" || out.CurrentPhase != "orphans" {
		t.Errorf("unexpected session fields: %+v", out)
	}
	if out.Coverage != 100 || out.Topics != 3 || out.Pending != 2 {
		t.Errorf("unexpected counts: %+v", out)
	}
	if out.Phases["orphans"] != "completed" || out.Phases["contradictions"] != "pending" {
		t.Errorf("unexpected phases: %v", out.Phases)
	}
	if out.Stories["draft"] != 2 {
		t.Errorf("expected 2 draft stories, got %v", out.Stories)
	}
	if fd.lastHandle.SessionID != "SESS-00001" {
		t.Errorf("expected handle SESS-00001, got %q", fd.lastHandle.SessionID)
	}
}

func TestDigestStatus_NoActiveSession(t *testing.T) {
	srv := NewServer(&fakeDigest{err: core.ErrNoActiveSession}, nil, "test")

	result := callTool(t, srv, "digest_status", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result without an active session")
	}
	if !strings.Contains(extractText(result), "no active digest session") {
		t.Errorf("unexpected error text: %s", extractText(result))
	}
}

func TestListQuestions(t *testing.T) {
	fd := &fakeDigest{questions: &core.QuestionsResult{
		Generated: 3,
		Pending:   3,
		Batch: []models.Question{
			{ID: "Q1", Type: models.QuestionContradiction, Priority: models.P1, TopicID: "T1", Text: "Left or right?", Options: []string{"left", "right", "both are needed"}},
			{ID: "Q2", Type: models.QuestionCompleteness, Priority: models.P2, TopicID: "T2", Text: "Which columns should the table show?"},
		},
	}}
	srv := NewServer(fd, nil, "test")

	result := callTool(t, srv, "list_questions", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}

	var out listQuestionsOutput
	decodeOutput(t, result, &out)
	if len(out.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(out.Questions))
	}
	if out.Questions[0].ID != "Q1" || out.Questions[0].Priority != "P1" || len(out.Questions[0].Options) != 3 {
		t.Errorf("unexpected first question: %+v", out.Questions[0])
	}
	if out.Generated != 3 || out.Pending != 3 {
		t.Errorf("unexpected counts: generated=%d pending=%d", out.Generated, out.Pending)
	}
	if fd.lastHandle.SessionID != "" {
		t.Errorf("expected the active session handle, got %q", fd.lastHandle.SessionID)
	}
}

func TestAnswerQuestions(t *testing.T) {
	fd := &fakeDigest{answer: &core.AnswerResult{
		Voice:        true,
		Cleaned:      "Region and revenue.",
		Strategy:     "passthrough",
		Answered:     []string{"Q2"},
		Derived:      []string{"S14"},
		Confidence:   0.9,
		StillPending: 1,
	}}
	srv := NewServer(fd, nil, "test")

	result := callTool(t, srv, "answer_questions", map[string]any{
		"reply": "um region and uh revenue",
		"voice": true,
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}

	var out answerQuestionsOutput
	decodeOutput(t, result, &out)
	if len(out.Answered) != 1 || out.Answered[0] != "Q2" || out.Derived[0] != "S14" {
		t.Errorf("unexpected answer output: %+v", out)
	}
	if out.Cleaned != "Region and revenue." || !out.Voice {
		t.Errorf("expected voice cleanup in output, got %+v", out)
	}
	if fd.lastReply != "um region and uh revenue" || !fd.lastVoice {
		t.Errorf("reply not passed through: %q voice=%v", fd.lastReply, fd.lastVoice)
	}
}

func TestAnswerQuestions_EmptyReply(t *testing.T) {
	srv := NewServer(&fakeDigest{}, nil, "test")

	result := callTool(t, srv, "answer_questions", map[string]any{"reply": ""})
	if !result.IsError {
		t.Fatal("expected error result for an empty reply")
	}
}

func TestAnswerQuestions_Unattributed(t *testing.T) {
	srv := NewServer(&fakeDigest{err: core.ErrUnattributedAnswer}, nil, "test")

	result := callTool(t, srv, "answer_questions", map[string]any{"reply": "yes and no and maybe"})
	if !result.IsError {
		t.Fatal("expected error result for an unattributed answer")
	}
	if !strings.Contains(extractText(result), "could not attribute") {
		t.Errorf("unexpected error text: %s", extractText(result))
	}
}

func TestListStories(t *testing.T) {
	fd := &fakeDigest{stories: &models.StorySet{Stories: []models.Story{
		sampleStory("US-001", models.StoryApproved),
		sampleStory("US-002", models.StoryDraft),
	}}}
	srv := NewServer(fd, nil, "test")

	tests := []struct {
		name   string
		args   map[string]any
		expect []string
	}{
		{"all", map[string]any{}, []string{"US-001", "US-002"}},
		{"approved only", map[string]any{"status": "approved"}, []string{"US-001"}},
		{"none rejected", map[string]any{"status": "rejected"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, srv, "list_stories", tt.args)
			if result.IsError {
				t.Fatalf("expected success, got error: %v", extractText(result))
			}
			var out listStoriesOutput
			decodeOutput(t, result, &out)
			if out.Count != len(tt.expect) {
				t.Fatalf("expected %d stories, got %d", len(tt.expect), out.Count)
			}
			for i, id := range tt.expect {
				if out.Stories[i].ID != id {
					t.Errorf("story %d: expected %s, got %s", i, id, out.Stories[i].ID)
				}
			}
		})
	}
}

func TestListStories_RendersStoryAndCriteria(t *testing.T) {
	fd := &fakeDigest{stories: &models.StorySet{Stories: []models.Story{sampleStory("US-001", models.StoryDraft)}}}
	srv := NewServer(fd, nil, "test")

	result := callTool(t, srv, "list_stories", map[string]any{})
	var out listStoriesOutput
	decodeOutput(t, result, &out)

	want := "As a sales manager, I want the dashboard to have a table, so that I can track revenue."
	if out.Stories[0].Story != want {
		t.Errorf("story sentence:\n got %q\nwant %q", out.Stories[0].Story, want)
	}
	if len(out.Stories[0].Criteria) != 1 || !strings.HasPrefix(out.Stories[0].Criteria[0], "AC1: Given the dashboard is open") {
		t.Errorf("unexpected criteria: %v", out.Stories[0].Criteria)
	}
}

func TestListStories_InvalidStatus(t *testing.T) {
	srv := NewServer(&fakeDigest{stories: &models.StorySet{}}, nil, "test")

	result := callTool(t, srv, "list_stories", map[string]any{"status": "shipped"})
	if !result.IsError {
		t.Fatal("expected error result for an invalid status")
	}
}

func TestListStories_NotGenerated(t *testing.T) {
	err := &core.PrerequisiteError{Operation: "listing stories", Requires: models.PhaseStories, Command: "generate-stories"}
	srv := NewServer(&fakeDigest{err: err}, nil, "test")

	result := callTool(t, srv, "list_stories", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result before stories exist")
	}
	if !strings.Contains(extractText(result), "sdg generate-stories") {
		t.Errorf("expected the prerequisite command in %q", extractText(result))
	}
}

func TestRecoverySummary(t *testing.T) {
	fd := &fakeDigest{recovery: &core.RecoverySummary{
		SessionID: "SESS-00002",
		Answered:  2,
		Pending:   3,
		Ratio:     0.4,
		Elapsed:   90 * time.Minute,
		RecentAnswers: []models.Question{
			{ID: "Q1", Text: "Left or right?", Answer: "right"},
		},
	}}
	srv := NewServer(fd, nil, "test")

	result := callTool(t, srv, "recovery_summary", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}
	var out recoveryOutput
	decodeOutput(t, result, &out)
	if !out.Awaiting || out.SessionID != "SESS-00002" {
		t.Errorf("unexpected recovery output: %+v", out)
	}
	if out.ElapsedSeconds != 5400 {
		t.Errorf("expected 5400 elapsed seconds, got %d", out.ElapsedSeconds)
	}
	if len(out.RecentAnswers) != 1 || out.RecentAnswers[0].Answer != "right" {
		t.Errorf("unexpected recent answers: %+v", out.RecentAnswers)
	}
}

func TestRecoverySummary_NothingInterrupted(t *testing.T) {
	srv := NewServer(&fakeDigest{}, nil, "test")

	result := callTool(t, srv, "recovery_summary", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}
	var out recoveryOutput
	decodeOutput(t, result, &out)
	if out.Awaiting {
		t.Error("expected awaiting = false")
	}
}

func TestGetMetrics(t *testing.T) {
	oldest := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mc := &fakeMetricsCalculator{metrics: &observability.Metrics{
		SessionsCreated:   2,
		QuestionsAnswered: 7,
		StoriesApproved:   4,
		TasksFinalized:    4,
		PhasesCompleted:   map[string]int{"associate": 2},
		EventCount:        30,
		OldestEvent:       &oldest,
	}}
	srv := NewServer(&fakeDigest{}, mc, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{"since": "30d"})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}
	var out metricsOutput
	decodeOutput(t, result, &out)
	if out.SessionsCreated != 2 || out.QuestionsAnswered != 7 || out.TasksFinalized != 4 {
		t.Errorf("unexpected metrics: %+v", out)
	}
	if out.PhasesCompleted["associate"] != 2 {
		t.Errorf("unexpected phases: %v", out.PhasesCompleted)
	}
	if out.OldestEvent != "2026-01-01T09:00:00Z" {
		t.Errorf("unexpected oldest event %q", out.OldestEvent)
	}
}

func TestGetMetrics_Disabled(t *testing.T) {
	srv := NewServer(&fakeDigest{}, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result when metrics are disabled")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
		approx  time.Duration
	}{
		{"7d", false, 7 * 24 * time.Hour},
		{"24h", false, 24 * time.Hour},
		{"1d", false, 24 * time.Hour},
		{"x", true, 0},
		{"7w", true, 0},
		{"abcd", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSince(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			diff := time.Since(got) - tt.approx
			if diff < -time.Minute || diff > time.Minute {
				t.Errorf("parseSince(%q) off by %v", tt.input, diff)
			}
		})
	}
}

func TestErrorResult(t *testing.T) {
	res := errorResult("boom")
	if !res.IsError {
		t.Error("expected IsError")
	}
	if extractText(res) != "boom" {
		t.Errorf("unexpected text %q", extractText(res))
	}
}
