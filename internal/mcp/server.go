// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the digest clarification loop and session status as MCP tools, so an
// assistant can relay questions and answers on the user's behalf.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/internal/observability"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

// Digest is the part of the orchestrator the MCP tools call.
type Digest interface {
	Status(h core.Handle) (*core.StatusReport, error)
	Questions(h core.Handle) (*core.QuestionsResult, error)
	Answer(h core.Handle, reply string, voice bool) (*core.AnswerResult, error)
	Stories(h core.Handle) (*models.StorySet, error)
	Recovery(h core.Handle) (*core.RecoverySummary, error)
}

// Server wraps the digest services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	digest      Digest
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server over digest. metricsCalc may be nil
// if observability is disabled.
func NewServer(digest Digest, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		digest:      digest,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "sdg", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type sessionInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"the digest session id (e.g. SESS-00001). Defaults to the active session."`
}

type statusOutput struct {
	SessionID        string            `json:"session_id"`
	Title            string            `json:"title"`
	Status           string            `json:"status"`
	CurrentPhase     string            `json:"current_phase"`
	Phases           map[string]string `json:"phases"`
	Coverage         float64           `json:"coverage"`
	Topics           int               `json:"topics"`
	Statements       int               `json:"statements"`
	Contradictions   int               `json:"contradictions"`
	Questions        int               `json:"questions"`
	Pending          int               `json:"pending"`
	Stories          map[string]int    `json:"stories"`
	AwaitingResponse bool              `json:"awaiting_response"`
}

type questionOutput struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Priority string   `json:"priority"`
	TopicID  string   `json:"topic_id"`
	Text     string   `json:"text"`
	Options  []string `json:"options,omitempty"`
}

type listQuestionsOutput struct {
	Questions []questionOutput `json:"questions"`
	Generated int              `json:"generated"`
	Pending   int              `json:"pending"`
}

type answerQuestionsInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"the digest session id. Defaults to the active session."`
	Reply     string `json:"reply" jsonschema:"the answer text; number several answers as 1. ... 2. ..."`
	Voice     bool   `json:"voice,omitempty" jsonschema:"treat the reply as dictated speech"`
}

type answerQuestionsOutput struct {
	Answered     []string `json:"answered"`
	Derived      []string `json:"derived_statements"`
	Followups    []string `json:"followups,omitempty"`
	Strategy     string   `json:"strategy"`
	Confidence   float64  `json:"confidence"`
	Voice        bool     `json:"voice"`
	Cleaned      string   `json:"cleaned,omitempty"`
	StillPending int      `json:"still_pending"`
}

type listStoriesInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"the digest session id. Defaults to the active session."`
	Status    string `json:"status,omitempty" jsonschema:"filter stories by status (draft, approved, rejected, skipped)"`
}

type storyOutput struct {
	ID          string   `json:"id"`
	TopicID     string   `json:"topic_id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	Story       string   `json:"story"`
	Criteria    []string `json:"criteria"`
	Coverage    float64  `json:"coverage"`
	Valid       bool     `json:"valid"`
	Complexity  string   `json:"complexity"`
	Assumptions []string `json:"assumptions,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

type listStoriesOutput struct {
	Stories []storyOutput `json:"stories"`
	Count   int           `json:"count"`
}

type recentAnswer struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

type recoveryOutput struct {
	Awaiting       bool           `json:"awaiting"`
	SessionID      string         `json:"session_id,omitempty"`
	Answered       int            `json:"answered"`
	Pending        int            `json:"pending"`
	Ratio          float64        `json:"ratio"`
	ElapsedSeconds int64          `json:"elapsed_seconds"`
	RecentAnswers  []recentAnswer `json:"recent_answers,omitempty"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	SessionsCreated   int            `json:"sessions_created"`
	SessionsFinalized int            `json:"sessions_finalized"`
	PhasesCompleted   map[string]int `json:"phases_completed"`
	QuestionsAnswered int            `json:"questions_answered"`
	VoiceAnswers      int            `json:"voice_answers"`
	StoriesApproved   int            `json:"stories_approved"`
	StoriesRejected   int            `json:"stories_rejected"`
	TasksFinalized    int            `json:"tasks_finalized"`
	EventCount        int            `json:"event_count"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "digest_status",
		Description: "Get the progress of a digest session: phases, mapping coverage, question and story counts.",
	}, s.handleDigestStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_questions",
		Description: "Generate and present the next batch of clarification questions. Relay them to the user, then call answer_questions with the reply.",
	}, s.handleListQuestions)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "answer_questions",
		Description: "Record the user's reply to the presented questions. Numbered replies (1. ... 2. ...) answer several questions at once.",
	}, s.handleAnswerQuestions)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_stories",
		Description: "List the generated user stories with their acceptance criteria, coverage and review status.",
	}, s.handleListStories)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "recovery_summary",
		Description: "Report whether the session was interrupted while waiting for answers, with progress and the most recent answers.",
	}, s.handleRecoverySummary)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated digest metrics from the event log: sessions, phases, answers, story decisions and finalized tasks.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleDigestStatus(_ context.Context, _ *gomcp.CallToolRequest, input sessionInput) (*gomcp.CallToolResult, statusOutput, error) {
	rep, err := s.digest.Status(core.Handle{SessionID: input.SessionID})
	if err != nil {
		return errorResult(fmt.Sprintf("getting status: %s", err)), emptyStatusOutput(), nil
	}

	sess := rep.Session
	out := statusOutput{
		SessionID:        sess.ID,
		Title:            sess.Title,
		Status:           string(sess.Status),
		CurrentPhase:     string(sess.CurrentPhase),
		Phases:           make(map[string]string, len(sess.Phases)),
		Coverage:         rep.Coverage.Percentage,
		Topics:           rep.Topics,
		Statements:       rep.Statements,
		Contradictions:   rep.Contradictions,
		Questions:        rep.Questions,
		Pending:          rep.Pending,
		Stories:          make(map[string]int, len(rep.Stories)),
		AwaitingResponse: sess.AwaitingResponse,
	}
	for p, rec := range sess.Phases {
		out.Phases[string(p)] = string(rec.Status)
	}
	for st, n := range rep.Stories {
		out.Stories[string(st)] = n
	}
	return nil, out, nil
}

func (s *Server) handleListQuestions(_ context.Context, _ *gomcp.CallToolRequest, input sessionInput) (*gomcp.CallToolResult, listQuestionsOutput, error) {
	res, err := s.digest.Questions(core.Handle{SessionID: input.SessionID})
	if err != nil {
		return errorResult(fmt.Sprintf("listing questions: %s", err)), listQuestionsOutput{}, nil
	}

	out := listQuestionsOutput{
		Questions: make([]questionOutput, len(res.Batch)),
		Generated: res.Generated,
		Pending:   res.Pending,
	}
	for i, q := range res.Batch {
		out.Questions[i] = questionOutput{
			ID:       q.ID,
			Type:     string(q.Type),
			Priority: string(q.Priority),
			TopicID:  q.TopicID,
			Text:     q.Text,
			Options:  q.Options,
		}
	}
	return nil, out, nil
}

func (s *Server) handleAnswerQuestions(_ context.Context, _ *gomcp.CallToolRequest, input answerQuestionsInput) (*gomcp.CallToolResult, answerQuestionsOutput, error) {
	if input.Reply == "" {
		return errorResult("reply is required"), answerQuestionsOutput{}, nil
	}

	res, err := s.digest.Answer(core.Handle{SessionID: input.SessionID}, input.Reply, input.Voice)
	if err != nil {
		return errorResult(fmt.Sprintf("recording answer: %s", err)), answerQuestionsOutput{}, nil
	}

	out := answerQuestionsOutput{
		Answered:     res.Answered,
		Derived:      res.Derived,
		Followups:    res.Followups,
		Strategy:     res.Strategy,
		Confidence:   res.Confidence,
		Voice:        res.Voice,
		StillPending: res.StillPending,
	}
	if res.Voice {
		out.Cleaned = res.Cleaned
	}
	return nil, out, nil
}

func (s *Server) handleListStories(_ context.Context, _ *gomcp.CallToolRequest, input listStoriesInput) (*gomcp.CallToolResult, listStoriesOutput, error) {
	if input.Status != "" {
		switch models.StoryStatus(input.Status) {
		case models.StoryDraft, models.StoryApproved, models.StoryRejected, models.StorySkipped:
		default:
			return errorResult(fmt.Sprintf("invalid status %q: must be one of draft, approved, rejected, skipped", input.Status)), listStoriesOutput{}, nil
		}
	}

	set, err := s.digest.Stories(core.Handle{SessionID: input.SessionID})
	if err != nil {
		return errorResult(fmt.Sprintf("listing stories: %s", err)), listStoriesOutput{}, nil
	}

	out := listStoriesOutput{Stories: []storyOutput{}}
	for _, st := range set.Stories {
		if input.Status != "" && string(st.Status) != input.Status {
			continue
		}
		out.Stories = append(out.Stories, storyToOutput(st))
	}
	out.Count = len(out.Stories)
	return nil, out, nil
}

func (s *Server) handleRecoverySummary(_ context.Context, _ *gomcp.CallToolRequest, input sessionInput) (*gomcp.CallToolResult, recoveryOutput, error) {
	sum, err := s.digest.Recovery(core.Handle{SessionID: input.SessionID})
	if err != nil {
		return errorResult(fmt.Sprintf("checking recovery: %s", err)), recoveryOutput{}, nil
	}
	if sum == nil {
		return nil, recoveryOutput{}, nil
	}

	out := recoveryOutput{
		Awaiting:       true,
		SessionID:      sum.SessionID,
		Answered:       sum.Answered,
		Pending:        sum.Pending,
		Ratio:          sum.Ratio,
		ElapsedSeconds: int64(sum.Elapsed / time.Second),
	}
	for _, q := range sum.RecentAnswers {
		out.RecentAnswers = append(out.RecentAnswers, recentAnswer{QuestionID: q.ID, Question: q.Text, Answer: q.Answer})
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		SessionsCreated:   metrics.SessionsCreated,
		SessionsFinalized: metrics.SessionsFinalized,
		PhasesCompleted:   metrics.PhasesCompleted,
		QuestionsAnswered: metrics.QuestionsAnswered,
		VoiceAnswers:      metrics.VoiceAnswers,
		StoriesApproved:   metrics.StoriesApproved,
		StoriesRejected:   metrics.StoriesRejected,
		TasksFinalized:    metrics.TasksFinalized,
		EventCount:        metrics.EventCount,
	}
	if out.PhasesCompleted == nil {
		out.PhasesCompleted = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func storyToOutput(st models.Story) storyOutput {
	criteria := make([]string, len(st.Criteria))
	for i, c := range st.Criteria {
		criteria[i] = c.ID + ": " + core.RenderCriterion(c)
	}
	return storyOutput{
		ID:          st.ID,
		TopicID:     st.TopicID,
		Title:       st.Title,
		Status:      string(st.Status),
		Story:       core.StorySentence(st),
		Criteria:    criteria,
		Coverage:    st.Coverage,
		Valid:       st.Valid,
		Complexity:  string(st.Complexity),
		Assumptions: st.Assumptions,
		Warnings:    st.Warnings,
	}
}

func emptyStatusOutput() statusOutput {
	return statusOutput{
		Phases:  make(map[string]string),
		Stories: make(map[string]int),
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		PhasesCompleted: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
