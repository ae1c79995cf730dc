package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/story-digest/pkg/models"
	"go.uber.org/zap"
)

// Handle names the session a phase operates on. An empty SessionID means
// the active session.
type Handle struct {
	SessionID string
}

// phaseCommands names the command that completes each phase.
var phaseCommands = map[models.Phase]string{
	models.PhaseIngest:         "new <input>",
	models.PhaseExtract:        "new <input>",
	models.PhaseAssociate:      "pass2",
	models.PhaseOrphans:        "pass3",
	models.PhaseContradictions: "pass4",
	models.PhaseClarify:        "questions",
	models.PhaseStories:        "generate-stories",
	models.PhaseReview:         "present",
	models.PhaseFinalize:       "finalize",
}

// OrchestratorDeps carries the collaborators of an Orchestrator.
type OrchestratorDeps struct {
	Config     *models.DigestConfig
	Docs       DocumentStore
	Registry   SessionRegistry
	Ready      ReadyQueue
	SessionIDs IDGenerator
	ReadyIDs   IDGenerator
	// Events may be nil; events are then not recorded.
	Events     EventLogger
	Heuristics *Heuristics
}

// Orchestrator runs the digestion phases of a session. Every phase loads
// the session documents, runs, and rewrites them before returning.
type Orchestrator struct {
	cfg        *models.DigestConfig
	docs       DocumentStore
	registry   SessionRegistry
	ready      ReadyQueue
	sessionIDs IDGenerator
	readyIDs   IDGenerator
	events     EventLogger
	h          *Heuristics

	normalizer     *Normalizer
	planner        *ChunkPlanner
	extractor      *Extractor
	orphans        *OrphanResolver
	contradictions *ContradictionResolver
	clarifier      *Clarifier
	synthesizer    *Synthesizer

	now   func() time.Time
	newID func() string
}

// NewOrchestrator wires the pipeline components from deps.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	cfg := deps.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := deps.Heuristics
	if h == nil {
		h = NewHeuristics(nil)
	}
	return &Orchestrator{
		cfg:            cfg,
		docs:           deps.Docs,
		registry:       deps.Registry,
		ready:          deps.Ready,
		sessionIDs:     deps.SessionIDs,
		readyIDs:       deps.ReadyIDs,
		events:         deps.Events,
		h:              h,
		normalizer:     NewNormalizer(h),
		planner:        NewChunkPlanner(cfg.Chunking),
		extractor:      NewExtractor(cfg.Extraction, h),
		orphans:        NewOrphanResolver(cfg.Orphans, h),
		contradictions: NewContradictionResolver(cfg.Contradictions, h),
		clarifier:      NewClarifier(cfg.Locale, cfg.Clarify, h),
		synthesizer:    NewSynthesizer(cfg.DefaultRole, h),
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
}

// state is the in-memory view of one session's documents.
type state struct {
	session        *models.Session
	topics         *models.TopicSet
	statements     *models.StatementMap
	clarifications *models.ClarificationSet
	conversation   *models.ConversationLog
}

// Resolve maps a handle to a registered session.
func (o *Orchestrator) Resolve(h Handle) (*models.Session, error) {
	if err := o.registry.Load(); err != nil {
		return nil, fmt.Errorf("loading session registry: %w", err)
	}
	id := h.SessionID
	if id == "" {
		active, err := o.registry.ActiveID()
		if err != nil {
			return nil, fmt.Errorf("reading active session: %w", err)
		}
		if active == "" {
			return nil, ErrNoActiveSession
		}
		id = active
	}
	sess, err := o.registry.GetSession(id)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) load(h Handle) (*state, error) {
	sess, err := o.Resolve(h)
	if err != nil {
		return nil, err
	}
	st := &state{session: sess}
	if st.topics, err = o.docs.LoadTopics(sess.ID); err != nil {
		return nil, err
	}
	if st.statements, err = o.docs.LoadStatements(sess.ID); err != nil {
		return nil, err
	}
	if st.clarifications, err = o.docs.LoadClarifications(sess.ID); err != nil {
		return nil, err
	}
	if st.clarifications.Locale == "" {
		st.clarifications.Locale = o.clarifier.Locale()
	}
	if st.conversation, err = o.docs.LoadConversation(sess.ID); err != nil {
		return nil, err
	}
	return st, nil
}

// save rewrites the pipeline documents and the registry entry.
func (o *Orchestrator) save(st *state) error {
	id := st.session.ID
	if err := o.docs.SaveTopics(id, st.topics); err != nil {
		return err
	}
	if err := o.docs.SaveStatements(id, st.statements); err != nil {
		return err
	}
	if err := o.docs.SaveClarifications(id, st.clarifications); err != nil {
		return err
	}
	if err := o.docs.SaveConversation(id, st.conversation); err != nil {
		return err
	}
	return o.saveSession(st.session)
}

func (o *Orchestrator) saveSession(sess *models.Session) error {
	sess.Updated = o.now()
	if err := o.registry.UpdateSession(*sess); err != nil {
		return fmt.Errorf("updating session %s: %w", sess.ID, err)
	}
	if err := o.registry.Save(); err != nil {
		return fmt.Errorf("saving session registry: %w", err)
	}
	return nil
}

// require fails with a PrerequisiteError unless phase has completed.
func require(sess *models.Session, operation string, phase models.Phase) error {
	if sess.PhaseDone(phase) {
		return nil
	}
	return &PrerequisiteError{Operation: operation, Requires: phase, Command: phaseCommands[phase]}
}

// notDone refuses to re-run a completed phase.
func notDone(sess *models.Session, phase models.Phase) error {
	if sess.PhaseDone(phase) {
		return fmt.Errorf("phase %s already completed: run 'sdg reset %s' to run it again", phase, phase)
	}
	return nil
}

// writable refuses to mutate finished sessions.
func writable(sess *models.Session) error {
	switch sess.Status {
	case models.SessionCompleted:
		return fmt.Errorf("session %s is completed and can no longer change", sess.ID)
	case models.SessionArchived:
		return fmt.Errorf("session %s is archived: run 'sdg session switch %s' to resume it", sess.ID, sess.ID)
	}
	return nil
}

func (o *Orchestrator) completePhase(st *state, phase models.Phase, note string) {
	at := o.now()
	if st.session.Phases == nil {
		st.session.Phases = make(map[models.Phase]models.PhaseRecord)
	}
	st.session.Phases[phase] = models.PhaseRecord{Status: models.PhaseCompleted, CompletedAt: &at, Note: note}
	st.session.CurrentPhase = phase
	o.interact(st, models.InteractionPhaseCompleted, map[string]string{"phase": string(phase), "note": note})
	o.logEvent("phase.completed", map[string]any{"session_id": st.session.ID, "phase": string(phase)})
}

// interact appends a checkpoint to the conversation log.
func (o *Orchestrator) interact(st *state, t models.InteractionType, data map[string]string) {
	st.conversation.Entries = append(st.conversation.Entries, models.Interaction{
		ID:   o.newID(),
		Type: t,
		Time: o.now(),
		Data: data,
	})
	st.session.LastInteraction = t
}

func (o *Orchestrator) logEvent(eventType string, data map[string]any) {
	if o.events == nil {
		return
	}
	if err := o.events.LogEvent(eventType, data); err != nil {
		o.h.Logger().Debug("event log write failed", zap.String("event", eventType), zap.Error(err))
	}
}

// NewSessionInput describes the transcript a session is created from.
type NewSessionInput struct {
	// Path is the file the input was read from, or "-" for stdin.
	Path  string
	Raw   string
	Title string
}

// NewSessionResult summarizes the ingest and pass-1 extraction.
type NewSessionResult struct {
	Session    models.Session
	Topics     int
	Statements int
	Meaningful int
	Chunking   models.ChunkingState
}

// NewSession normalizes the input, chunks it when it exceeds the limits,
// runs pass 1, registers the session and makes it active.
func (o *Orchestrator) NewSession(in NewSessionInput) (*NewSessionResult, error) {
	norm := o.normalizer.Normalize(in.Raw)
	if strings.TrimSpace(norm.Text) == "" {
		return nil, errors.New("creating session: input is empty")
	}

	var topics models.TopicSet
	var statements []models.Statement
	chunking := models.ChunkingState{}
	if need, reason := o.planner.NeedsChunking(norm.WordCount, norm.TokenCount, norm.CharCount); need {
		chunks := o.planner.Plan(norm.Text, norm.Format.HasEntries())
		texts := ExtractionTexts(norm.Text, chunks)
		results := make([]ChunkResult, 0, len(chunks))
		for i, c := range chunks {
			entries := EntriesFor(norm.Format, texts[i])
			ts, ss := o.extractor.Extract(entries)
			results = append(results, ChunkResult{ChunkIndex: c.Index, Topics: ts.Topics, Statements: ss})
		}
		topics, statements, chunking.Merge = MergeChunkResults(results)
		chunking.Chunked, chunking.Reason, chunking.Chunks = true, reason, chunks
	} else {
		topics, statements = o.extractor.Extract(norm.Entries)
	}

	if err := o.registry.Load(); err != nil {
		return nil, fmt.Errorf("creating session: loading registry: %w", err)
	}
	id, err := o.sessionIDs.Next()
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	now := o.now()
	sum := sha256.Sum256([]byte(in.Raw))
	sess := models.Session{
		ID:     id,
		Title:  sessionTitle(in, topics),
		Status: models.SessionActive,
		Phases: make(map[models.Phase]models.PhaseRecord, len(models.PhaseOrder)),
		Input: models.InputMetadata{
			Path:               in.Path,
			Format:             string(norm.Format),
			SourceType:         norm.SourceType,
			Language:           norm.Language,
			LanguageConfidence: norm.LanguageConfidence,
			WordCount:          norm.WordCount,
			TokenCount:         norm.TokenCount,
			CharCount:          norm.CharCount,
			Chunked:            chunking.Chunked,
			ChunkCount:         len(chunking.Chunks),
			Digest:             hex.EncodeToString(sum[:]),
		},
		Created: now,
		Updated: now,
	}
	for _, p := range models.PhaseOrder {
		sess.Phases[p] = models.PhaseRecord{Status: models.PhasePending}
	}

	st := &state{
		session:        &sess,
		topics:         &topics,
		statements:     &models.StatementMap{Statements: statements},
		clarifications: &models.ClarificationSet{Locale: o.clarifier.Locale()},
		conversation:   &models.ConversationLog{},
	}
	recordCoverage("pass1", st.statements)

	if err := o.docs.SaveSource(id, &models.SourceDocument{Text: norm.Text, Entries: norm.Entries}); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if err := o.docs.SaveChunking(id, &chunking); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	if prev, _ := o.registry.ActiveID(); prev != "" {
		if p, err := o.registry.GetSession(prev); err == nil && p.Status == models.SessionActive {
			p.Status = models.SessionInProgress
			if err := o.registry.UpdateSession(*p); err != nil {
				return nil, fmt.Errorf("creating session: demoting %s: %w", prev, err)
			}
		}
	}
	if err := o.registry.AddSession(sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if err := o.registry.SetActive(id); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	o.interact(st, models.InteractionSessionCreated, map[string]string{"format": string(norm.Format), "language": norm.Language})
	o.completePhase(st, models.PhaseIngest, string(norm.Format))
	o.completePhase(st, models.PhaseExtract, fmt.Sprintf("%d topics, %d statements", len(topics.Topics), len(statements)))
	if err := o.save(st); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	o.logEvent("session.created", map[string]any{
		"session_id": id,
		"format":     string(norm.Format),
		"words":      norm.WordCount,
		"chunked":    chunking.Chunked,
	})

	meaningful := 0
	for _, s := range statements {
		if s.Meaningful {
			meaningful++
		}
	}
	return &NewSessionResult{
		Session:    sess,
		Topics:     len(topics.Topics),
		Statements: len(statements),
		Meaningful: meaningful,
		Chunking:   chunking,
	}, nil
}

func sessionTitle(in NewSessionInput, topics models.TopicSet) string {
	if t := strings.TrimSpace(in.Title); t != "" {
		return t
	}
	if len(topics.Topics) > 0 {
		return topics.Topics[0].Title
	}
	if in.Path != "" && in.Path != "-" {
		return strings.TrimSuffix(filepath.Base(in.Path), filepath.Ext(in.Path))
	}
	return "Untitled digest"
}

// beginPhase loads the session and checks it may run phase after requires.
func (o *Orchestrator) beginPhase(h Handle, operation string, phase, requires models.Phase) (*state, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	if err := writable(st.session); err != nil {
		return nil, err
	}
	if err := require(st.session, operation, requires); err != nil {
		return nil, err
	}
	if err := notDone(st.session, phase); err != nil {
		return nil, err
	}
	return st, nil
}

// Associate runs pass 2.
func (o *Orchestrator) Associate(h Handle) (models.CoverageSnapshot, error) {
	st, err := o.beginPhase(h, "pass2", models.PhaseAssociate, models.PhaseExtract)
	if err != nil {
		return models.CoverageSnapshot{}, err
	}
	snap := o.runAssociate(st)
	o.completePhase(st, models.PhaseAssociate, fmt.Sprintf("coverage %.1f%%", snap.Percentage))
	if err := o.save(st); err != nil {
		return snap, fmt.Errorf("saving pass2 results: %w", err)
	}
	return snap, nil
}

func (o *Orchestrator) runAssociate(st *state) models.CoverageSnapshot {
	o.extractor.Associate(st.topics, st.statements)
	return recordCoverage("pass2", st.statements)
}

// ResolveOrphans runs pass 3.
func (o *Orchestrator) ResolveOrphans(h Handle) (OrphanReport, error) {
	st, err := o.beginPhase(h, "pass3", models.PhaseOrphans, models.PhaseAssociate)
	if err != nil {
		return OrphanReport{}, err
	}
	report := o.orphans.Resolve(st.topics, st.statements)
	o.completePhase(st, models.PhaseOrphans, fmt.Sprintf("coverage %.1f%%", report.Coverage.Percentage))
	if err := o.save(st); err != nil {
		return report, fmt.Errorf("saving pass3 results: %w", err)
	}
	return report, nil
}

// ContradictionResult reports pass 4 and the questions it escalated.
type ContradictionResult struct {
	ContradictionReport
	Questions int
}

// ResolveContradictions runs pass 4 and turns escalated pairs into
// clarification questions.
func (o *Orchestrator) ResolveContradictions(h Handle) (ContradictionResult, error) {
	st, err := o.beginPhase(h, "pass4", models.PhaseContradictions, models.PhaseOrphans)
	if err != nil {
		return ContradictionResult{}, err
	}
	res := o.runContradictions(st)
	o.completePhase(st, models.PhaseContradictions, fmt.Sprintf("%d detected, %d escalated", res.Detected, res.Escalated))
	if err := o.save(st); err != nil {
		return res, fmt.Errorf("saving pass4 results: %w", err)
	}
	return res, nil
}

func (o *Orchestrator) runContradictions(st *state) ContradictionResult {
	report := o.contradictions.Run(st.statements)
	n := o.clarifier.ContradictionQuestions(st.topics, st.statements, st.clarifications)
	return ContradictionResult{ContradictionReport: report, Questions: n}
}

// QuestionsResult is the batch presented to the user.
type QuestionsResult struct {
	Generated int
	Batch     []models.Question
	Pending   int
}

// Questions generates any new clarification questions and presents the
// next batch.
func (o *Orchestrator) Questions(h Handle) (*QuestionsResult, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	if err := writable(st.session); err != nil {
		return nil, err
	}
	if err := require(st.session, "questions", models.PhaseContradictions); err != nil {
		return nil, err
	}
	res := &QuestionsResult{}
	res.Generated = o.clarifier.Generate(st.topics, st.statements, st.clarifications)
	res.Batch = o.clarifier.Present(st.clarifications)
	res.Pending = len(st.clarifications.Pending())

	if len(res.Batch) > 0 {
		ids := make([]string, 0, len(res.Batch))
		for _, q := range res.Batch {
			ids = append(ids, q.ID)
		}
		o.interact(st, models.InteractionQuestionsPresented, map[string]string{"questions": strings.Join(ids, ",")})
		st.session.AwaitingResponse = true
	} else if !st.session.PhaseDone(models.PhaseClarify) {
		o.completePhase(st, models.PhaseClarify, "no open questions")
	}
	if err := o.save(st); err != nil {
		return nil, fmt.Errorf("saving questions: %w", err)
	}
	return res, nil
}

// Answer records a free-text reply to the presented questions.
func (o *Orchestrator) Answer(h Handle, reply string, voice bool) (*AnswerResult, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	if err := writable(st.session); err != nil {
		return nil, err
	}
	if err := require(st.session, "answer", models.PhaseContradictions); err != nil {
		return nil, err
	}
	res, err := o.clarifier.Answer(st.topics, st.statements, st.clarifications, reply, voice, o.now())
	if err != nil {
		return nil, err
	}
	recordCoverage("clarify", st.statements)
	o.interact(st, models.InteractionAnswerReceived, map[string]string{
		"questions": strings.Join(res.Answered, ","),
		"strategy":  res.Strategy,
	})
	st.session.AwaitingResponse = false
	for i, id := range res.Answered {
		o.logEvent("question.answered", map[string]any{
			"session_id":  st.session.ID,
			"question_id": id,
			"statement":   res.Derived[i],
			"voice":       res.Voice,
		})
	}
	if res.StillPending == 0 && !st.session.PhaseDone(models.PhaseClarify) {
		o.completePhase(st, models.PhaseClarify, "all questions answered")
	}
	if err := o.save(st); err != nil {
		return nil, fmt.Errorf("saving answers: %w", err)
	}
	return &res, nil
}

// GenerateStories synthesizes one draft story per active topic and queues
// them for review.
func (o *Orchestrator) GenerateStories(h Handle) (*models.StorySet, error) {
	st, err := o.beginPhase(h, "generate-stories", models.PhaseStories, models.PhaseContradictions)
	if err != nil {
		return nil, err
	}
	stories := o.synthesizer.Generate(st.topics, st.statements, st.clarifications)
	queue := models.PresentationQueue{}
	for _, s := range stories.Stories {
		queue.Order = append(queue.Order, s.ID)
	}
	if err := o.docs.SaveStories(st.session.ID, &stories); err != nil {
		return nil, err
	}
	if err := o.docs.SaveQueue(st.session.ID, &queue); err != nil {
		return nil, err
	}
	o.completePhase(st, models.PhaseStories, fmt.Sprintf("%d stories", len(stories.Stories)))
	if err := o.save(st); err != nil {
		return nil, fmt.Errorf("saving stories: %w", err)
	}
	return &stories, nil
}

// Stories returns the stories of a session.
func (o *Orchestrator) Stories(h Handle) (*models.StorySet, error) {
	sess, err := o.Resolve(h)
	if err != nil {
		return nil, err
	}
	if err := require(sess, "listing stories", models.PhaseStories); err != nil {
		return nil, err
	}
	return o.docs.LoadStories(sess.ID)
}

// Clarifications returns the clarification questions of a session.
func (o *Orchestrator) Clarifications(h Handle) (*models.ClarificationSet, error) {
	sess, err := o.Resolve(h)
	if err != nil {
		return nil, err
	}
	return o.docs.LoadClarifications(sess.ID)
}

// EditStory commits a story edit. Invalid edits return a ValidationError
// and change nothing.
func (o *Orchestrator) EditStory(h Handle, storyID string, edit StoryEdit) (*models.Story, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	if err := writable(st.session); err != nil {
		return nil, err
	}
	if err := require(st.session, "story edit", models.PhaseStories); err != nil {
		return nil, err
	}
	stories, err := o.docs.LoadStories(st.session.ID)
	if err != nil {
		return nil, err
	}
	story := stories.Find(storyID)
	if story == nil {
		return nil, fmt.Errorf("story %s not found in session %s", storyID, st.session.ID)
	}
	if err := ApplyEdit(story, edit, st.statements, st.topics.Find(story.TopicID)); err != nil {
		return nil, err
	}
	if err := o.docs.SaveStories(st.session.ID, stories); err != nil {
		return nil, err
	}
	o.logEvent("story.edited", map[string]any{"session_id": st.session.ID, "story_id": storyID})
	if err := o.saveSession(st.session); err != nil {
		return nil, err
	}
	out := *story
	return &out, nil
}

// StatusReport summarizes a session for display.
type StatusReport struct {
	Session        models.Session
	Coverage       models.CoverageSnapshot
	Topics         int
	Statements     int
	Contradictions int
	Questions      int
	Pending        int
	Stories        map[models.StoryStatus]int
	Recovery       *RecoverySummary
}

// Status reports the progress of a session.
func (o *Orchestrator) Status(h Handle) (*StatusReport, error) {
	st, err := o.load(h)
	if err != nil {
		return nil, err
	}
	rep := &StatusReport{
		Session:        *st.session,
		Coverage:       ComputeCoverage("current", st.statements),
		Topics:         len(st.topics.Active()),
		Statements:     len(st.statements.Statements),
		Contradictions: len(st.statements.Contradictions),
		Questions:      len(st.clarifications.Questions),
		Pending:        len(st.clarifications.Pending()),
		Stories:        make(map[models.StoryStatus]int),
	}
	stories, err := o.docs.LoadStories(st.session.ID)
	if err != nil {
		return nil, err
	}
	for _, s := range stories.Stories {
		rep.Stories[s.Status]++
	}
	rep.Recovery = o.recoverySummary(st)
	return rep, nil
}
