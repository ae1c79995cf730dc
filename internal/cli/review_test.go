package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

type fakeReviewer struct {
	stories   []models.Story
	decisions []string
	presented int
}

func (f *fakeReviewer) state() *core.ReviewState {
	rs := &core.ReviewState{}
	for i := range f.stories {
		switch f.stories[i].Status {
		case models.StoryDraft:
			rs.Remaining++
			if rs.Current == nil {
				s := f.stories[i]
				rs.Current = &s
			}
		case models.StoryApproved:
			rs.Approved++
		case models.StoryRejected:
			rs.Rejected++
		}
	}
	rs.Done = rs.Remaining == 0
	return rs
}

func (f *fakeReviewer) Present(_ core.Handle) (*core.ReviewState, error) {
	f.presented++
	return f.state(), nil
}

func (f *fakeReviewer) Decide(_ core.Handle, d core.Decision, reason string) (*core.ReviewState, error) {
	rs := f.state()
	if rs.Current == nil {
		return nil, core.ErrNoStoryPresented
	}
	for i := range f.stories {
		if f.stories[i].ID != rs.Current.ID {
			continue
		}
		switch d {
		case core.DecisionApprove:
			f.stories[i].Status = models.StoryApproved
		case core.DecisionReject:
			f.stories[i].Status = models.StoryRejected
			f.stories[i].RejectReason = reason
		}
	}
	f.decisions = append(f.decisions, string(d)+":"+reason)
	return f.state(), nil
}

func reviewStories() []models.Story {
	return []models.Story{
		{
			ID: "US-001", Title: "Sales dashboard", Status: models.StoryDraft,
			Role:    models.Part{Text: "sales manager"},
			Action:  models.Part{Text: "the dashboard to have a table"},
			Benefit: models.Part{Text: "I can track revenue"},
			Criteria: []models.Criterion{{
				ID:    "AC1",
				Given: models.Clause{Text: "the dashboard is open", Source: "S1", SourceType: models.SourceTypeStatement},
				When:  models.Clause{Text: "the page loads", SourceType: models.SourceTypeInferred},
				Then:  models.Clause{Text: "revenue per region is shown", Source: "S2", SourceType: models.SourceTypeStatement},
			}},
			Coverage: 100, Complexity: models.ComplexitySmall,
		},
		{
			ID: "US-002", Title: "Single sign-on", Status: models.StoryDraft,
			Role:     models.Part{Text: "user"},
			Action:   models.Part{Text: "to sign in with Google"},
			Benefit:  models.Part{Text: "I do not need another password"},
			Coverage: 50, Complexity: models.ComplexityMedium,
			Warnings: []string{"criterion AC1 has no traceable source"},
		},
	}
}

// load runs the model's command and feeds the message back into it.
func load(t *testing.T, m tea.Model, cmd tea.Cmd) reviewModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	updated, _ := m.Update(cmd())
	return updated.(reviewModel)
}

// newTestReview returns a model wide enough that nothing wraps.
func newTestReview(rv reviewer) reviewModel {
	m := newReviewModel(rv, core.Handle{})
	m.width = 200
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReviewModel_InitPresents(t *testing.T) {
	rv := &fakeReviewer{stories: reviewStories()}
	m := newTestReview(rv)

	if !strings.Contains(m.View(), "Loading stories") {
		t.Errorf("expected loading view, got:\n%s", m.View())
	}

	m = load(t, m, m.Init())
	if rv.presented != 1 {
		t.Errorf("expected one present call, got %d", rv.presented)
	}
	if m.current() == nil || m.current().ID != "US-001" {
		t.Fatalf("expected US-001 presented, got %+v", m.current())
	}
	view := m.View()
	for _, want := range []string{"US-001", "Sales dashboard", "As a sales manager", "AC1", "S1(statement)", "-(inferred)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestReviewModel_ApproveAdvances(t *testing.T) {
	rv := &fakeReviewer{stories: reviewStories()}
	m := newTestReview(rv)
	m = load(t, m, m.Init())

	updated, cmd := m.Update(key("a"))
	m = load(t, updated, cmd)

	if len(rv.decisions) != 1 || rv.decisions[0] != "approve:" {
		t.Fatalf("unexpected decisions: %v", rv.decisions)
	}
	if m.current() == nil || m.current().ID != "US-002" {
		t.Fatalf("expected US-002 next, got %+v", m.current())
	}
	if !strings.Contains(m.View(), "US-001 approved") {
		t.Errorf("expected note for the decision:\n%s", m.View())
	}
	if !strings.Contains(m.View(), "no traceable source") {
		t.Errorf("expected the story warning:\n%s", m.View())
	}
}

func TestReviewModel_RejectNeedsReason(t *testing.T) {
	rv := &fakeReviewer{stories: reviewStories()}
	m := newTestReview(rv)
	m = load(t, m, m.Init())

	updated, _ := m.Update(key("r"))
	m = updated.(reviewModel)
	if !m.rejecting {
		t.Fatal("expected reject mode")
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(reviewModel)
	if cmd != nil {
		t.Error("expected no decision without a reason")
	}
	if m.err == nil || !strings.Contains(m.View(), "a rejection needs a reason") {
		t.Errorf("expected reason error:\n%s", m.View())
	}

	for _, r := range "out of scope" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(reviewModel)
	}
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = load(t, updated, cmd)

	if len(rv.decisions) != 1 || rv.decisions[0] != "reject:out of scope" {
		t.Fatalf("unexpected decisions: %v", rv.decisions)
	}
	if m.rejecting {
		t.Error("expected reject mode to end")
	}
	if m.err != nil {
		t.Errorf("unexpected error: %v", m.err)
	}
}

func TestReviewModel_RejectEscCancels(t *testing.T) {
	rv := &fakeReviewer{stories: reviewStories()}
	m := newTestReview(rv)
	m = load(t, m, m.Init())

	updated, _ := m.Update(key("r"))
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(reviewModel)
	if m.rejecting {
		t.Error("expected esc to leave reject mode")
	}
	if len(rv.decisions) != 0 {
		t.Errorf("expected no decisions, got %v", rv.decisions)
	}
}

func TestReviewModel_DoneView(t *testing.T) {
	rv := &fakeReviewer{stories: reviewStories()}
	m := newTestReview(rv)
	m = load(t, m, m.Init())

	for i := 0; i < 2; i++ {
		updated, cmd := m.Update(key("a"))
		m = load(t, updated, cmd)
	}
	if m.current() != nil {
		t.Fatalf("expected no current story, got %s", m.current().ID)
	}
	if !strings.Contains(m.View(), "Review complete: 2 approved, 0 rejected") {
		t.Errorf("expected done view:\n%s", m.View())
	}

	// Decisions without a story are ignored.
	_, cmd := m.Update(key("a"))
	if cmd != nil {
		t.Error("expected no command without a current story")
	}
}

func TestReviewModel_ErrorIsShown(t *testing.T) {
	m := newReviewModel(&fakeReviewer{}, core.Handle{})
	updated, _ := m.Update(reviewLoadedMsg{err: errors.New("registry unavailable")})
	m = updated.(reviewModel)
	if !strings.Contains(m.View(), "registry unavailable") {
		t.Errorf("expected error in view:\n%s", m.View())
	}
}

func TestReviewModel_Quit(t *testing.T) {
	m := newReviewModel(&fakeReviewer{stories: reviewStories()}, core.Handle{})
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestReviewModel_WindowSize(t *testing.T) {
	m := newReviewModel(&fakeReviewer{}, core.Handle{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(reviewModel)
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
}
