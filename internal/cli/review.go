package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/story-digest/internal/core"
	"github.com/valter-silva-au/story-digest/pkg/models"
)

// reviewer is the part of the orchestrator the review screen drives.
type reviewer interface {
	Present(h core.Handle) (*core.ReviewState, error)
	Decide(h core.Handle, d core.Decision, reason string) (*core.ReviewState, error)
}

type reviewModel struct {
	rv     reviewer
	h      core.Handle
	width  int
	height int

	state     *core.ReviewState
	rejecting bool
	reason    textinput.Model
	note      string

	loading bool
	err     error
}

// reviewLoadedMsg carries the queue state after a present or a decision.
type reviewLoadedMsg struct {
	state *core.ReviewState
	note  string
	err   error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newReviewModel(rv reviewer, h core.Handle) reviewModel {
	ti := textinput.New()
	ti.Placeholder = "why is this story rejected?"
	ti.CharLimit = 280
	ti.Width = 60
	return reviewModel{rv: rv, h: h, reason: ti, loading: true}
}

func (m reviewModel) Init() tea.Cmd {
	return m.present
}

func (m reviewModel) present() tea.Msg {
	rs, err := m.rv.Present(m.h)
	return reviewLoadedMsg{state: rs, err: err}
}

func (m reviewModel) decide(d core.Decision, reason string) tea.Cmd {
	return func() tea.Msg {
		rs, err := m.rv.Decide(m.h, d, reason)
		note := ""
		if err == nil && m.state != nil && m.state.Current != nil {
			note = fmt.Sprintf("%s %s", m.state.Current.ID, decided[d])
		}
		return reviewLoadedMsg{state: rs, note: note, err: err}
	}
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.rejecting {
			return m.updateReason(msg)
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "a":
			if m.current() == nil {
				return m, nil
			}
			m.loading = true
			return m, m.decide(core.DecisionApprove, "")
		case "s":
			if m.current() == nil {
				return m, nil
			}
			m.loading = true
			return m, m.decide(core.DecisionSkip, "")
		case "r":
			if m.current() == nil {
				return m, nil
			}
			m.rejecting = true
			m.reason.Reset()
			return m, m.reason.Focus()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case reviewLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.state = msg.state
		m.note = msg.note
		return m, nil
	}

	return m, nil
}

// updateReason handles keys while the rejection reason is being typed.
func (m reviewModel) updateReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.rejecting = false
		m.reason.Blur()
		return m, nil
	case "enter":
		reason := strings.TrimSpace(m.reason.Value())
		if reason == "" {
			m.err = fmt.Errorf("a rejection needs a reason")
			return m, nil
		}
		m.rejecting = false
		m.reason.Blur()
		m.loading = true
		m.err = nil
		return m, m.decide(core.DecisionReject, reason)
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

func (m reviewModel) current() *models.Story {
	if m.state == nil {
		return nil
	}
	return m.state.Current
}

func (m reviewModel) View() string {
	title := titleStyle.Render(" Story Review ")
	help := helpStyle.Render("a: approve | r: reject | s: skip | q: quit")
	if m.rejecting {
		help = helpStyle.Render("enter: reject with reason | esc: cancel")
	}

	if m.loading && m.state == nil {
		return fmt.Sprintf("%s\n\n  Loading stories...\n\n%s", title, help)
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	if m.state != nil {
		b.WriteString(renderCounts(m.state))
		b.WriteString("\n\n")
	}

	switch s := m.current(); {
	case s != nil:
		width := m.width - 6
		if width < 40 {
			width = 40
		}
		b.WriteString(panelStyle.Width(width).Render(renderStoryPanel(*s)))
	case m.state != nil && m.state.Done:
		b.WriteString(fmt.Sprintf("  Review complete: %d approved, %d rejected.\n  Run 'sdg finalize' to queue the approved stories.", m.state.Approved, m.state.Rejected))
	default:
		b.WriteString("  No story to present.")
	}
	b.WriteString("\n")

	if m.rejecting {
		b.WriteString("\n  Reason: ")
		b.WriteString(m.reason.View())
		b.WriteString("\n")
	}
	if m.note != "" {
		b.WriteString("\n  " + m.note + "\n")
	}
	if m.err != nil {
		b.WriteString("\n  " + rejectedStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(help)
	return b.String()
}

func renderCounts(rs *core.ReviewState) string {
	return fmt.Sprintf("  %s  %s  %s  %d remaining",
		approvedStyle.Render(fmt.Sprintf("%d approved", rs.Approved)),
		rejectedStyle.Render(fmt.Sprintf("%d rejected", rs.Rejected)),
		skippedStyle.Render(fmt.Sprintf("%d skipped", rs.Skipped)),
		rs.Remaining)
}

func renderStoryPanel(s models.Story) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %s", s.ID, s.Title)))
	b.WriteString("\n")
	b.WriteString(core.StorySentence(s))
	b.WriteString("\n\n")
	for _, c := range s.Criteria {
		b.WriteString(fmt.Sprintf("%s  %s\n", c.ID, core.RenderCriterion(c)))
		b.WriteString(sourceStyle.Render("     "+clauseSources(c)) + "\n")
	}
	b.WriteString(fmt.Sprintf("\nCoverage %.1f%%  Complexity %s", s.Coverage, s.Complexity))
	for _, w := range s.Warnings {
		b.WriteString("\n" + warningStyle.Render("! "+w))
	}
	return b.String()
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review the generated stories interactively",
	Long: `Launch an interactive terminal screen that presents each story in
the approval queue. Approve with a, reject with r (a reason is required),
skip with s, quit with q. Every decision is saved immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Digest == nil {
			return fmt.Errorf("digest orchestrator not initialized")
		}
		p := tea.NewProgram(newReviewModel(Digest, handle()), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
