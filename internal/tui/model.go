package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/barkain/scout/internal/domain"
	"github.com/barkain/scout/internal/tracker"
)

const (
	tickInterval = time.Second
	activityTail = 200 // Activity lines kept in the viewport
)

// Model is the watch TUI model.
// Fields are ordered to minimize memory padding.
type Model struct {
	// Dependencies
	tracker *tracker.Tracker

	// State
	snap       tracker.Snapshot
	cancelErr  error
	cancelling bool
	ready      bool

	// Components
	keys     KeyMap
	styles   Styles
	spinner  spinner.Model
	bar      progress.Model
	viewport viewport.Model

	// Numeric state
	width  int
	height int
}

// NewModel creates a new watch TUI model.
func NewModel(tr *tracker.Tracker) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	bar := progress.New(progress.WithDefaultGradient())

	return &Model{
		tracker: tr,
		snap:    tr.Snapshot(),
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		spinner: sp,
		bar:     bar,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.tick(),
	)
}

// tick schedules the next snapshot refresh.
func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return MsgTick{Snapshot: m.tracker.Snapshot()}
	})
}

// cancelRun requests cancellation of the tracked run.
func (m *Model) cancelRun() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return MsgCancelDone{Err: m.tracker.Cancel(ctx)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-20, 60)
		vpHeight := msg.Height - 9
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel):
			if m.terminal() || m.cancelling {
				return m, nil
			}
			m.cancelling = true
			return m, m.cancelRun()
		}
		return m, nil

	case MsgTick:
		m.snap = msg.Snapshot
		m.refreshViewport()
		if m.terminal() {
			// One last render with the final state, then exit.
			return m, tea.Sequence(tea.Tick(150*time.Millisecond, func(time.Time) tea.Msg { return nil }), tea.Quit)
		}
		return m, m.tick()

	case MsgCancelDone:
		m.cancelling = false
		m.cancelErr = msg.Err
		m.snap = m.tracker.Snapshot()
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) terminal() bool {
	return m.snap.Task != nil && m.snap.Task.IsTerminal()
}

// refreshViewport rebuilds the activity log view and keeps it pinned to
// the bottom.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	activities := m.snap.Activities
	if len(activities) > activityTail {
		activities = activities[len(activities)-activityTail:]
	}
	lines := make([]string, 0, len(activities))
	for _, a := range activities {
		lines = append(lines, m.renderActivity(a))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderActivity(a domain.Activity) string {
	var b strings.Builder
	if !a.Time.IsZero() {
		b.WriteString(m.styles.Meta.Render(a.Time.Format("15:04:05")))
		b.WriteString(" ")
	}
	if a.Phase != "" {
		b.WriteString(m.styles.Meta.Render("[" + a.Phase + "]"))
		b.WriteString(" ")
	}
	style := m.styles.Activity
	switch a.Level {
	case "warning":
		style = m.styles.Warning
	case "error":
		style = m.styles.Failed
	}
	b.WriteString(style.Render(a.Message))
	return b.String()
}

// View renders the watch screen.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("scout"))
	b.WriteString("  ")

	task := m.snap.Task
	if task == nil {
		b.WriteString(m.styles.Meta.Render("waiting for run..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.styles.Meta.Render(task.ID))
	b.WriteString("\n\n")

	b.WriteString(m.statusLine(task))
	b.WriteString("\n")

	if !task.IsTerminal() {
		b.WriteString(m.bar.ViewAs(progressFraction(task)))
		b.WriteString("\n")
	}

	meta := fmt.Sprintf("elapsed %s", m.snap.Elapsed.Round(time.Second))
	if m.snap.FailedPolls > 0 {
		meta += fmt.Sprintf("  %s", m.styles.Warning.Render(
			fmt.Sprintf("(%d failed polls, retrying)", m.snap.FailedPolls)))
	}
	if m.cancelErr != nil {
		meta += "  " + m.styles.Failed.Render("cancel failed: "+m.cancelErr.Error())
	}
	b.WriteString(m.styles.Meta.Render(meta))
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render("q: quit (run keeps going)  c: cancel run"))
	b.WriteString("\n")

	return b.String()
}

// statusLine renders the phase header for the current status.
func (m *Model) statusLine(task *domain.Task) string {
	switch {
	case task.Status == domain.StatusCompleted:
		line := "✓ Analysis complete"
		if n := len(task.ResultInsightIDs); n > 0 {
			line += fmt.Sprintf(" · %d insights", n)
		}
		if task.MarketRegime != "" {
			line += " · " + task.MarketRegime
		}
		return m.styles.Completed.Render(line)
	case task.Status == domain.StatusFailed:
		return m.styles.Failed.Render("✗ Analysis failed: " + task.ErrorMessage)
	case task.Status == domain.StatusCancelled:
		return m.styles.Cancelled.Render("⊘ Analysis cancelled")
	case m.cancelling:
		return m.styles.Cancelled.Render("Cancelling...")
	default:
		name := task.PhaseName
		if name == "" {
			name = task.Status.PhaseName()
		}
		return m.spinner.View() + " " + m.styles.Phase.Render(name)
	}
}

// progressFraction maps the task's progress to 0..1 for the bar.
func progressFraction(task *domain.Task) float64 {
	p := task.Progress
	if p <= 0 {
		p = task.Status.NominalProgress()
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return float64(p) / 100
}

// RunWatch runs the watch TUI until the run finishes or the user quits.
func RunWatch(tr *tracker.Tracker) error {
	p := tea.NewProgram(NewModel(tr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
