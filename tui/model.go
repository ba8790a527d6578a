package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/ansel1/spectang/output"
	"github.com/ansel1/spectang/results"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EventMsg wraps lifecycle events for bubbletea
type EventMsg results.Event

// DoneMsg signals that the event stream has been exhausted and every
// rendered line has been printed.
type DoneMsg struct{}

// Model is the live status area shown while tests run: the cases currently
// executing and a summary line with a spinner and running counts.
//
// Rendered results are not part of the view. The host prints them above the
// program with tea.Program.Println, so they stay in the terminal's
// scrollback after the program exits.
type Model struct {
	Passed  int
	Failed  int
	Ignored int

	// Terminal state
	TerminalWidth  int
	TerminalHeight int

	// ReplayRate scales displayed elapsed time back to the original run's
	// time when replaying a recording. 0 and 1 leave it unchanged.
	ReplayRate float64

	Finished    bool // the stream completed or the user quit
	Interrupted bool // the user quit before the stream completed
	StartTime   time.Time
	Elapsed     time.Duration // set once Finished

	running []results.Node // cases in start order
	palette output.Palette
	now     func() time.Time
	spinner spinner.Model
}

// NewModel creates a new TUI model. A nil palette styles nothing.
func NewModel(palette output.Palette, replayRate float64) *Model {
	s := spinner.New()
	s.Spinner = spinner.Jump

	if palette == nil {
		palette = output.Plain{}
	}
	return &Model{
		TerminalWidth:  80, // Default width, will be updated by Bubbletea
		TerminalHeight: 24,
		ReplayRate:     replayRate,
		StartTime:      time.Now(),
		palette:        palette,
		now:            time.Now,
		spinner:        s,
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.handleEvent(results.Event(msg))

	case tea.WindowSizeMsg:
		m.TerminalWidth = msg.Width
		m.TerminalHeight = msg.Height

	case DoneMsg:
		m.finish()
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.Interrupted = !m.Finished
			m.finish()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) finish() {
	if m.Finished {
		return
	}
	m.Finished = true
	m.Elapsed = m.now().Sub(m.StartTime)
}

func (m *Model) handleEvent(evt results.Event) {
	switch evt.Type {
	case results.EventStarted:
		switch evt.Node.Kind {
		case results.KindCase:
			m.running = append(m.running, evt.Node)
		case results.KindSuite:
			// A case turns into a suite when its first subtest starts.
			m.stopped(evt.Node)
		}

	case results.EventTestResult:
		if evt.Result == nil {
			return
		}
		m.stopped(evt.Result.Node)
		switch evt.Result.Outcome.Status {
		case results.StatusSuccess:
			m.Passed++
		case results.StatusFailure:
			m.Failed++
		case results.StatusIgnored:
			m.Ignored++
		}
	}
}

// stopped removes the oldest running entry for node.
func (m *Model) stopped(node results.Node) {
	for i, n := range m.running {
		if samePath(n.FullPath, node.FullPath) {
			m.running = append(m.running[:i], m.running[i+1:]...)
			return
		}
	}
}

func samePath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Running returns the number of cases that started and have not completed.
func (m *Model) Running() int {
	return len(m.running)
}

// HasFailures returns true if any case failed
func (m *Model) HasFailures() bool {
	return m.Failed > 0
}

// View renders the running cases and the summary line. It is empty once the
// run finished, so nothing is left behind below the printed results.
func (m *Model) View() string {
	if m.Finished {
		return ""
	}

	var b strings.Builder

	// Keep the summary line visible; show the most recently started cases
	// that fit above it.
	shown := m.running
	if room := m.TerminalHeight - 1; room < len(shown) {
		if room < 0 {
			room = 0
		}
		shown = shown[len(shown)-room:]
	}
	for _, node := range shown {
		m.renderAlignedLine(&b, node.Name, parentTitle(node), "  ")
	}

	m.renderSummaryLine(&b)

	return strings.TrimRight(expandTabs(b.String(), 8), "\n")
}

// parentTitle names the suites enclosing node.
func parentTitle(node results.Node) string {
	if len(node.FullPath) < 2 {
		return ""
	}
	return strings.Join(node.FullPath[:len(node.FullPath)-1], " ")
}

// displayElapsed returns the time to show for the run so far, scaled back to
// original time in replay mode.
func (m *Model) displayElapsed() time.Duration {
	elapsed := m.now().Sub(m.StartTime)
	if m.ReplayRate != 0 && m.ReplayRate != 1 {
		elapsed = time.Duration(float64(elapsed) / m.ReplayRate)
	}
	return elapsed
}

func (m *Model) renderSummaryLine(b *strings.Builder) {
	passed := fmt.Sprintf("%d passed", m.Passed)
	if m.Passed > 0 {
		passed = m.palette.Style(output.RoleSuccess, passed)
	}
	failed := fmt.Sprintf("%d failed", m.Failed)
	if m.Failed > 0 {
		failed = m.palette.Style(output.RoleFailure, failed)
	}
	ignored := m.palette.Style(output.RoleIgnored, fmt.Sprintf("%d ignored", m.Ignored))

	left := fmt.Sprintf("RUNNING: %s, %s, %s, %d running", passed, failed, ignored, m.Running())
	right := formatElapsedTime(m.displayElapsed())

	m.renderAlignedLine(b, left, right, m.spinnerPrefix())
}

// spinnerPrefix returns the spinner, red once anything failed.
func (m *Model) spinnerPrefix() string {
	role := output.RoleSuccess
	if m.Failed > 0 {
		role = output.RoleFailure
	}
	return m.palette.Style(role, m.spinner.View()) + " "
}

// renderAlignedLine renders a line with left-aligned and right-aligned content
func (m *Model) renderAlignedLine(b *strings.Builder, left, right, prefix string) {
	fullLeft := prefix + left

	if right == "" {
		b.WriteString(ensureReset(truncateLine(fullLeft, m.TerminalWidth)))
		b.WriteString("\n")
		return
	}

	rightWidth := lipgloss.Width(right)
	availableWidth := m.TerminalWidth - rightWidth - 2
	if availableWidth < 0 {
		availableWidth = 0
	}

	fullLeft = ensureReset(truncateLine(fullLeft, availableWidth))
	padding := availableWidth - lipgloss.Width(fullLeft)
	if padding < 0 {
		padding = 0
	}
	b.WriteString(fullLeft)
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString("  ")
	b.WriteString(right)
	b.WriteString("\n")
}

// Logger returns a sink that prints each message above the program's view.
func Logger(p *tea.Program) output.Logger {
	return func(args ...any) {
		p.Println(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
	}
}
