// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"fmt"
	"strings"

	"barvis/internal/progress"
	"barvis/internal/transport"
	"barvis/internal/visual"

	"github.com/charmbracelet/bubbles/key"
	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)
)

var quitKeys = key.NewBinding(key.WithKeys("q", "ctrl+c"))

// Spectrum levels, quietest first.
var levels = []rune("▁▂▃▄▅▆▇█")

type progressMsg struct{ samples int }

type snapshotMsg struct{ snap transport.Snapshot }

type doneMsg struct{ err error }

// RenderModel shows render progress and a text spectrum of the latest frame.
type RenderModel struct {
	title    string
	total    int
	samples  int
	frames   int
	buckets  []float32
	bar      bprogress.Model
	finished bool
	quit     bool
	err      error
	cancel   context.CancelFunc
}

// NewRenderModel returns a model for total samples. cancel is called when
// the user quits early; it may be nil.
func NewRenderModel(title string, total int, cancel context.CancelFunc) RenderModel {
	return RenderModel{
		title:  title,
		total:  total,
		bar:    bprogress.New(bprogress.WithDefaultGradient()),
		cancel: cancel,
	}
}

func (m RenderModel) Init() tea.Cmd { return nil }

func (m RenderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-4, 80))

	case progressMsg:
		m.samples = msg.samples

	case snapshotMsg:
		m.frames = msg.snap.Frame + 1
		m.buckets = msg.snap.Values

	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
			m.quit = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

// Percent returns the completed fraction in [0, 1].
func (m RenderModel) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return min(1, float64(m.samples)/float64(m.total))
}

// Aborted reports whether the user quit before the render finished.
func (m RenderModel) Aborted() bool { return m.quit && !m.finished }

func (m RenderModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")
	sb.WriteString(m.bar.ViewAs(m.Percent()))
	sb.WriteString("\n\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("Samples: %d / %d  Frames: %d", m.samples, m.total, m.frames)))
	sb.WriteString("\n")
	if len(m.buckets) > 0 {
		sb.WriteString(highlightStyle.Render(Spectrum(m.buckets)))
		sb.WriteString("\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.finished:
		sb.WriteString(infoStyle.Render("Done."))
	default:
		sb.WriteString(infoStyle.Render("q: Abort"))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Spectrum draws one block character per bucket, scaled like the bars.
func Spectrum(buckets []float32) string {
	var sb strings.Builder
	top := len(levels) - 1
	for _, v := range buckets {
		h := visual.BarHeight(v, visual.BarMaxHeight)
		sb.WriteRune(levels[h*top/visual.BarMaxHeight])
	}
	return sb.String()
}

// Session runs a RenderModel and feeds it. It is a progress.Reporter for
// sample counts and a transport.Transport for bucket snapshots.
type Session struct {
	p     *tea.Program
	total int
	step  int
	last  int
}

// NewSession prepares, but does not run, the TUI program.
func NewSession(title string, total int, cancel context.CancelFunc, opts ...tea.ProgramOption) *Session {
	return &Session{
		p:     tea.NewProgram(NewRenderModel(title, total, cancel), opts...),
		total: total,
		step:  max(1, total/500),
	}
}

// Run blocks until the render finishes or the user quits.
func (s *Session) Run() error {
	final, err := s.p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(RenderModel); ok && m.Aborted() {
		return context.Canceled
	}
	return nil
}

// Update forwards sample counts, coalesced to a few hundred messages.
func (s *Session) Update(n int) {
	if n-s.last < s.step && n < s.total {
		return
	}
	s.last = n
	s.p.Send(progressMsg{samples: n})
}

// Finish tells the model the render is complete.
func (s *Session) Finish() { s.Done(nil) }

// Done ends the session, showing err if non-nil.
func (s *Session) Done(err error) { s.p.Send(doneMsg{err: err}) }

// Send forwards transport.Snapshot values to the spectrum view.
func (s *Session) Send(data any) error {
	if snap, ok := data.(transport.Snapshot); ok {
		s.p.Send(snapshotMsg{snap: snap})
	}
	return nil
}

// Close is a no-op; the program ends via Finish or Done.
func (s *Session) Close() error { return nil }

var (
	_ progress.Reporter   = (*Session)(nil)
	_ transport.Transport = (*Session)(nil)
	_ tea.Model           = RenderModel{}
)
