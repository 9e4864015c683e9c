package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KnowOneActual/image-processor/internal/processor"
)

const logLines = 8

type Model struct {
	events    <-chan processor.Event
	cancel    context.CancelFunc
	stopping  bool
	started   time.Time
	width     int
	total     int
	processed int
	failed    int
	skipped   int
	log       []processor.Event
	quitting  bool
}

type doneMsg struct{}

type eventMsg processor.Event

// NewModel renders events until the channel closes. cancel, when set, is
// called on ctrl+c so the batch stops after the files in flight.
func NewModel(events <-chan processor.Event, cancel context.CancelFunc) Model {
	return Model{events: events, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m = m.apply(processor.Event(msg))
		return m, listenForEvents(m.events)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		// Keep draining events after ctrl+c so the batch can finish.
		if msg.Type == tea.KeyCtrlC && !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) apply(ev processor.Event) Model {
	if ev.Kind == processor.EventScan {
		m.total = ev.Total
	}
	if ev.Terminal() {
		switch ev.Kind {
		case processor.EventSave:
			m.processed++
		case processor.EventError:
			m.failed++
		case processor.EventSkip:
			m.skipped++
		}
	}

	m.log = append(m.log, ev)
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	done := m.processed + m.failed + m.skipped
	ratio := 0.0
	if m.total > 0 {
		ratio = float64(done) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("imgproc"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", done, m.total)) +
			dimStyle.Render(fmt.Sprintf("  saved:%d skipped:%d failed:%d", m.processed, m.skipped, m.failed)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}
	if m.stopping {
		lines = append(lines, warnStyle.Render("Stopping after current files..."))
	}
	for _, ev := range m.log {
		lines = append(lines, renderEvent(ev))
	}

	return strings.Join(lines, "\n")
}

func listenForEvents(events <-chan processor.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

// RenderEvent formats one event line the way the progress view shows it.
func RenderEvent(ev processor.Event) string {
	return renderEvent(ev)
}

func renderEvent(ev processor.Event) string {
	switch ev.Kind {
	case processor.EventError:
		return errorStyle.Render(ev.String())
	case processor.EventSkip, processor.EventDecode:
		return warnStyle.Render(ev.String())
	case processor.EventSave, processor.EventDone:
		return successStyle.Render(ev.String())
	default:
		return dimStyle.Render(ev.String())
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle     = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
)
