package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/lightboard/internal/logic"
)

const (
	frameInterval = 20 * time.Millisecond
	maxLogLines   = 6
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fff"))
	litStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd75f")).Bold(true)
	darkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	modeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
)

type frameMsg time.Time

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// model feeds key presses into the ensemble as activations, one frame at a
// time, the same way the daemon feeds debounced GPIO presses.
type model struct {
	ensemble *logic.Ensemble
	start    time.Time
	tick     logic.Tick
	pending  logic.Activations
	log      []string
	err      error
	quitting bool
}

func newModel(e *logic.Ensemble, start time.Time) model {
	return model{
		ensemble: e,
		start:    start,
		pending:  logic.Activations{Lights: make([]bool, e.Len())},
	}
}

func (m model) Init() tea.Cmd {
	return nextFrame()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "m", " ", "enter":
			m.pending.Selector = true
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				if i := int(key[0] - '1'); i < m.ensemble.Len() {
					lights := append([]bool(nil), m.pending.Lights...)
					lights[i] = true
					m.pending.Lights = lights
				}
			}
		}
		return m, nil

	case frameMsg:
		m = m.step(time.Time(msg))
		return m, nextFrame()
	}
	return m, nil
}

// step runs one ensemble tick at t with the presses collected since the
// previous frame.
func (m model) step(t time.Time) model {
	m.tick = logic.Tick(t.Sub(m.start).Milliseconds())
	evs, err := m.ensemble.Process(m.tick, m.pending)
	m.pending = logic.Activations{Lights: make([]bool, m.ensemble.Len())}
	m.err = err

	for _, ev := range evs {
		var line string
		switch ev.Type {
		case logic.EventModeChanged:
			line = fmt.Sprintf("%7dms  mode %s", ev.Tick, ev.Mode)
		case logic.EventLightToggled:
			state := "off"
			if ev.Lit {
				state = "on"
			}
			line = fmt.Sprintf("%7dms  light %d %s", ev.Tick, ev.Light, state)
		default:
			continue
		}
		m.log = append(m.log, line)
	}
	if len(m.log) > maxLogLines {
		m.log = append([]string(nil), m.log[len(m.log)-maxLogLines:]...)
	}
	return m
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("lightboard"))
	b.WriteString("  ")
	b.WriteString(modeStyle.Render(m.ensemble.Mode().String()))
	b.WriteString("\n\n")

	lamps := make([]string, m.ensemble.Len())
	labels := make([]string, m.ensemble.Len())
	for i, lit := range m.ensemble.Lit() {
		if lit {
			lamps[i] = litStyle.Render("●")
		} else {
			lamps[i] = darkStyle.Render("○")
		}
		labels[i] = labelStyle.Render(fmt.Sprint(i + 1))
	}
	b.WriteString("  " + strings.Join(lamps, "   ") + "\n")
	b.WriteString("  " + strings.Join(labels, "   ") + "\n\n")

	b.WriteString(dimStyle.Render(m.ensemble.Status()))
	b.WriteString("\n\n")

	for _, line := range m.log {
		b.WriteString(dimStyle.Render(line) + "\n")
	}
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("1-%d press light · m/space next mode · q quit", m.ensemble.Len())))
	b.WriteString("\n")
	return b.String()
}
