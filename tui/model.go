package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jsphweid/sightread/exercise"
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/theory"
	"github.com/jsphweid/sightread/util"
)

// notes shown behind the current one
const visibleHistory = 6

const offsetStep = 5

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	playedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	upcomingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	currentStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	idleStyle      = currentStyle.Background(lipgloss.Color("33")).Foreground(lipgloss.Color("231"))
	correctStyle   = currentStyle.Background(lipgloss.Color("35")).Foreground(lipgloss.Color("231"))
	incorrectStyle = currentStyle.Background(lipgloss.Color("160")).Foreground(lipgloss.Color("231"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type Model struct {
	Exercise *exercise.Exercise
	Updates  <-chan struct{}
	Key      model.KeySignature
	Range    model.NoteRange
	Input    string

	snap     exercise.Snapshot
	err      error
	quitting bool
}

type UpdateMsg struct{}

// Notifier adapts an update channel to exercise.WithOnUpdate. Sends never
// block; the view rereads the snapshot so coalesced updates lose nothing.
func Notifier(ch chan struct{}) func(exercise.Snapshot) {
	return func(exercise.Snapshot) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func NewModel(ex *exercise.Exercise, updates <-chan struct{}, key model.KeySignature, r model.NoteRange, input string) Model {
	return Model{
		Exercise: ex,
		Updates:  updates,
		Key:      key,
		Range:    r,
		Input:    input,
		snap:     ex.Snapshot(),
	}
}

func ListenForUpdates(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Exercise.Stop()
			return m, tea.Quit

		case "s", " ":
			if m.Exercise.Active() {
				m.Exercise.Stop()
				m.err = nil
			} else {
				_, m.err = m.Exercise.Start(m.Key, m.Range)
			}

		case "+", "=":
			comp := m.Exercise.Latency()
			comp.SetOffsetMs(comp.Config().OffsetMs + offsetStep)

		case "-", "_":
			comp := m.Exercise.Latency()
			comp.SetOffsetMs(comp.Config().OffsetMs - offsetStep)

		case "l":
			comp := m.Exercise.Latency()
			comp.SetEnabled(!comp.Config().Enabled)

		case "r":
			m.Exercise.Latency().Reset()
		}
		m.snap = m.Exercise.Snapshot()

	case UpdateMsg:
		m.snap = m.Exercise.Snapshot()
		return m, ListenForUpdates(m.Updates)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := "STOPPED"
	if m.snap.Active {
		state = "PLAYING"
	}
	header := headerStyle.Render(fmt.Sprintf("sightread  %s  key:%s  %s-%s", state, m.keyLabel(), m.Range.Low, m.Range.High))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	if m.Input != "" {
		out.WriteString(dimStyle.Render("input: " + m.Input))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	if m.snap.Active {
		out.WriteString(m.notesView())
		out.WriteString("\n\n")
		out.WriteString(fmt.Sprintf("correct %d  miss %d", m.snap.Stats.Correct, m.snap.Stats.Miss))
	} else {
		out.WriteString(dimStyle.Render("press s to start"))
	}
	out.WriteString("\n\n")
	out.WriteString(m.latencyView())

	if m.err != nil {
		out.WriteString("\n")
		out.WriteString(errStyle.Render(m.err.Error()))
	}

	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render("s:start/stop  +/-:latency  l:toggle latency  r:reset latency  q:quit"))
	return out.String()
}

// keyLabel names the key followed by its altered letters, e.g. "G (F#)".
func (m Model) keyLabel() string {
	info, err := theory.KeySignatureInfo(m.Key)
	if err != nil || len(info.AlteredLetters) == 0 {
		return string(m.Key)
	}
	acc := model.Flat
	if info.Sharps {
		acc = model.Sharp
	}
	altered := make([]string, len(info.AlteredLetters))
	for i, l := range info.AlteredLetters {
		altered[i] = string(l) + string(acc)
	}
	return fmt.Sprintf("%s (%s)", m.Key, strings.Join(altered, " "))
}

func (m Model) notesView() string {
	notes := m.snap.Notes
	cur := m.snap.CurrentIndex
	from := util.Max(0, cur-visibleHistory)

	cells := make([]string, 0, len(notes)-from)
	for i := from; i < len(notes); i++ {
		label := notes[i].String()
		switch {
		case i < cur:
			cells = append(cells, playedStyle.Render(label))
		case i == cur:
			cells = append(cells, feedbackStyle(m.snap.Feedback).Render(label))
		default:
			cells = append(cells, upcomingStyle.Render(label))
		}
	}
	return strings.Join(cells, " ")
}

func feedbackStyle(f exercise.Feedback) lipgloss.Style {
	switch f {
	case exercise.Correct:
		return correctStyle
	case exercise.Incorrect:
		return incorrectStyle
	default:
		return idleStyle
	}
}

func (m Model) latencyView() string {
	cfg := m.Exercise.Latency().Config()
	state := "off"
	if cfg.Enabled {
		state = "on"
	}
	return dimStyle.Render(fmt.Sprintf("latency %s  offset %.0fms  (%.0f-%.0f)", state, cfg.OffsetMs, cfg.MinOffsetMs, cfg.MaxOffsetMs))
}
