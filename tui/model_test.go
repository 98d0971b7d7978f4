package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jsphweid/sightread/exercise"
	"github.com/jsphweid/sightread/generator"
	"github.com/jsphweid/sightread/latency"
	"github.com/jsphweid/sightread/logging"
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T) (Model, chan struct{}) {
	logger := logging.Discard()
	updates := make(chan struct{}, 1)
	ex := exercise.New(
		generator.New(generator.WithSeed(5)),
		latency.New(nil, latency.WithLogger(logger)),
		exercise.WithLogger(logger),
		exercise.WithOnUpdate(Notifier(updates)),
	)
	t.Cleanup(ex.Stop)
	return NewModel(ex, updates, model.KeyA, model.NoteRange{Low: "A3", High: "A4"}, "Test Keyboard"), updates
}

func press(m Model, key string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(Model)
}

func TestStartStopFromKeyboard(t *testing.T) {
	m, updates := newModel(t)
	assert.Contains(t, m.View(), "press s to start")
	assert.Contains(t, m.View(), "Test Keyboard")

	m = press(m, "s")
	require.True(t, m.Exercise.Active())
	assert.Len(t, updates, 1)

	view := m.View()
	assert.Contains(t, view, "PLAYING")
	assert.Contains(t, view, m.snap.Notes[0].String())
	assert.Contains(t, view, "correct 0  miss 0")

	m = press(m, "s")
	assert.False(t, m.Exercise.Active())
	assert.Contains(t, m.View(), "STOPPED")
}

func TestUpdateMsgRereadsSnapshot(t *testing.T) {
	m, updates := newModel(t)
	m = press(m, "s")
	<-updates

	cur := m.snap.Notes[m.snap.CurrentIndex]
	_, err := m.Exercise.HandleEvent(model.NoteEvent{Type: model.NoteOn, Pitch: theory.AbsolutePitch(cur)})
	require.NoError(t, err)

	next, cmd := m.Update(UpdateMsg{})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.snap.Stats.Correct)
	assert.Equal(t, exercise.Correct, m.snap.Feedback)
	assert.Contains(t, m.View(), "correct 1  miss 0")
}

func TestLatencyKeys(t *testing.T) {
	m, _ := newModel(t)
	comp := m.Exercise.Latency()

	m = press(m, "+")
	assert.Equal(t, 55.0, comp.Config().OffsetMs)
	m = press(m, "-")
	m = press(m, "-")
	assert.Equal(t, 45.0, comp.Config().OffsetMs)

	m = press(m, "l")
	assert.False(t, comp.Config().Enabled)
	assert.Contains(t, m.View(), "latency off")

	m = press(m, "r")
	assert.Equal(t, latency.Defaults(), comp.Config())
	assert.Contains(t, m.View(), "latency on  offset 50ms")
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, "s")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.Exercise.Active())
	assert.Empty(t, m.View())
}

func TestHeaderShowsKeySignature(t *testing.T) {
	m, _ := newModel(t)
	assert.Contains(t, m.View(), "key:A (F# C# G#)")

	tests := []struct {
		key  model.KeySignature
		want string
	}{
		{model.KeyC, "C"},
		{model.KeyG, "G (F#)"},
		{model.KeyBb, "Bb (Bb Eb)"},
		{model.KeyAb, "Ab (Bb Eb Ab Db)"},
	}
	for _, tt := range tests {
		m.Key = tt.key
		assert.Equal(t, tt.want, m.keyLabel(), tt.key)
	}
}
