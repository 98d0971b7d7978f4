package midi

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/jsphweid/sightread/generator"
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func exerciseNotes(t *testing.T) []model.GeneratedNote {
	notes, err := generator.New(generator.WithSeed(9)).GenerateN(model.KeyEb, model.NoteRange{Low: "C4", High: "C5"}, 8)
	require.NoError(t, err)
	return notes
}

func TestExportThenReplay(t *testing.T) {
	notes := exerciseNotes(t)

	var buf bytes.Buffer
	require.NoError(t, WriteExercise(&buf, notes))

	s, err := ReadMidi(buf.Bytes())
	require.NoError(t, err)

	var ons []model.NoteEvent
	for _, ev := range NoteEvents(s) {
		if ev.Type == model.NoteOn {
			ons = append(ons, ev)
		}
	}
	require.Len(t, ons, len(notes))
	for i, n := range notes {
		assert.Equal(t, theory.AbsolutePitch(n), ons[i].Pitch)
		// a whole note at 120 bpm lasts two seconds
		assert.InDelta(t, float64(i)*2000, ons[i].Timestamp, 1)
	}
}

func TestNoteEventsOrdersOffBeforeOn(t *testing.T) {
	notes := exerciseNotes(t)
	var buf bytes.Buffer
	require.NoError(t, WriteExercise(&buf, notes))
	s, err := ReadMidi(buf.Bytes())
	require.NoError(t, err)

	events := NoteEvents(s)
	require.Len(t, events, 2*len(notes))
	assert.Equal(t, model.NoteOn, events[0].Type)
	for i := 1; i < len(events); i++ {
		assert.LessOrEqual(t, events[i-1].Timestamp, events[i].Timestamp)
		if events[i-1].Timestamp == events[i].Timestamp {
			assert.Equal(t, model.NoteOff, events[i-1].Type)
		}
	}
}

func TestWriteExerciseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercise.mid")
	require.NoError(t, WriteExerciseFile(path, exerciseNotes(t)))

	s, err := ReadMidiFile(path)
	require.NoError(t, err)
	assert.Len(t, s.Tracks, 1)
}

func TestReadMidiRejectsGarbage(t *testing.T) {
	_, err := ReadMidi([]byte("definitely not a midi file"))
	assert.Error(t, err)

	_, err = ReadMidiFile(filepath.Join(t.TempDir(), "missing.mid"))
	assert.Error(t, err)
}

func TestEventFromMessage(t *testing.T) {
	tests := []struct {
		name     string
		msg      gomidi.Message
		expected model.NoteEvent
		ok       bool
	}{
		{"note on", gomidi.NoteOn(0, 60, 90), model.NoteEvent{Type: model.NoteOn, Pitch: 60, Timestamp: 12}, true},
		{"note off", gomidi.NoteOff(3, 61), model.NoteEvent{Type: model.NoteOff, Pitch: 61, Timestamp: 12}, true},
		{"zero velocity", gomidi.NoteOn(0, 62, 0), model.NoteEvent{Type: model.NoteOff, Pitch: 62, Timestamp: 12}, true},
		{"control change", gomidi.ControlChange(0, 64, 127), model.NoteEvent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := EventFromMessage(tt.msg, 12)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, ev)
		})
	}
}
