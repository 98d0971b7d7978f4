package midi

import (
	"io"

	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/theory"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ExportTempo    = 120
	exportVelocity = 100
)

var exportClock = smf.MetricTicks(96)

// Exercise builds a single-track SMF holding notes as consecutive whole notes.
func Exercise(notes []model.GeneratedNote) (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = exportClock

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("sightread"))
	tr.Add(0, smf.MetaTempo(ExportTempo))

	whole := exportClock.Ticks4th() * 4
	for _, n := range notes {
		key := uint8(theory.AbsolutePitch(n))
		tr.Add(0, gomidi.NoteOn(0, key, exportVelocity))
		tr.Add(whole, gomidi.NoteOff(0, key))
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return nil, err
	}
	return s, nil
}

func WriteExercise(w io.Writer, notes []model.GeneratedNote) error {
	s, err := Exercise(notes)
	if err != nil {
		return err
	}
	_, err = s.WriteTo(w)
	return err
}

func WriteExerciseFile(path string, notes []model.GeneratedNote) error {
	s, err := Exercise(notes)
	if err != nil {
		return err
	}
	return s.WriteFile(path)
}
