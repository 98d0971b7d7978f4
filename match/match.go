package match

import (
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/theory"
)

type Outcome int

const (
	Ignored Outcome = iota
	Hit
	Miss
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return "ignored"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Matches reports whether pitch is exactly the expected note, octave and
// accidental included. The same letter in another octave is a miss.
func Matches(pitch int, expected model.GeneratedNote) bool {
	return pitch == theory.AbsolutePitch(expected)
}

// Evaluate only looks at note-on events. The event's timestamp plays no part.
func Evaluate(event model.NoteEvent, expected model.GeneratedNote) Outcome {
	if event.Type != model.NoteOn {
		return Ignored
	}
	if Matches(event.Pitch, expected) {
		return Hit
	}
	return Miss
}
