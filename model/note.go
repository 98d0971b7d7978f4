package model

import "strconv"

type KeySignature string

const (
	KeyC  KeySignature = "C"
	KeyG  KeySignature = "G"
	KeyD  KeySignature = "D"
	KeyA  KeySignature = "A"
	KeyE  KeySignature = "E"
	KeyF  KeySignature = "F"
	KeyBb KeySignature = "Bb"
	KeyEb KeySignature = "Eb"
	KeyAb KeySignature = "Ab"
)

// Letter is a natural note letter, "A" through "G".
type Letter string

const (
	LetterC Letter = "C"
	LetterD Letter = "D"
	LetterE Letter = "E"
	LetterF Letter = "F"
	LetterG Letter = "G"
	LetterA Letter = "A"
	LetterB Letter = "B"
)

type Accidental string

const (
	Natural Accidental = ""
	Sharp   Accidental = "#"
	Flat    Accidental = "b"
)

// NoteName is a natural pitch with octave, e.g. "C4".
type NoteName string

type NoteRange struct {
	Low  NoteName `json:"low"`
	High NoteName `json:"high"`
}

type GeneratedNote struct {
	Letter     Letter     `json:"note"`
	Octave     int        `json:"octave"`
	Accidental Accidental `json:"accidental"`
}

func (n GeneratedNote) String() string {
	return string(n.Letter) + string(n.Accidental) + strconv.Itoa(n.Octave)
}

type KeySignatureInfo struct {
	Key             KeySignature `json:"key"`
	AccidentalCount int          `json:"accidentalCount"`
	AlteredLetters  []Letter     `json:"alteredLetters"`
	Sharps          bool         `json:"sharps"`
}
