// Package theory holds the fixed music-theory tables the exercise is built on:
// major key signatures up to four sharps or flats, the 28 natural note names
// from C3 to B6, and MIDI-style absolute pitch numbers.
package theory

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/util"
)

var (
	ErrUnknownKey   = errors.New("unknown key signature")
	ErrUnknownNote  = errors.New("unknown note name")
	ErrInvalidRange = errors.New("low note must be below high note")
)

const (
	LowestOctave  = 3
	HighestOctave = 6
)

// Letters in scale order starting from C.
var Letters = []model.Letter{
	model.LetterC, model.LetterD, model.LetterE, model.LetterF,
	model.LetterG, model.LetterA, model.LetterB,
}

var Keys = []model.KeySignature{
	model.KeyC, model.KeyG, model.KeyD, model.KeyA, model.KeyE,
	model.KeyF, model.KeyBb, model.KeyEb, model.KeyAb,
}

var semitones = map[model.Letter]int{
	model.LetterC: 0,
	model.LetterD: 2,
	model.LetterE: 4,
	model.LetterF: 5,
	model.LetterG: 7,
	model.LetterA: 9,
	model.LetterB: 11,
}

var sharpOrder = []model.Letter{model.LetterF, model.LetterC, model.LetterG, model.LetterD}
var flatOrder = []model.Letter{model.LetterB, model.LetterE, model.LetterA, model.LetterD}

type signature struct {
	count  int
	sharps bool
}

var signatures = map[model.KeySignature]signature{
	model.KeyC:  {0, true},
	model.KeyG:  {1, true},
	model.KeyD:  {2, true},
	model.KeyA:  {3, true},
	model.KeyE:  {4, true},
	model.KeyF:  {1, false},
	model.KeyBb: {2, false},
	model.KeyEb: {3, false},
	model.KeyAb: {4, false},
}

// AlterationTable maps every letter to the accidental the key imposes on it.
type AlterationTable map[model.Letter]model.Accidental

func ValidKey(key model.KeySignature) bool {
	_, ok := signatures[key]
	return ok
}

func KeySignatureInfo(key model.KeySignature) (model.KeySignatureInfo, error) {
	sig, ok := signatures[key]
	if !ok {
		return model.KeySignatureInfo{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	order := flatOrder
	if sig.sharps {
		order = sharpOrder
	}
	altered := make([]model.Letter, sig.count)
	copy(altered, order[:sig.count])
	return model.KeySignatureInfo{
		Key:             key,
		AccidentalCount: sig.count,
		AlteredLetters:  altered,
		Sharps:          sig.sharps,
	}, nil
}

func Alterations(key model.KeySignature) (AlterationTable, error) {
	info, err := KeySignatureInfo(key)
	if err != nil {
		return nil, err
	}
	table := make(AlterationTable, len(Letters))
	for _, l := range Letters {
		table[l] = model.Natural
	}
	acc := model.Flat
	if info.Sharps {
		acc = model.Sharp
	}
	for _, l := range info.AlteredLetters {
		table[l] = acc
	}
	return table, nil
}

// AbsolutePitch uses MIDI numbering, so C4 is 60.
func AbsolutePitch(n model.GeneratedNote) int {
	p := (n.Octave+1)*12 + semitones[n.Letter]
	switch n.Accidental {
	case model.Sharp:
		p++
	case model.Flat:
		p--
	}
	return p
}

// NoteNames lists the selectable range endpoints, lowest first.
func NoteNames() []model.NoteName {
	var names []model.NoteName
	for o := LowestOctave; o <= HighestOctave; o++ {
		for _, l := range Letters {
			names = append(names, model.NoteName(string(l)+strconv.Itoa(o)))
		}
	}
	return names
}

func ParseNoteName(name model.NoteName) (model.Letter, int, error) {
	// exactly a letter and a single octave digit, so "C04" and "C+4" are out
	s := string(name)
	if len(s) != 2 || s[1] < '0' || s[1] > '9' {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}
	letter := model.Letter(s[:1])
	if util.IndexOf(Letters, letter) < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}
	octave := int(s[1] - '0')
	if octave < LowestOctave || octave > HighestOctave {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}
	return letter, octave, nil
}

// Position is the index of a natural note in the C3..B6 scale.
func Position(name model.NoteName) (int, error) {
	letter, octave, err := ParseNoteName(name)
	if err != nil {
		return 0, err
	}
	return PositionOf(letter, octave), nil
}

func PositionOf(letter model.Letter, octave int) int {
	return (octave-LowestOctave)*len(Letters) + util.IndexOf(Letters, letter)
}

// AtPosition is the inverse of PositionOf.
func AtPosition(pos int) (model.Letter, int) {
	return Letters[pos%len(Letters)], LowestOctave + pos/len(Letters)
}

// RangePositions validates r and returns its inclusive scale positions.
func RangePositions(r model.NoteRange) (int, int, error) {
	lo, err := Position(r.Low)
	if err != nil {
		return 0, 0, err
	}
	hi, err := Position(r.High)
	if err != nil {
		return 0, 0, err
	}
	if lo >= hi {
		return 0, 0, fmt.Errorf("%w: %s >= %s", ErrInvalidRange, r.Low, r.High)
	}
	return lo, hi, nil
}

func ValidateRange(r model.NoteRange) error {
	_, _, err := RangePositions(r)
	return err
}

func NamePitch(name model.NoteName) (int, error) {
	letter, octave, err := ParseNoteName(name)
	if err != nil {
		return 0, err
	}
	return AbsolutePitch(model.GeneratedNote{Letter: letter, Octave: octave}), nil
}
