package generator

import (
	"math/rand"
	"time"

	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/theory"
)

// Generator produces single diatonic notes for a key inside a range.
// It is not safe for concurrent use.
type Generator struct {
	rand         *rand.Rand
	avoidRepeats bool

	last    model.GeneratedNote
	hasLast bool
}

type Option func(*Generator)

func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithoutRepeats never returns the same note twice in a row.
func WithoutRepeats() Option {
	return func(g *Generator) {
		g.avoidRepeats = true
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate picks a natural scale position uniformly inside r, then applies the
// key's standing accidental for that letter. Selection is by staff position,
// so an altered note on a boundary may sit one semitone outside the numeric
// pitch span of r.
func (g *Generator) Generate(key model.KeySignature, r model.NoteRange) (model.GeneratedNote, error) {
	table, err := theory.Alterations(key)
	if err != nil {
		return model.GeneratedNote{}, err
	}
	lo, hi, err := theory.RangePositions(r)
	if err != nil {
		return model.GeneratedNote{}, err
	}

	pos := g.pick(lo, hi)
	letter, octave := theory.AtPosition(pos)
	note := model.GeneratedNote{
		Letter:     letter,
		Octave:     octave,
		Accidental: table[letter],
	}
	g.last, g.hasLast = note, true
	return note, nil
}

func (g *Generator) pick(lo, hi int) int {
	if !g.avoidRepeats || !g.hasLast {
		return lo + g.rand.Intn(hi-lo+1)
	}
	lastPos := theory.PositionOf(g.last.Letter, g.last.Octave)
	if lastPos < lo || lastPos > hi {
		return lo + g.rand.Intn(hi-lo+1)
	}
	// draw from the range minus the previous position
	pos := lo + g.rand.Intn(hi-lo)
	if pos >= lastPos {
		pos++
	}
	return pos
}

func (g *Generator) GenerateN(key model.KeySignature, r model.NoteRange, n int) ([]model.GeneratedNote, error) {
	notes := make([]model.GeneratedNote, 0, n)
	for i := 0; i < n; i++ {
		note, err := g.Generate(key, r)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}
