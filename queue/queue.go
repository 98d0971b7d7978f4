package queue

import (
	"errors"
	"fmt"

	"github.com/jsphweid/sightread/constants"
	"github.com/jsphweid/sightread/model"
	"golang.org/x/exp/slices"
)

var (
	ErrInvalidBatch   = errors.New("initial batch must be positive")
	ErrNotInitialized = errors.New("queue not initialized")
	ErrUnderrun       = errors.New("queue cursor ran past generated notes")
)

type Source interface {
	Generate(key model.KeySignature, r model.NoteRange) (model.GeneratedNote, error)
}

// Manager is an append-only note window with a cursor on the note the
// performer has to play next. Indexes returned by Cursor and Len count every
// note generated in the session; only the recent tail of played notes is
// actually retained.
type Manager struct {
	src   Source
	key   model.KeySignature
	rng   model.NoteRange
	notes []model.GeneratedNote

	offset int // absolute index of notes[0]
	cursor int

	threshold int
	lookahead int
	history   int

	initialized bool
}

type Option func(*Manager)

// WithHistory keeps at least n played notes behind the cursor. Negative n
// keeps every note.
func WithHistory(n int) Option {
	return func(m *Manager) {
		m.history = n
	}
}

// WithRefill changes when the window grows. threshold is raised to 1 and
// lookahead to threshold if needed.
func WithRefill(threshold, lookahead int) Option {
	return func(m *Manager) {
		if threshold < 1 {
			threshold = 1
		}
		if lookahead < threshold {
			lookahead = threshold
		}
		m.threshold, m.lookahead = threshold, lookahead
	}
}

func New(src Source, key model.KeySignature, r model.NoteRange, opts ...Option) *Manager {
	m := &Manager{
		src:       src,
		key:       key,
		rng:       r,
		threshold: constants.RefillThreshold,
		lookahead: constants.RefillLookahead,
		history:   constants.HistoryLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize replaces any existing window with n fresh notes.
func (m *Manager) Initialize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatch, n)
	}
	notes := make([]model.GeneratedNote, 0, n)
	for i := 0; i < n; i++ {
		note, err := m.src.Generate(m.key, m.rng)
		if err != nil {
			return fmt.Errorf("generate initial notes: %w", err)
		}
		notes = append(notes, note)
	}
	m.notes = notes
	m.offset = 0
	m.cursor = 0
	m.initialized = true
	return nil
}

func (m *Manager) Initialized() bool {
	return m.initialized
}

// AllNotes returns a copy of the retained window: played notes before
// CurrentIndex, the current note at it, upcoming notes after it.
func (m *Manager) AllNotes() []model.GeneratedNote {
	return slices.Clone(m.notes)
}

func (m *Manager) CurrentIndex() int {
	return m.cursor - m.offset
}

func (m *Manager) Cursor() int {
	return m.cursor
}

func (m *Manager) Len() int {
	return m.offset + len(m.notes)
}

func (m *Manager) Lookahead() int {
	return m.Len() - m.cursor
}

func (m *Manager) Current() (model.GeneratedNote, bool) {
	i := m.CurrentIndex()
	if !m.initialized || i >= len(m.notes) {
		return model.GeneratedNote{}, false
	}
	return m.notes[i], true
}

// Shift moves the cursor forward by one and tops up the lookahead when it
// drops below the refill threshold.
func (m *Manager) Shift() error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if m.cursor >= m.Len() {
		return ErrUnderrun
	}
	m.cursor++

	if m.Lookahead() < m.threshold {
		if err := m.refill(); err != nil {
			return err
		}
	}
	m.trim()
	return nil
}

func (m *Manager) refill() error {
	for m.Lookahead() < m.lookahead {
		note, err := m.src.Generate(m.key, m.rng)
		if err != nil {
			return fmt.Errorf("refill queue: %w", err)
		}
		m.notes = append(m.notes, note)
	}
	return nil
}

// trim drops old played notes once more than twice the history limit has
// piled up, so the copy is amortized over many shifts.
func (m *Manager) trim() {
	if m.history < 0 {
		return
	}
	played := m.cursor - m.offset
	if played <= 2*m.history {
		return
	}
	drop := played - m.history
	m.notes = slices.Clone(m.notes[drop:])
	m.offset += drop
}
