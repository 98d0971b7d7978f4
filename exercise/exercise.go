// Package exercise runs a sight-reading session: it owns the note queue,
// feeds performance events through latency compensation and matching, and
// keeps the short-lived feedback state a renderer needs.
package exercise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"github.com/jsphweid/sightread/constants"
	"github.com/jsphweid/sightread/latency"
	"github.com/jsphweid/sightread/match"
	"github.com/jsphweid/sightread/metrics"
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/queue"
	"github.com/jsphweid/sightread/theory"
)

var ErrNotActive = errors.New("no active session")

type Feedback string

const (
	Idle      Feedback = "idle"
	Correct   Feedback = "correct"
	Incorrect Feedback = "incorrect"
)

type Stats struct {
	Correct int `json:"correct"`
	Miss    int `json:"miss"`
}

// Snapshot is everything a renderer needs after a change.
type Snapshot struct {
	SessionID    string                `json:"sessionId,omitempty"`
	Active       bool                  `json:"active"`
	Key          model.KeySignature    `json:"key,omitempty"`
	Range        model.NoteRange       `json:"range"`
	Notes        []model.GeneratedNote `json:"notes"`
	CurrentIndex int                   `json:"currentIndex"`
	Cursor       int                   `json:"cursor"`
	Feedback     Feedback              `json:"feedback"`
	Stats        Stats                 `json:"stats"`
}

type Result struct {
	Outcome   match.Outcome        `json:"result"`
	Expected  *model.GeneratedNote `json:"expected,omitempty"`
	Timestamp float64              `json:"timestamp"`

	// Snapshot is the state right after this event, taken under the same
	// lock as the evaluation.
	Snapshot Snapshot `json:"-"`
}

type session struct {
	id       string
	key      model.KeySignature
	rng      model.NoteRange
	queue    *queue.Manager
	stats    Stats
	feedback Feedback
	started  time.Time

	// guard is the token of the pending guard timer, zero when clear
	guard    uint64
	guardSeq uint64
}

// Exercise is safe for concurrent use. Device callbacks, HTTP handlers and
// timers all funnel through its mutex.
type Exercise struct {
	mu      sync.Mutex
	gen     queue.Source
	latency *latency.Compensator
	logger  *slog.Logger
	metrics *metrics.Recorder

	correctDelay   time.Duration
	incorrectDelay time.Duration
	feedbackDelay  time.Duration
	resetFeedback  func(func())

	queueOpts []queue.Option
	onUpdate  func(Snapshot)

	session *session
}

type Option func(*Exercise)

func WithLogger(l *slog.Logger) Option {
	return func(e *Exercise) {
		e.logger = l
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Exercise) {
		e.metrics = m
	}
}

// WithDelays sets how long the input guard holds after a hit and after a
// miss, and how long feedback stays up after the last event.
func WithDelays(correct, incorrect, feedback time.Duration) Option {
	return func(e *Exercise) {
		e.correctDelay, e.incorrectDelay, e.feedbackDelay = correct, incorrect, feedback
	}
}

func WithQueueOptions(opts ...queue.Option) Option {
	return func(e *Exercise) {
		e.queueOpts = append(e.queueOpts, opts...)
	}
}

// WithOnUpdate registers a callback that receives a snapshot after every
// state change. It runs outside the lock.
func WithOnUpdate(f func(Snapshot)) Option {
	return func(e *Exercise) {
		e.onUpdate = f
	}
}

func New(gen queue.Source, comp *latency.Compensator, opts ...Option) *Exercise {
	e := &Exercise{
		gen:            gen,
		latency:        comp,
		logger:         slog.Default(),
		correctDelay:   constants.CorrectGuard,
		incorrectDelay: constants.IncorrectGuard,
		feedbackDelay:  constants.FeedbackReset,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.latency == nil {
		e.latency = latency.New(nil, latency.WithLogger(e.logger))
	}
	e.resetFeedback = debounce.New(e.feedbackDelay)
	return e
}

// Start validates the settings and begins a new session, replacing any
// running one. Nothing changes when validation fails.
func (e *Exercise) Start(key model.KeySignature, r model.NoteRange) (Snapshot, error) {
	if !theory.ValidKey(key) {
		return Snapshot{}, fmt.Errorf("%w: %q", theory.ErrUnknownKey, key)
	}
	if err := theory.ValidateRange(r); err != nil {
		return Snapshot{}, err
	}

	e.mu.Lock()
	q := queue.New(e.gen, key, r, e.queueOpts...)
	if err := q.Initialize(constants.InitialBatch); err != nil {
		e.mu.Unlock()
		return Snapshot{}, err
	}
	prev := e.session
	e.session = &session{
		id:       uuid.New().String(),
		key:      key,
		rng:      r,
		queue:    q,
		feedback: Idle,
		started:  time.Now(),
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if prev != nil {
		e.finished(prev)
	}
	e.logger.Info("session started", "session", snap.SessionID, "key", key, "low", r.Low, "high", r.High)
	e.notify(snap)
	return snap, nil
}

// Stop discards the running session. Pending timers from it become no-ops.
func (e *Exercise) Stop() {
	e.mu.Lock()
	prev := e.session
	e.session = nil
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if prev == nil {
		return
	}
	e.finished(prev)
	e.notify(snap)
}

func (e *Exercise) finished(s *session) {
	e.logger.Info("session stopped", "session", s.id, "correct", s.stats.Correct, "miss", s.stats.Miss)
	e.metrics.RecordSession(context.Background(), s.id, string(s.key), s.stats.Correct, s.stats.Miss, time.Since(s.started))
}

func (e *Exercise) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

func (e *Exercise) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Exercise) snapshotLocked() Snapshot {
	s := e.session
	if s == nil {
		return Snapshot{Feedback: Idle, Notes: []model.GeneratedNote{}}
	}
	return Snapshot{
		SessionID:    s.id,
		Active:       true,
		Key:          s.key,
		Range:        s.rng,
		Notes:        s.queue.AllNotes(),
		CurrentIndex: s.queue.CurrentIndex(),
		Cursor:       s.queue.Cursor(),
		Feedback:     s.feedback,
		Stats:        s.stats,
	}
}

// HandleEvent evaluates one performance event against the current note.
//
// After each evaluated note-on a guard holds for a short while so feedback can
// settle. While it holds, wrong notes are dropped without counting as misses,
// but the right note is still accepted so fast playing never loses notes.
func (e *Exercise) HandleEvent(ev model.NoteEvent) (Result, error) {
	e.mu.Lock()
	s := e.session
	if s == nil {
		e.mu.Unlock()
		return Result{}, ErrNotActive
	}

	res := Result{
		Outcome:   match.Ignored,
		Timestamp: e.latency.CompensateTimestamp(ev.Timestamp, false),
	}
	cur, ok := s.queue.Current()
	if ev.Type != model.NoteOn || !ok {
		res.Snapshot = e.snapshotLocked()
		e.mu.Unlock()
		return res, nil
	}
	res.Expected = &cur

	outcome := match.Evaluate(ev, cur)
	if outcome == match.Miss && s.guard != 0 {
		res.Snapshot = e.snapshotLocked()
		e.mu.Unlock()
		e.logger.Debug("miss dropped while guard holds", "session", s.id, "pitch", ev.Pitch)
		return res, nil
	}
	res.Outcome = outcome

	switch outcome {
	case match.Hit:
		s.stats.Correct++
		s.feedback = Correct
		if err := s.queue.Shift(); err != nil {
			e.logger.Error("queue shift failed", "session", s.id, "err", err)
		}
		e.holdLocked(s, e.correctDelay)
	case match.Miss:
		s.stats.Miss++
		s.feedback = Incorrect
		e.holdLocked(s, e.incorrectDelay)
	}
	snap := e.snapshotLocked()
	res.Snapshot = snap
	e.mu.Unlock()

	e.resetFeedback(func() { e.clearFeedback(s) })
	e.metrics.RecordEvaluation(s.id, outcome.String(), ev.Pitch, theory.AbsolutePitch(cur))
	e.logger.Debug("note evaluated", "session", s.id, "outcome", outcome, "pitch", ev.Pitch, "expected", cur.String(), "ts", res.Timestamp)
	e.notify(snap)
	return res, nil
}

// holdLocked sets the guard with a fresh token. The timer only clears it if
// both the session and the token are still the live ones.
func (e *Exercise) holdLocked(s *session, d time.Duration) {
	s.guardSeq++
	token := s.guardSeq
	s.guard = token
	time.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session != s || s.guard != token {
			return
		}
		s.guard = 0
	})
}

func (e *Exercise) clearFeedback(s *session) {
	e.mu.Lock()
	if e.session != s || s.feedback == Idle {
		e.mu.Unlock()
		return
	}
	s.feedback = Idle
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
}

func (e *Exercise) notify(snap Snapshot) {
	if e.onUpdate != nil {
		e.onUpdate(snap)
	}
}

func (e *Exercise) Latency() *latency.Compensator {
	return e.latency
}
