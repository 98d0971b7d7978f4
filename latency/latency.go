// Package latency compensates MIDI input latency on event timestamps.
//
// The compensation only moves timestamps used for timing evaluation. Pitches
// are never touched.
package latency

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jsphweid/sightread/constants"
	"github.com/jsphweid/sightread/metrics"
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/util"
)

func Defaults() model.LatencyConfig {
	return model.LatencyConfig{
		Enabled:     constants.DefaultLatencyEnabled,
		OffsetMs:    constants.DefaultOffsetMs,
		MinOffsetMs: constants.DefaultMinOffsetMs,
		MaxOffsetMs: constants.DefaultMaxOffsetMs,
	}
}

// Compensator is the process-wide owner of the latency settings. Build one at
// startup and hand it to whatever consumes events.
//
// Mutations hold mu across the store write and only then publish the new
// config, so readers never see a state that was not persisted first. Reads
// are a single atomic load.
type Compensator struct {
	mu      sync.Mutex
	cfg     atomic.Pointer[model.LatencyConfig]
	store   Store
	key     string
	logger  *slog.Logger
	metrics *metrics.Recorder
}

type Option func(*Compensator)

func WithLogger(l *slog.Logger) Option {
	return func(c *Compensator) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Compensator) {
		c.metrics = m
	}
}

func WithKey(key string) Option {
	return func(c *Compensator) {
		c.key = key
	}
}

// New starts from the defaults and then loads whatever the store holds.
// A nil store keeps everything in memory.
func New(store Store, opts ...Option) *Compensator {
	c := &Compensator{
		store:  store,
		key:    constants.LatencyStorageKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	d := Defaults()
	c.cfg.Store(&d)
	c.Load()
	return c
}

// Load merges the stored settings over the defaults. Missing fields keep
// their default values and unknown fields are ignored. On any failure the
// current settings stay in place; the error is logged and returned for
// callers that care.
func (c *Compensator) Load() error {
	if c.store == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.store.Get(c.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		c.logger.Warn("failed to load MIDI latency config", "key", c.key, "err", err)
		c.metrics.RecordPersistenceFailure("load", err)
		return err
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		c.logger.Warn("failed to parse MIDI latency config", "key", c.key, "err", err)
		c.metrics.RecordPersistenceFailure("load", err)
		return err
	}
	cfg = normalize(cfg)
	c.cfg.Store(&cfg)
	c.logger.Debug("loaded MIDI latency config", "config", cfg)
	return nil
}

// Save writes the current settings.
func (c *Compensator) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist(*c.cfg.Load())
}

// persist must be called with mu held.
func (c *Compensator) persist(cfg model.LatencyConfig) error {
	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(cfg)
	if err == nil {
		err = c.store.Set(c.key, data)
	}
	if err != nil {
		c.logger.Warn("failed to save MIDI latency config", "key", c.key, "err", err)
		c.metrics.RecordPersistenceFailure("save", err)
	}
	return err
}

// Update applies f to a copy of the settings, clamps the result and persists
// it with a single write. Readers see either the old or the new settings,
// never a mix.
func (c *Compensator) Update(f func(*model.LatencyConfig)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := *c.cfg.Load()
	f(&next)
	next = normalize(next)
	c.persist(next)
	c.cfg.Store(&next)
}

func normalize(cfg model.LatencyConfig) model.LatencyConfig {
	if cfg.MinOffsetMs > cfg.MaxOffsetMs {
		d := Defaults()
		cfg.MinOffsetMs, cfg.MaxOffsetMs = d.MinOffsetMs, d.MaxOffsetMs
	}
	cfg.OffsetMs = util.Clamp(cfg.OffsetMs, cfg.MinOffsetMs, cfg.MaxOffsetMs)
	return cfg
}

func (c *Compensator) Config() model.LatencyConfig {
	return *c.cfg.Load()
}

// OffsetMs is the active offset, zero while compensation is disabled.
func (c *Compensator) OffsetMs() float64 {
	cfg := c.cfg.Load()
	if !cfg.Enabled {
		return 0
	}
	return cfg.OffsetMs
}

func (c *Compensator) OffsetSeconds() float64 {
	return c.OffsetMs() / 1000
}

// SetOffsetMs clamps ms into the configured bounds and persists it.
func (c *Compensator) SetOffsetMs(ms float64) {
	c.Update(func(cfg *model.LatencyConfig) {
		cfg.OffsetMs = util.Clamp(ms, cfg.MinOffsetMs, cfg.MaxOffsetMs)
	})
}

func (c *Compensator) SetEnabled(enabled bool) {
	c.Update(func(cfg *model.LatencyConfig) {
		cfg.Enabled = enabled
	})
}

func (c *Compensator) Reset() {
	c.Update(func(cfg *model.LatencyConfig) {
		*cfg = Defaults()
	})
}

// CompensateTimestamp moves an event earlier by the configured offset to undo
// transport delay. isSeconds selects the unit of ts.
func (c *Compensator) CompensateTimestamp(ts float64, isSeconds bool) float64 {
	cfg := c.cfg.Load()
	if !cfg.Enabled {
		return ts
	}
	if isSeconds {
		return ts - cfg.OffsetMs/1000
	}
	return ts - cfg.OffsetMs
}
