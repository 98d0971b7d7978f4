package latency

import (
	"errors"
	"sync"
	"testing"

	"github.com/jsphweid/sightread/constants"
	"github.com/jsphweid/sightread/logging"
	"github.com/jsphweid/sightread/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	gets, sets int
}

func (s *brokenStore) Get(string) ([]byte, error) {
	s.gets++
	return nil, errors.New("storage unavailable")
}

func (s *brokenStore) Set(string, []byte) error {
	s.sets++
	return errors.New("storage unavailable")
}

func newCompensator(store Store) *Compensator {
	return New(store, WithLogger(logging.Discard()))
}

func TestDefaults(t *testing.T) {
	c := newCompensator(NewMemoryStore())
	assert.Equal(t, model.LatencyConfig{
		Enabled:     true,
		OffsetMs:    50,
		MinOffsetMs: 0,
		MaxOffsetMs: 100,
	}, c.Config())
	assert.Equal(t, 50.0, c.OffsetMs())
	assert.Equal(t, 0.05, c.OffsetSeconds())
}

func TestCompensateTimestamp(t *testing.T) {
	c := newCompensator(NewMemoryStore())

	assert := assert.New(t)
	assert.Equal(950.0, c.CompensateTimestamp(1000, false))
	assert.InDelta(1.95, c.CompensateTimestamp(2, true), 1e-9)

	c.SetEnabled(false)
	assert.Equal(1000.0, c.CompensateTimestamp(1000, false))
	assert.Equal(2.0, c.CompensateTimestamp(2, true))
	assert.Equal(0.0, c.OffsetMs())
	assert.Equal(0.0, c.OffsetSeconds())
}

func TestSetOffsetMsClamps(t *testing.T) {
	c := newCompensator(NewMemoryStore())

	c.SetOffsetMs(150)
	assert.Equal(t, 100.0, c.Config().OffsetMs)

	c.SetOffsetMs(-20)
	assert.Equal(t, 0.0, c.Config().OffsetMs)

	c.SetOffsetMs(33.5)
	assert.Equal(t, 33.5, c.Config().OffsetMs)
}

func TestConfigIsACopy(t *testing.T) {
	c := newCompensator(NewMemoryStore())
	cfg := c.Config()
	cfg.OffsetMs = 999
	cfg.Enabled = false
	assert.Equal(t, 50.0, c.OffsetMs())
}

func TestMutationsPersistImmediately(t *testing.T) {
	store := NewMemoryStore()
	c := newCompensator(store)

	c.SetOffsetMs(20)
	data, err := store.Get(constants.LatencyStorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"offsetMs":20,"minOffsetMs":0,"maxOffsetMs":100}`, string(data))

	c.SetEnabled(false)
	data, _ = store.Get(constants.LatencyStorageKey)
	assert.JSONEq(t, `{"enabled":false,"offsetMs":20,"minOffsetMs":0,"maxOffsetMs":100}`, string(data))

	c.Reset()
	data, _ = store.Get(constants.LatencyStorageKey)
	assert.JSONEq(t, `{"enabled":true,"offsetMs":50,"minOffsetMs":0,"maxOffsetMs":100}`, string(data))
	assert.Equal(t, Defaults(), c.Config())
}

func TestLoadSurvivesRestart(t *testing.T) {
	store := NewFileStore(t.TempDir())
	c := newCompensator(store)
	c.SetOffsetMs(75)
	c.SetEnabled(false)

	again := newCompensator(store)
	assert.Equal(t, model.LatencyConfig{
		Enabled:     false,
		OffsetMs:    75,
		MinOffsetMs: 0,
		MaxOffsetMs: 100,
	}, again.Config())
}

func TestLoadMergesPartialConfig(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		expected model.LatencyConfig
	}{
		{
			name:     "only offset",
			stored:   `{"offsetMs":10}`,
			expected: model.LatencyConfig{Enabled: true, OffsetMs: 10, MinOffsetMs: 0, MaxOffsetMs: 100},
		},
		{
			name:     "unknown fields",
			stored:   `{"enabled":false,"colour":"blue"}`,
			expected: model.LatencyConfig{Enabled: false, OffsetMs: 50, MinOffsetMs: 0, MaxOffsetMs: 100},
		},
		{
			name:     "offset above stored max",
			stored:   `{"offsetMs":80,"maxOffsetMs":60}`,
			expected: model.LatencyConfig{Enabled: true, OffsetMs: 60, MinOffsetMs: 0, MaxOffsetMs: 60},
		},
		{
			name:     "inverted bounds",
			stored:   `{"offsetMs":500,"minOffsetMs":300,"maxOffsetMs":200}`,
			expected: model.LatencyConfig{Enabled: true, OffsetMs: 100, MinOffsetMs: 0, MaxOffsetMs: 100},
		},
		{
			name:     "garbage",
			stored:   `not json`,
			expected: Defaults(),
		},
		{
			name:     "wrong types",
			stored:   `{"offsetMs":"fast"}`,
			expected: Defaults(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Set(constants.LatencyStorageKey, []byte(tt.stored)))
			assert.Equal(t, tt.expected, newCompensator(store).Config())
		})
	}
}

func TestBrokenStoreNeverFailsCallers(t *testing.T) {
	store := &brokenStore{}
	c := newCompensator(store)
	assert.Equal(t, Defaults(), c.Config())
	assert.Equal(t, 1, store.gets)

	assert.NotPanics(t, func() {
		c.SetOffsetMs(10)
		c.SetEnabled(false)
		c.SetEnabled(true)
	})
	assert.Equal(t, 10.0, c.OffsetMs(), "in-memory value survives failed writes")
	assert.Equal(t, 3, store.sets)

	c.Reset()
	assert.Equal(t, Defaults(), c.Config())
	assert.Error(t, c.Save())
	assert.Error(t, c.Load())
}

func TestNilStoreIsMemoryOnly(t *testing.T) {
	c := newCompensator(nil)
	c.SetOffsetMs(12)
	assert.Equal(t, 12.0, c.OffsetMs())
	assert.NoError(t, c.Save())
}

func TestWithKey(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, WithKey("other"), WithLogger(logging.Discard()))
	c.SetOffsetMs(5)

	_, err := store.Get("other")
	assert.NoError(t, err)
	_, err = store.Get(constants.LatencyStorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentReadersSeeValidConfig(t *testing.T) {
	c := newCompensator(NewMemoryStore())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				cfg := c.Config()
				assert.LessOrEqual(t, cfg.MinOffsetMs, cfg.OffsetMs)
				assert.LessOrEqual(t, cfg.OffsetMs, cfg.MaxOffsetMs)
				c.CompensateTimestamp(1000, false)
			}
		}()
	}

	for i := 0; i < 500; i++ {
		c.SetOffsetMs(float64(i % 300))
		if i%50 == 0 {
			c.Reset()
		}
	}
	close(stop)
	wg.Wait()
}

type countingStore struct {
	*MemoryStore
	mu   sync.Mutex
	sets int
}

func (s *countingStore) Set(key string, data []byte) error {
	s.mu.Lock()
	s.sets++
	s.mu.Unlock()
	return s.MemoryStore.Set(key, data)
}

func TestUpdateWritesOnce(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	c := newCompensator(store)

	c.Update(func(cfg *model.LatencyConfig) {
		cfg.Enabled = false
		cfg.OffsetMs = 250
	})

	assert.Equal(t, 1, store.sets)
	cfg := c.Config()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 100.0, cfg.OffsetMs, "offset is clamped")

	data, err := store.Get(constants.LatencyStorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":false,"offsetMs":100,"minOffsetMs":0,"maxOffsetMs":100}`, string(data))
}

func TestUpdateIsAllOrNothingForReaders(t *testing.T) {
	c := newCompensator(NewMemoryStore())
	set := func(enabled bool, offset float64) {
		c.Update(func(cfg *model.LatencyConfig) {
			cfg.Enabled = enabled
			cfg.OffsetMs = offset
		})
	}
	set(true, 10)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				cfg := c.Config()
				if cfg.Enabled {
					assert.Equal(t, 10.0, cfg.OffsetMs)
				} else {
					assert.Equal(t, 90.0, cfg.OffsetMs)
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		if i%2 == 0 {
			set(false, 90)
		} else {
			set(true, 10)
		}
	}
	close(stop)
	wg.Wait()
}
