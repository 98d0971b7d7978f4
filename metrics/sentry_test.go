package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithoutDSNIsDisabled(t *testing.T) {
	r, err := Init("", "test")
	require.NoError(t, err)
	assert.False(t, r.Enabled())
}

func TestDisabledRecorderIsNoop(t *testing.T) {
	var nilRecorder *Recorder
	for _, r := range []*Recorder{nilRecorder, NewDisabled()} {
		assert.NotPanics(t, func() {
			r.RecordEvaluation("id", "hit", 60, 60)
			r.RecordSession(context.Background(), "id", "C", 1, 2, time.Second)
			r.RecordPersistenceFailure("save", errors.New("disk full"))
			r.Flush()
		})
	}
}
