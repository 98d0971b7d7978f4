package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Recorder reports exercise activity to Sentry. A nil or disabled Recorder
// does nothing, so callers never need to check.
type Recorder struct {
	enabled bool
}

// Init enables Sentry when dsn is set.
func Init(dsn string, environment string) (*Recorder, error) {
	if dsn == "" {
		return NewDisabled(), nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return NewDisabled(), fmt.Errorf("sentry init: %w", err)
	}
	return &Recorder{enabled: true}, nil
}

func NewDisabled() *Recorder {
	return &Recorder{}
}

func (m *Recorder) Enabled() bool {
	return m != nil && m.enabled
}

// RecordEvaluation leaves a breadcrumb per evaluated note. Breadcrumbs are
// buffered in the hub, which keeps this off the hot path.
func (m *Recorder) RecordEvaluation(sessionID, outcome string, pitch, expected int) {
	if !m.Enabled() {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "exercise.evaluate",
		Message:  fmt.Sprintf("%s: played %d expected %d", outcome, pitch, expected),
		Level:    sentry.LevelInfo,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"outcome":    outcome,
			"pitch":      pitch,
			"expected":   expected,
		},
	})
}

// RecordSession records a finished session as a span.
func (m *Recorder) RecordSession(ctx context.Context, sessionID string, key string, correct, miss int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	span := sentry.StartSpan(ctx, "exercise.session")
	defer span.Finish()

	span.SetTag("session_id", sessionID)
	span.SetTag("key", key)

	span.SetData("correct", correct)
	span.SetData("miss", miss)
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Session %s: %d correct, %d miss", key, correct, miss)
}

func (m *Recorder) RecordPersistenceFailure(op string, err error) {
	if !m.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("persistence.op", op)
		sentry.CaptureException(err)
	})
}

func (m *Recorder) Flush() {
	if !m.Enabled() {
		return
	}
	sentry.Flush(2 * time.Second)
}
