package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedSweeper struct {
	calls atomic.Int32
	fails int32
	rep   Report
}

func (s *scriptedSweeper) Run(context.Context, time.Time) (Report, error) {
	n := s.calls.Add(1)
	if n <= s.fails {
		return Report{}, errors.New("db unavailable")
	}
	return s.rep, nil
}

func TestRunner_TickRetriesThenSucceeds(t *testing.T) {
	sw := &scriptedSweeper{fails: 2, rep: Report{Due: 3, Sent: 2, Failed: 1}}
	r := NewRunner(zap.NewNop(), sw, RunnerConfig{Tick: time.Hour, MaxRetries: 3, RetryDelay: time.Millisecond}, prometheus.NewRegistry())

	r.tick(context.Background())

	assert.Equal(t, int32(3), sw.calls.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(r.mDue))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.mSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mFailed))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.mExhausted))
}

func TestRunner_TickExhaustsRetries(t *testing.T) {
	sw := &scriptedSweeper{fails: 100}
	r := NewRunner(zap.NewNop(), sw, RunnerConfig{Tick: time.Hour, MaxRetries: 3, RetryDelay: time.Millisecond}, prometheus.NewRegistry())

	r.tick(context.Background())

	assert.Equal(t, int32(4), sw.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mExhausted))
}

func TestRunner_SkippedTickCounted(t *testing.T) {
	sw := &scriptedSweeper{rep: Report{Skipped: true}}
	r := NewRunner(zap.NewNop(), sw, RunnerConfig{Tick: time.Hour}, prometheus.NewRegistry())

	r.tick(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.mSkipped))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.mDue))
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	sw := &scriptedSweeper{}
	r := NewRunner(zap.NewNop(), sw, RunnerConfig{Tick: 5 * time.Millisecond}, prometheus.NewRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, sw.calls.Load(), int32(2))
}
