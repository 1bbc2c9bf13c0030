package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Fixed waits the same delay before every retry.
type Fixed struct {
	Delay time.Duration
}

func (f Fixed) Next(int) time.Duration { return f.Delay }

func DefaultOutboxPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "outbox_publish",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("outbox retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox retries exhausted", zap.Error(err))
			}
		},
	}
}

// SweepPolicy runs a sweep once plus up to retries more times, delay apart.
// Cancellation is never retried.
func SweepPolicy(retries int, delay time.Duration, log *zap.Logger) Policy {
	if retries < 0 {
		retries = 0
	}
	return Policy{
		Name:     "sweep",
		Attempts: retries + 1,
		Backoff:  Fixed{Delay: delay},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("sweep attempt failed", zap.Int("attempt", i+1), zap.Int("max_attempts", retries+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("sweep retries exhausted", zap.Error(err))
			}
		},
	}
}
