package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// SessionEventsPolicy backs publishes made on the request path; the total
// wait stays under a second.
func SessionEventsPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "session_events",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 50 * time.Millisecond, Max: 500 * time.Millisecond, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("session event retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("session event retries exhausted", zap.Error(err))
			}
		},
	}
}
