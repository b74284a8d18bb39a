package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

// ExpoJitter doubles Base per attempt up to Max, then spreads the result by
// ±Jitter (a fraction of the delay).
type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(2, float64(max(attempt, 0)))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	return time.Duration(d)
}

var defaultBackoff = ExpoJitter{Base: 100 * time.Millisecond, Max: 2 * time.Second}

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

var (
	mAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total", Help: "Calls made under retry, including the first.",
	}, []string{"name"})
	mExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhausted_total", Help: "Operations that failed after their last attempt.",
	}, []string{"name"})
	mDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "retry_duration_seconds", Help: "Time spent in Do, waits included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
)

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is done. Waits between attempts follow p.Backoff.
func Do(ctx context.Context, fn func(context.Context) error, p Policy) error {
	name := p.Name
	if name == "" {
		name = "default"
	}
	attempts := max(p.Attempts, 1)
	backoff := p.Backoff
	if backoff == nil {
		backoff = defaultBackoff
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return err != nil }
	}

	start := time.Now()
	defer func() { mDuration.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()
	span := trace.SpanFromContext(ctx)

	var err error
	for i := 0; i < attempts; i++ {
		mAttempts.WithLabelValues(name).Inc()
		if err = fn(ctx); err == nil {
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		span.AddEvent("retry.attempt", trace.WithAttributes(
			attribute.String("retry.name", name),
			attribute.Int("retry.attempt", i+1),
			attribute.String("error", err.Error()),
		))
		if !retryable(err) || i == attempts-1 {
			break
		}

		t := time.NewTimer(backoff.Next(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	mExhausted.WithLabelValues(name).Inc()
	if p.OnExhaust != nil {
		p.OnExhaust(err)
	}
	return err
}
