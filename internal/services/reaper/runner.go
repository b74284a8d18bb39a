package reaper

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
	"github.com/NordCoder/storefront-auth/internal/obs"
)

type Cfg struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var (
	mDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reaper_tokens_deleted_total", Help: "Expired refresh tokens deleted",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reaper_errors_total", Help: "Failed reap cycles",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "reaper_loop_duration_seconds", Help: "Reap cycle duration",
		Buckets: prometheus.DefBuckets,
	})
)

type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg Cfg
	Now func() time.Time
}

func New(log *zap.Logger, uc *Usecase, cfg Cfg, now func() time.Time) *Runner {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &Runner{Log: obs.OrNop(log), UC: uc, Cfg: cfg, Now: now}
}

// RunOnce performs a single reap cycle. Failures are logged and counted,
// never returned: the next cycle retries.
func (r *Runner) RunOnce(ctx context.Context) int64 {
	start := time.Now()
	defer func() { mLoopDur.Observe(time.Since(start).Seconds()) }()

	if r.Cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Cfg.Timeout)
		defer cancel()
	}

	n, err := r.UC.Reap(ctx, r.Now())
	if n > 0 {
		mDeleted.Add(float64(n))
		r.Log.Info("reaped expired refresh tokens", zap.Int64("deleted", n))
	}
	if err != nil {
		mErr.Inc()
		lvl := r.Log.Warn
		if errors.Is(err, session.ErrPersistence) {
			lvl = r.Log.Error
		}
		lvl("reap error", zap.Error(err))
	}
	return n
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.Interval)
	defer ticker.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}
