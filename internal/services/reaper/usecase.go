package reaper

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
	"github.com/NordCoder/storefront-auth/internal/obs"
)

type Usecase struct {
	Store  session.Store
	Events session.Publisher
	Log    *zap.Logger
}

func NewUC(store session.Store, events session.Publisher, log *zap.Logger) *Usecase {
	if events == nil {
		events = session.NoopPublisher{}
	}
	return &Usecase{Store: store, Events: events, Log: obs.OrNop(log)}
}

// Reap deletes every refresh record whose expiry is at or before now.
// Records removed concurrently by rotation or logout are simply not counted.
// The reaped event is best effort; a publish failure is only logged.
func (u *Usecase) Reap(ctx context.Context, now time.Time) (n int64, err error) {
	ctx, span := otel.Tracer("reaper.uc").Start(ctx, "reaper.reap",
		trace.WithAttributes(attribute.String("reap.now", now.Format(time.RFC3339))),
	)
	defer func() { obs.EndSpan(span, err) }()

	n, err = u.Store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, session.Persistence("delete expired", err)
	}
	span.SetAttributes(attribute.Int64("reap.deleted", n))

	if n > 0 {
		if perr := u.Events.Publish(ctx, session.Event{Kind: session.EventReaped, Count: n, At: now}); perr != nil {
			obs.WithTrace(ctx, obs.OrNop(u.Log)).Warn("publish reaped event", zap.Int64("deleted", n), zap.Error(perr))
		}
	}
	return n, nil
}
