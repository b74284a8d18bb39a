package session

import (
	"context"
	"time"
)

type Store interface {
	// Create inserts t and fills t.ID.
	Create(ctx context.Context, t *RefreshToken) error
	ListBySubject(ctx context.Context, subjectID int64) ([]RefreshToken, error)
	// DeleteByToken reports whether a record was removed by this call.
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteBySubject(ctx context.Context, subjectID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type NoopTransactor struct{}

func (NoopTransactor) WithTx(ctx context.Context, function func(ctx context.Context) error) error {
	return function(ctx)
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
