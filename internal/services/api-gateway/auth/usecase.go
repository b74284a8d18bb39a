package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	codec "github.com/NordCoder/storefront-auth/internal/auth"
	"github.com/NordCoder/storefront-auth/internal/domain/session"
	"github.com/NordCoder/storefront-auth/internal/obs"
)

type Config struct {
	Now    func() time.Time
	Tx     session.Transactor
	Events session.Publisher
	Logger *zap.Logger
}

// Usecase is the only place that mints, rotates or revokes credentials.
// It holds no mutable state and is shared by all request handlers.
type Usecase struct {
	store  session.Store
	codec  *codec.Codec
	now    func() time.Time
	tx     session.Transactor
	events session.Publisher
	log    *zap.Logger
}

func NewUseCase(store session.Store, c *codec.Codec, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Tx == nil {
		cfg.Tx = session.NoopTransactor{}
	}
	if cfg.Events == nil {
		cfg.Events = session.NoopPublisher{}
	}
	return &Usecase{
		store:  store,
		codec:  c,
		now:    cfg.Now,
		tx:     cfg.Tx,
		events: cfg.Events,
		log:    obs.OrNop(cfg.Logger),
	}
}

var tracer = otel.Tracer("auth.uc")

func (u *Usecase) Issue(ctx context.Context, id session.Identity) (pair session.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "auth.issue", trace.WithAttributes(attribute.Int64("subject.id", id.ID)))
	defer func() { endSpan(span, "issue", err) }()

	if !id.Valid() {
		return session.TokenPair{}, session.ErrInvalidIdentity
	}
	pair, err = u.mint(ctx, id)
	if err != nil {
		return session.TokenPair{}, err
	}
	u.publish(ctx, session.EventIssued, id.ID, 1)
	return pair, nil
}

func (u *Usecase) VerifyAccess(ctx context.Context, token string) (session.Identity, error) {
	if token == "" {
		return session.Identity{}, session.ErrInputMissing
	}
	return u.codec.VerifyAccess(token)
}

func (u *Usecase) Rotate(ctx context.Context, oldRefresh string) (pair session.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "auth.rotate")
	defer func() { endSpan(span, "rotate", err) }()

	if oldRefresh == "" {
		return session.TokenPair{}, session.ErrInputMissing
	}
	id, err := u.codec.VerifyRefresh(oldRefresh)
	if err != nil {
		return session.TokenPair{}, err
	}
	span.SetAttributes(attribute.Int64("subject.id", id.ID))

	records, err := u.store.ListBySubject(ctx, id.ID)
	if err != nil {
		return session.TokenPair{}, session.Persistence("list refresh", err)
	}
	if !hasLive(records, oldRefresh, u.now()) {
		return session.TokenPair{}, session.ErrInvalidToken
	}

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		next, err := u.mint(ctx, id)
		if err != nil {
			return err
		}
		deleted, err := u.store.DeleteByToken(ctx, oldRefresh)
		if err != nil {
			u.discard(ctx, next.RefreshToken)
			return session.Persistence("delete refresh", err)
		}
		if !deleted {
			// another rotate or a revoke removed the old record first
			u.discard(ctx, next.RefreshToken)
			return session.ErrInvalidToken
		}
		pair = next
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrPersistence) {
			return session.TokenPair{}, err
		}
		return session.TokenPair{}, session.Persistence("rotate", err)
	}

	u.publish(ctx, session.EventRotated, id.ID, 1)
	return pair, nil
}

// RevokeOne deletes the record for token. A token that is already gone is
// not an error.
func (u *Usecase) RevokeOne(ctx context.Context, token string) (err error) {
	ctx, span := tracer.Start(ctx, "auth.revoke_one")
	defer func() { endSpan(span, "revoke_one", err) }()

	if token == "" {
		return session.ErrInputMissing
	}
	deleted, err := u.store.DeleteByToken(ctx, token)
	if err != nil {
		return session.Persistence("delete refresh", err)
	}
	if deleted {
		var subject int64
		if id, err := u.codec.VerifyRefresh(token); err == nil {
			subject = id.ID
		}
		u.publish(ctx, session.EventRevoked, subject, 1)
	}
	return nil
}

func (u *Usecase) RevokeAll(ctx context.Context, subjectID int64) (n int64, err error) {
	ctx, span := tracer.Start(ctx, "auth.revoke_all", trace.WithAttributes(attribute.Int64("subject.id", subjectID)))
	defer func() { endSpan(span, "revoke_all", err) }()

	n, err = u.store.DeleteBySubject(ctx, subjectID)
	if err != nil {
		return 0, session.Persistence("delete subject refresh", err)
	}
	span.SetAttributes(attribute.Int64("deleted", n))
	u.publish(ctx, session.EventRevokedAll, subjectID, n)
	return n, nil
}

// Sessions lists the subject's live devices without exposing token values.
func (u *Usecase) Sessions(ctx context.Context, subjectID int64) ([]session.Info, error) {
	records, err := u.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, session.Persistence("list refresh", err)
	}
	now := u.now()
	out := make([]session.Info, 0, len(records))
	for _, r := range records {
		if r.ExpiresAt.After(now) {
			out = append(out, session.Info{ID: r.ID, ExpiresAt: r.ExpiresAt})
		}
	}
	return out, nil
}

func (u *Usecase) mint(ctx context.Context, id session.Identity) (session.TokenPair, error) {
	access, err := u.codec.SignAccess(id)
	if err != nil {
		return session.TokenPair{}, fmt.Errorf("sign access: %w", err)
	}
	refresh, err := u.codec.SignRefresh(id)
	if err != nil {
		return session.TokenPair{}, fmt.Errorf("sign refresh: %w", err)
	}
	rec := &session.RefreshToken{
		SubjectID: id.ID,
		Token:     refresh,
		ExpiresAt: u.now().Add(u.codec.RefreshTTL()),
	}
	if err := u.store.Create(ctx, rec); err != nil {
		return session.TokenPair{}, session.Persistence("save refresh", err)
	}
	return session.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// discard removes a record minted by a rotation that lost. Inside a real
// transaction the rollback would drop it anyway.
func (u *Usecase) discard(ctx context.Context, token string) {
	if _, err := u.store.DeleteByToken(ctx, token); err != nil {
		obs.WithTrace(ctx, u.log).Warn("discard refresh", zap.Error(err))
	}
}

func (u *Usecase) publish(ctx context.Context, kind session.EventKind, subjectID, count int64) {
	e := session.Event{Kind: kind, SubjectID: subjectID, Count: count, At: u.now()}
	if err := u.events.Publish(ctx, e); err != nil {
		obs.WithTrace(ctx, u.log).Warn("publish session event",
			zap.String("kind", string(kind)),
			zap.Int64("subject_id", subjectID),
			zap.Error(err),
		)
	}
}

func hasLive(records []session.RefreshToken, token string, now time.Time) bool {
	for _, r := range records {
		if r.Token == token {
			return r.ExpiresAt.After(now)
		}
	}
	return false
}

func endSpan(span trace.Span, op string, err error) {
	mOps.WithLabelValues(op, resultLabel(err)).Inc()
	obs.EndSpan(span, err)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, session.ErrInvalidToken):
		return "invalid"
	case errors.Is(err, session.ErrInputMissing):
		return "missing"
	case errors.Is(err, session.ErrPersistence):
		return "store_error"
	case errors.Is(err, session.ErrInvalidIdentity):
		return "bad_identity"
	default:
		return "error"
	}
}
