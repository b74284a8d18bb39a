//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	codec "github.com/NordCoder/storefront-auth/internal/auth"
	"github.com/NordCoder/storefront-auth/internal/domain/session"
	pg "github.com/NordCoder/storefront-auth/internal/repository/postgres"
	"github.com/NordCoder/storefront-auth/internal/services/api-gateway/auth"
	"github.com/NordCoder/storefront-auth/internal/services/reaper"
)

func TestPostgresStore_Primitives(t *testing.T) {
	cfg := LoadCfg()
	sqlDB := DBOpen(t, cfg.DBDSN)
	repo := pg.NewRefreshTokenRepo(PoolOpen(t, cfg.DBDSN))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	a := &session.RefreshToken{SubjectID: 1, Token: "a", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, a))
	assert.Positive(t, a.ID)
	require.NoError(t, repo.Create(ctx, &session.RefreshToken{SubjectID: 1, Token: "b", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, &session.RefreshToken{SubjectID: 2, Token: "c", ExpiresAt: now.Add(-time.Minute)}))

	err := repo.Create(ctx, &session.RefreshToken{SubjectID: 3, Token: "a", ExpiresAt: now})
	require.ErrorIs(t, err, pg.ErrConflict)

	list, err := repo.ListBySubject(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, a.ExpiresAt.Equal(list[0].ExpiresAt))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := repo.DeleteByToken(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.DeleteByToken(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Zero(t, CountTokens(t, sqlDB, 1))
}

func TestPostgresStore_TransactorRollsBack(t *testing.T) {
	cfg := LoadCfg()
	sqlDB := DBOpen(t, cfg.DBDSN)
	db := PoolOpen(t, cfg.DBDSN)
	repo := pg.NewRefreshTokenRepo(db)
	tx := pg.NewTransactor(db, nil)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.WithTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, &session.RefreshToken{SubjectID: 9, Token: "rolled", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return tx.WithTx(ctx, func(context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, CountTokens(t, sqlDB, 9))
}

func TestPostgresStore_ConcurrentRotateOneWinner(t *testing.T) {
	cfg := LoadCfg()
	sqlDB := DBOpen(t, cfg.DBDSN)
	db := PoolOpen(t, cfg.DBDSN)

	tokens, err := codec.NewCodec(codec.CodecConfig{
		AccessSecret:  []byte("it-access"),
		RefreshSecret: []byte("it-refresh"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	uc := auth.NewUseCase(pg.NewRefreshTokenRepo(db), tokens, auth.Config{Tx: pg.NewTransactor(db, nil)})

	ctx := context.Background()
	pair, err := uc.Issue(ctx, session.Identity{ID: 77, Role: session.RoleUser})
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Rotate(ctx, pair.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, session.ErrInvalidToken)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, CountTokens(t, sqlDB, 77))
}

func TestPostgresStore_Reaper(t *testing.T) {
	cfg := LoadCfg()
	DBOpen(t, cfg.DBDSN)
	repo := pg.NewRefreshTokenRepo(PoolOpen(t, cfg.DBDSN))
	ctx := context.Background()
	now := time.Now().UTC()

	for i, off := range []time.Duration{-2 * time.Hour, -time.Minute, time.Minute, time.Hour} {
		require.NoError(t, repo.Create(ctx, &session.RefreshToken{
			SubjectID: int64(100 + i),
			Token:     "reap-" + off.String(),
			ExpiresAt: now.Add(off),
		}))
	}

	n, err := reaper.NewUC(repo, nil, nil).Reap(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
