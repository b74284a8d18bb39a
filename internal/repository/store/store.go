package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
	"github.com/NordCoder/storefront-auth/internal/repository/memory"
	pg "github.com/NordCoder/storefront-auth/internal/repository/postgres"
	rdb "github.com/NordCoder/storefront-auth/internal/repository/redis"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	Backend string     `mapstructure:"backend"`
	DB      pg.Config  `mapstructure:"db"`
	Redis   rdb.Config `mapstructure:"redis"`
}

// Handle is an opened credential store plus whatever it needs for
// transactions, health checks and shutdown.
type Handle struct {
	Store session.Store
	Tx    session.Transactor
	Ping  func(ctx context.Context) error
	Close func()
}

func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Handle, error) {
	switch cfg.Backend {
	case BackendPostgres, "":
		db, err := pg.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &Handle{
			Store: pg.NewRefreshTokenRepo(db),
			Tx:    pg.NewTransactor(db, log),
			Ping:  db.Ping,
			Close: db.Close,
		}, nil
	case BackendRedis:
		client, err := rdb.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		return &Handle{
			Store: rdb.NewRefreshTokenRepo(client, cfg.Redis.Prefix),
			Tx:    session.NoopTransactor{},
			Ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close: func() { _ = client.Close() },
		}, nil
	case BackendMemory:
		return &Handle{
			Store: memory.NewRefreshTokenRepo(),
			Tx:    session.NoopTransactor{},
			Ping:  func(context.Context) error { return nil },
			Close: func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
