package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/storefront-auth/internal/config/api-gateway"
	"github.com/NordCoder/storefront-auth/internal/repository/store"
)

func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.Handle, error) {
	h, err := store.Open(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("credential store ready", zap.String("backend", cfg.Store.Backend))
	return h, nil
}
