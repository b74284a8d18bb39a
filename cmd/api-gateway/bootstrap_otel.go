package main

import (
	"context"

	config "github.com/NordCoder/storefront-auth/internal/config/api-gateway"
	"github.com/NordCoder/storefront-auth/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	return obs.SetupOTel(ctx, cfg.OTEL, cfg.App.Version)
}
