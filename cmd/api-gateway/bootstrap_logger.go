package main

import (
	"go.uber.org/zap"

	config "github.com/NordCoder/storefront-auth/internal/config/api-gateway"
	"github.com/NordCoder/storefront-auth/internal/obs"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	lc := cfg.Log
	lc.App, lc.Env, lc.Ver = cfg.App.Name, cfg.App.Env, cfg.App.Version
	return obs.NewLogger(lc)
}
