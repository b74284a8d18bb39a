package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	codec "github.com/NordCoder/storefront-auth/internal/auth"
	config "github.com/NordCoder/storefront-auth/internal/config/api-gateway"
	"github.com/NordCoder/storefront-auth/internal/services/api-gateway/auth"
	"github.com/NordCoder/storefront-auth/internal/services/reaper"
)

func main() {
	cfgPath := flag.String("config", "config/api-gateway.yaml", "path to yaml config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-gateway", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	st, err := initStore(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("store connect", zap.Error(err))
	}
	defer st.Close()

	events, closeEvents := initEvents(rootCtx, cfg, logger)
	defer func() { _ = closeEvents() }()

	tokens, err := codec.NewCodec(codec.CodecConfig{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}

	authUC := auth.NewUseCase(st.Store, tokens, auth.Config{
		Tx:     st.Tx,
		Events: events,
		Logger: logger,
	})
	authSrv := auth.NewServer(authUC, auth.Opts{
		Logger:       logger,
		CookieDomain: cfg.Auth.CookieDomain,
		CookiePath:   cfg.Auth.CookiePath,
		CookieSecure: cfg.Auth.CookieSecure,
		AccessTTL:    cfg.Auth.AccessTTL,
		RefreshTTL:   cfg.Auth.RefreshTTL,
	})

	if cfg.Reaper.Enable {
		rl := logger.Named("reaper")
		runner := reaper.New(rl, reaper.NewUC(st.Store, events, rl), cfg.Reaper.Cfg, nil)
		go func() {
			if err := runner.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("reaper stopped", zap.Error(err))
			}
		}()
	}

	httpSrv := buildHTTPServer(cfg, logger, authSrv, st.Ping)

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case runErr := <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)

	logger.Info("bye")
}
