package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/storefront-auth/internal/config/token-reaper"
	"github.com/NordCoder/storefront-auth/internal/domain/session"
	"github.com/NordCoder/storefront-auth/internal/obs"
	kafkaRepo "github.com/NordCoder/storefront-auth/internal/repository/kafka"
	"github.com/NordCoder/storefront-auth/internal/repository/store"
	"github.com/NordCoder/storefront-auth/internal/services/reaper"
)

func main() {
	cfgPath := flag.String("config", "config/token-reaper.yaml", "path to yaml config")
	once := flag.Bool("once", false, "run a single reap cycle and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, App: "token-reaper"})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting token-reaper",
		zap.String("store", cfg.Store),
		zap.Duration("interval", cfg.Reaper.Interval),
		zap.Bool("once", *once),
	)

	// otel
	otelShutdown, err := obs.SetupOTel(ctx, cfg.OTEL, "")
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// store
	st, err := store.Open(ctx, cfg.StoreConfig(), l)
	if err != nil {
		l.Fatal("store connect", zap.Error(err))
	}
	defer st.Close()

	// kafka
	var events session.Publisher = session.NoopPublisher{}
	if cfg.Kafka.Enable {
		prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
		defer func() { _ = prod.Close() }()
		events = kafkaRepo.NewSessionEventsKafka(prod, l)
	}

	runner := reaper.New(l, reaper.NewUC(st.Store, events, l), cfg.Reaper.Cfg, nil)

	if *once {
		n := runner.RunOnce(ctx)
		l.Info("reap finished", zap.Int64("deleted", n))
		return
	}

	ms := obs.StartOpsServer(cfg.Reaper.MetricsAddr, st.Ping, l)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("token-reaper started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
