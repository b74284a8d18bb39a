package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/storefront-auth/internal/config/api-gateway"
	"github.com/NordCoder/storefront-auth/internal/domain/session"
	kafkaRepo "github.com/NordCoder/storefront-auth/internal/repository/kafka"
)

// initEvents returns the session event publisher and a closer. With kafka
// disabled events are dropped.
func initEvents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Publisher, func() error) {
	if !cfg.Kafka.Enable {
		return session.NoopPublisher{}, func() error { return nil }
	}

	_ = kafkaRepo.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkaRepo.TopicSpec{
		Name:              cfg.Kafka.Topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, logger)

	prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	return kafkaRepo.NewSessionEventsKafka(prod, logger), prod.Close
}
