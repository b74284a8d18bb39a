package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/NordCoder/storefront-auth/internal/obs"
)

type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	MaxWait           time.Duration
}

func (s TopicSpec) withDefaults() TopicSpec {
	if s.NumPartitions <= 0 {
		s.NumPartitions = 1
	}
	if s.ReplicationFactor <= 0 {
		s.ReplicationFactor = 1
	}
	if s.MaxWait <= 0 {
		s.MaxWait = 5 * time.Second
	}
	return s
}

// EnsureTopic creates the topic through the cluster controller if it does
// not exist and waits until every partition has a leader.
func EnsureTopic(ctx context.Context, brokers []string, spec TopicSpec, log *zap.Logger) error {
	log = obs.OrNop(log).With(zap.String("topic", spec.Name))
	if len(brokers) == 0 {
		return errors.New("no kafka brokers")
	}
	spec = spec.withDefaults()

	conn, err := dialAny(ctx, brokers)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := createTopic(ctx, conn, spec); err != nil {
		log.Warn("create topic", zap.Error(err))
		return err
	}

	if err := waitLeaders(ctx, conn, spec); err != nil {
		log.Warn("topic not ready", zap.Error(err))
		return err
	}
	log.Info("topic ready", zap.Int("partitions", spec.NumPartitions))
	return nil
}

func dialAny(ctx context.Context, brokers []string) (*kafka.Conn, error) {
	var errs []error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, fmt.Errorf("dial %s: %w", b, err))
	}
	return nil, errors.Join(errs...)
}

func createTopic(ctx context.Context, conn *kafka.Conn, spec TopicSpec) error {
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	cc, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cc.Close()

	err = cc.CreateTopics(kafka.TopicConfig{
		Topic:             spec.Name,
		NumPartitions:     spec.NumPartitions,
		ReplicationFactor: spec.ReplicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", spec.Name, err)
	}
	return nil
}

func waitLeaders(ctx context.Context, conn *kafka.Conn, spec TopicSpec) error {
	ctx, cancel := context.WithTimeout(ctx, spec.MaxWait)
	defer cancel()

	backoff := 200 * time.Millisecond
	for {
		ps, err := conn.ReadPartitions(spec.Name)
		if err == nil && allHaveLeader(ps) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %s: partitions without leader: %w", spec.Name, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 2*time.Second)
	}
}

func allHaveLeader(parts []kafka.Partition) bool {
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if p.Leader.ID == -1 {
			return false
		}
	}
	return true
}
