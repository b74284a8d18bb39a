package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/NordCoder/storefront-auth/internal/obs"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes protobuf values to one topic. The trace context of the
// caller travels in the message headers.
type Producer struct {
	w     messageWriter
	topic string
	log   *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		topic: topic,
		log:   obs.OrNop(log).With(zap.String("component", "kafka.producer"), zap.String("topic", topic)),
	}
}

func (p *Producer) Publish(ctx context.Context, key []byte, m proto.Message) (err error) {
	value, err := proto.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", p.topic, err)
	}

	ctx, span := otel.Tracer("kafka.producer").Start(ctx, "kafka.produce "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingOperationPublish,
			semconv.MessagingKafkaMessageKey(string(key)),
		),
	)
	defer func() { obs.EndSpan(span, err) }()

	var hdrs headerCarrier
	otel.GetTextMapPropagator().Inject(ctx, &hdrs)

	if err = p.w.WriteMessages(ctx, kafka.Message{Key: key, Value: value, Headers: hdrs}); err != nil {
		obs.WithTrace(ctx, p.log).Warn("kafka write failed", zap.Error(err))
		return fmt.Errorf("write %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }

func KeyFromInt64(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }

// headerCarrier lets the otel propagator write straight into kafka headers.
type headerCarrier []kafka.Header

func (h *headerCarrier) Get(key string) string {
	for _, kv := range *h {
		if kv.Key == key {
			return string(kv.Value)
		}
	}
	return ""
}

func (h *headerCarrier) Set(key, value string) {
	for i, kv := range *h {
		if kv.Key == key {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

func (h *headerCarrier) Keys() []string {
	keys := make([]string, len(*h))
	for i, kv := range *h {
		keys[i] = kv.Key
	}
	return keys
}
