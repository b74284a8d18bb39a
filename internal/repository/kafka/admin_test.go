package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
)

func TestAllHaveLeader(t *testing.T) {
	assert.True(t, allHaveLeader([]kafka.Partition{{Leader: kafka.Broker{ID: 1}}, {Leader: kafka.Broker{ID: 2}}}))
	assert.False(t, allHaveLeader([]kafka.Partition{{Leader: kafka.Broker{ID: 1}}, {Leader: kafka.Broker{ID: -1}}}))
	assert.False(t, allHaveLeader(nil))
}

func TestTopicSpec_Defaults(t *testing.T) {
	s := TopicSpec{Name: "x"}.withDefaults()
	assert.Equal(t, 1, s.NumPartitions)
	assert.Equal(t, 1, s.ReplicationFactor)
	assert.Equal(t, 5*time.Second, s.MaxWait)

	s = TopicSpec{Name: "x", NumPartitions: 6, ReplicationFactor: 3, MaxWait: time.Second}.withDefaults()
	assert.Equal(t, 6, s.NumPartitions)
	assert.Equal(t, 3, s.ReplicationFactor)
}

func TestEnsureTopic_NoBrokers(t *testing.T) {
	require.Error(t, EnsureTopic(context.Background(), nil, TopicSpec{Name: "x"}, nil))
}

func TestHeaderCarrier(t *testing.T) {
	var h headerCarrier
	var _ propagation.TextMapCarrier = &h

	h.Set("traceparent", "a")
	h.Set("baggage", "b")
	h.Set("traceparent", "c")

	assert.Equal(t, "c", h.Get("traceparent"))
	assert.Equal(t, "", h.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, h.Keys())
	assert.Len(t, h, 2)
}
