package kafka

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
	"github.com/NordCoder/storefront-auth/internal/obs/retry"
)

var _ session.Publisher = (*SessionEventsKafka)(nil)

// publishTimeout caps one Publish call including its retries.
const publishTimeout = time.Second

// SessionEventsKafka publishes session lifecycle events keyed by subject,
// so one subject's events stay ordered within a partition.
type SessionEventsKafka struct {
	p       *Producer
	policy  retry.Policy
	timeout time.Duration
}

func NewSessionEventsKafka(p *Producer, log *zap.Logger) *SessionEventsKafka {
	return &SessionEventsKafka{p: p, policy: retry.SessionEventsPolicy(log), timeout: publishTimeout}
}

func (e *SessionEventsKafka) Publish(ctx context.Context, ev session.Event) error {
	msg, err := EncodeSessionEvent(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return retry.Do(ctx, func(ctx context.Context) error {
		return e.p.Publish(ctx, KeyFromInt64(ev.SubjectID), msg)
	}, e.policy)
}

func EncodeSessionEvent(ev session.Event) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"kind":      string(ev.Kind),
		"subjectId": float64(ev.SubjectID),
		"count":     float64(ev.Count),
		"at":        ev.At.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode session event: %w", err)
	}
	return s, nil
}

func DecodeSessionEvent(value []byte) (session.Event, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return session.Event{}, fmt.Errorf("decode session event: %w", err)
	}
	f := s.GetFields()
	at, err := time.Parse(time.RFC3339Nano, f["at"].GetStringValue())
	if err != nil {
		return session.Event{}, fmt.Errorf("decode session event time: %w", err)
	}
	return session.Event{
		Kind:      session.EventKind(f["kind"].GetStringValue()),
		SubjectID: int64(f["subjectId"].GetNumberValue()),
		Count:     int64(f["count"].GetNumberValue()),
		At:        at,
	}, nil
}
