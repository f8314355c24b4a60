// Package kafka tees match-trail events onto a Kafka topic so downstream
// consumers (ops dashboards, compliance) can follow notification outcomes
// without querying the service.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"bloodlink/internal/audit"
)

// payload is the JSON structure published to Kafka.
type payload struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
	DonorID   string `json:"donor_id"`
	Action    string `json:"action"`
	Channel   string `json:"channel,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Sink decorates an audit.Store: every appended event is also produced to
// the topic, keyed by request ID so one request's events stay ordered within
// a partition. Reads pass through to the inner store.
type Sink struct {
	inner  audit.Store
	client *kgo.Client
	topic  string
}

// New connects a producer and wraps the inner store.
func New(inner audit.Store, brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{inner: inner, client: client, topic: topic}, nil
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if err := s.inner.Append(ctx, event); err != nil {
		return err
	}
	value, err := json.Marshal(payload{
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		RequestID: event.RequestID.String(),
		DonorID:   event.DonorID.String(),
		Action:    event.Action,
		Channel:   event.Channel,
		Outcome:   event.Outcome,
		Reason:    event.Reason,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.RequestID.String()),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *Sink) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]audit.Event, error) {
	return s.inner.ListByRequest(ctx, requestID)
}

// Close flushes and releases the producer.
func (s *Sink) Close() {
	s.client.Close()
}
