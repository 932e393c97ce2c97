// Package kafka publishes audit events to a Kafka topic. Kafka is the durable
// trail in multi-instance deployments; consumers route by category.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"accountd/pkg/platform/audit"
)

// Publisher appends audit events to a Kafka topic, keyed by username so one
// user's trail stays ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and makes sure the topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %q: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// payload is the JSON structure written to Kafka.
type payload struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Timestamp     string `json:"timestamp"`
	Username      string `json:"username,omitempty"`
	Action        string `json:"action"`
	Reason        string `json:"reason,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Device        string `json:"device,omitempty"`
}

// Append produces the event synchronously. The audit worker already decouples
// this from the request path, so blocking here is fine.
func (p *Publisher) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(payload{
		ID:            uuid.NewString(),
		Category:      string(event.Category),
		Timestamp:     event.Timestamp.Format(time.RFC3339Nano),
		Username:      event.Username,
		Action:        event.Action,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
		CorrelationID: event.CorrelationID,
		Device:        event.Device,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Username),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
