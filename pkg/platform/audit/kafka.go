package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces audit events to a Kafka topic. Records are
// keyed by subject so events about the same entity stay ordered within
// a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// KafkaConfig configures the audit producer.
type KafkaConfig struct {
	SeedBrokers []string
	Topic       string
	ClientID    string
}

// NewKafkaPublisher connects a producer-only Kafka client. The caller
// owns the returned publisher and must Close it on shutdown.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.SeedBrokers) == 0 {
		return nil, fmt.Errorf("kafka audit publisher requires seed brokers")
	}
	if cfg.Topic == "" {
		cfg.Topic = "switchboard.audit"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "switchboard"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.SeedBrokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: cfg.Topic}, nil
}

// kafkaPayload is the JSON wire form of an Event.
type kafkaPayload struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	Subject   string `json:"subject"`
	Outcome   string `json:"outcome,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		Action:    string(event.Action),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Outcome:   event.Outcome,
		RequestID: event.RequestID,
		Detail:    event.Detail,
	}
	if !event.UserID.IsNil() {
		payload.UserID = event.UserID.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Subject),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
