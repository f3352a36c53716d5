// internal/common/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/config"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeTenderExtracted         = "tender.extracted"
	TypeComplianceReportCreated = "compliance.report.created"
	TypeBidDraftCreated         = "bid.draft.created"
)

// Event is the envelope written to Kafka.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// Publisher emits domain events. Workers depend on this.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer WriterInterface
	topic  string
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: time.Duration(cfg.BatchTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}
	return NewKafkaPublisherWithWriter(writer, cfg.Topic)
}

func NewKafkaPublisherWithWriter(writer WriterInterface, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish writes one event keyed by the aggregate ID, so events for the same
// tender land on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	evt := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	return nil
}
