package repository

import (
	"context"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
)

// producer is the part of pkg/kafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher for Kafka. Events are keyed
// by panel so one panel's events stay ordered.
type KafkaEventPublisher struct {
	producer producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(p producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, ev models.PanelEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Panel), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopEventPublisher drops events. It is used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishEvent(context.Context, models.PanelEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }
