package repository

import (
	"context"

	"StratLab/internal/domain/models"
	"StratLab/internal/domain/repository"
	pkgkafka "StratLab/pkg/kafka"
)

// KafkaEventPublisher adapts pkg/kafka Producer to EventPublisher.
type KafkaEventPublisher struct {
	p *pkgkafka.Producer
}

// NewKafkaEventPublisher creates a publisher writing to the producer's topic.
func NewKafkaEventPublisher(p *pkgkafka.Producer) repository.EventPublisher {
	return &KafkaEventPublisher{p: p}
}

// PublishCompleted writes the event keyed by task id.
func (k *KafkaEventPublisher) PublishCompleted(ctx context.Context, ev models.AnalysisCompletedEvent) error {
	return k.p.Publish(ctx, "", []byte(ev.TaskID), ev)
}

func (k *KafkaEventPublisher) Close() error {
	return k.p.Close()
}

// NoopEventPublisher drops events. Used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishCompleted(context.Context, models.AnalysisCompletedEvent) error {
	return nil
}

func (NoopEventPublisher) Close() error { return nil }
