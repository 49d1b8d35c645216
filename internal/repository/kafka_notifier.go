package repository

import (
	"context"

	"EpiWatch/internal/domain/models"
	"EpiWatch/internal/domain/repository"
	pkgkafka "EpiWatch/pkg/kafka"
)

// KafkaNotifier publishes outbreak notifications to a Kafka topic for
// downstream channels (email, SMS, dashboards).
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaNotifier creates a Kafka-backed notifier.
func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) repository.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, note *models.OutbreakNotification) error {
	return n.producer.Publish(ctx, n.topic, pairKey(note.Disease, note.Location), note)
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}
