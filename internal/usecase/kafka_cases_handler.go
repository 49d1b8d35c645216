package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EpiWatch/internal/domain/models"
	domrepo "EpiWatch/internal/domain/repository"
	pkgkafka "EpiWatch/pkg/kafka"
)

// KafkaCasesHandler consumes case events from Kafka and writes them to
// storage.
type KafkaCasesHandler struct {
	topic   string
	storage domrepo.CaseStorage
	metrics domrepo.Metrics
}

func NewKafkaCasesHandler(topic string, storage domrepo.CaseStorage, metrics domrepo.Metrics) *KafkaCasesHandler {
	return &KafkaCasesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaCasesHandler) Topic() string { return h.topic }

func (h *KafkaCasesHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.CaseEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if ev.Disease == "" || ev.Location == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("case event missing disease or location")
	}
	if ev.ReportedAt.IsZero() {
		ev.ReportedAt = time.Now().UTC()
	}

	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ev.ReportedAt).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.CaseRecord{
		ID:         fmt.Sprintf("%s|%s|%d", ev.Disease, ev.Location, ev.ReportedAt.UnixNano()),
		Disease:    ev.Disease,
		Location:   ev.Location,
		Age:        ev.Age,
		Gender:     ev.Gender,
		ReportedAt: ev.ReportedAt,
		Source:     ev.Source,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordCaseEvent("clickhouse")
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCasesHandler)(nil)
