package usecase

import (
	"context"
	"fmt"
	"time"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
)

// CaseProcessor routes incoming case records to the configured backend:
// straight into ClickHouse, or through Kafka for the consumer to land.
type CaseProcessor struct {
	pub     drepo.CasePublisher
	store   drepo.CaseStorage
	metrics drepo.Metrics
	backend string
}

// NewCaseProcessor creates a new CaseProcessor instance.
func NewCaseProcessor(
	pub drepo.CasePublisher,
	store drepo.CaseStorage,
	metrics drepo.Metrics,
	backend string,
) *CaseProcessor {
	return &CaseProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single case record.
func (p *CaseProcessor) Process(ctx context.Context, c *models.CaseRecord) error {
	if c == nil {
		return fmt.Errorf("case is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, c)
	case "clickhouse":
		err = p.store.Store(ctx, c)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process case: %w", err)
	}

	p.metrics.RecordCaseEvent(p.backend)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple case records in a batch.
func (p *CaseProcessor) ProcessBatch(ctx context.Context, cases []*models.CaseRecord) error {
	if len(cases) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, cases)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, cases)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for range cases {
		p.metrics.RecordCaseEvent(p.backend)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *CaseProcessor) Close() error {
	var firstErr error
	if p.pub != nil {
		if err := p.pub.Close(); err != nil {
			firstErr = err
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
