package usecase

import (
	"context"
	"time"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
)

// CaseCollector reads case reports from the surveillance feed, batches
// them and hands them to the processor.
type CaseCollector struct {
	stream  drepo.CaseStream
	proc    *CaseProcessor
	metrics drepo.Metrics
	batchSz int
	batchTO time.Duration
}

// NewCaseCollector creates a new CaseCollector instance.
func NewCaseCollector(stream drepo.CaseStream, proc *CaseProcessor, metrics drepo.Metrics, batchSz int, batchTO time.Duration) *CaseCollector {
	if batchSz <= 0 {
		batchSz = 100
	}
	if batchTO <= 0 {
		batchTO = time.Second
	}
	return &CaseCollector{stream: stream, proc: proc, metrics: metrics, batchSz: batchSz, batchTO: batchTO}
}

// IsConnected returns true if the feed is connected.
func (c *CaseCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *CaseCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	caseCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, caseCh, errCh)
	return nil
}

func (c *CaseCollector) consume(ctx context.Context, caseCh <-chan *models.CaseRecord, errCh <-chan error) {
	batch := make([]*models.CaseRecord, 0, c.batchSz)
	ticker := time.NewTicker(c.batchTO)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.proc.ProcessBatch(ctx, batch); err != nil {
			c.metrics.RecordError("collect_flush")
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
				caseCh, errCh = c.stream.Read(ctx)
			}
		case rec := <-caseCh:
			if rec == nil {
				continue
			}
			batch = append(batch, rec)
			if len(batch) >= c.batchSz {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Stop closes the feed connection.
func (c *CaseCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying CaseProcessor for lifecycle management.
func (c *CaseCollector) Processor() *CaseProcessor { return c.proc }
