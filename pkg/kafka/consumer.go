package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"EpiWatch/pkg/logger"
)

// MessageHandler processes messages from a single topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, value []byte) error
}

// Consumer reads one topic through a consumer group and fans messages out
// to a worker pool. Messages from the same partition always land on the
// same worker, so per-partition order is preserved.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	cfg     *ConsumerConfig
	log     *logger.Logger
	dlq     *Producer

	workers []chan kafka.Message
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewConsumer creates a consumer for the handler's topic.
func NewConsumer(handler MessageHandler, log *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		WorkerCount: 4,
		BufferSize:  256,
		RetryMax:    3,
		BackoffMin:  200 * time.Millisecond,
		BackoffMax:  5 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("group id is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          handler.Topic(),
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: 0, // explicit commits
	})

	c := &Consumer{
		reader:  reader,
		handler: handler,
		cfg:     cfg,
		log:     log,
		stopped: make(chan struct{}),
	}

	if cfg.DLQTopic != "" {
		dlq, err := NewProducer(WithBrokers(cfg.Brokers))
		if err != nil {
			return nil, fmt.Errorf("dlq producer: %w", err)
		}
		c.dlq = dlq
	}
	return c, nil
}

// Start launches workers and the fetch loop. It returns immediately.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	c.workers = make([]chan kafka.Message, c.cfg.WorkerCount)
	for i := range c.workers {
		ch := make(chan kafka.Message, c.cfg.BufferSize)
		c.workers[i] = ch
		c.wg.Add(1)
		go c.worker(ctx, ch)
	}

	go c.fetchLoop(ctx)
}

// Stop cancels the fetch loop, drains workers and closes the reader.
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.stopped
	for _, ch := range c.workers {
		close(ch)
	}
	c.wg.Wait()
	if c.dlq != nil {
		_ = c.dlq.Close()
	}
	return c.reader.Close()
}

func (c *Consumer) fetchLoop(ctx context.Context) {
	defer close(c.stopped)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.log.Error("kafka fetch failed",
				logger.String("topic", c.handler.Topic()),
				logger.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		select {
		case c.workers[msg.Partition%len(c.workers)] <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) worker(ctx context.Context, ch <-chan kafka.Message) {
	defer c.wg.Done()
	for msg := range ch {
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
			case <-ctx.Done():
				return
			}
		}
		err = c.handler.Handle(ctx, msg.Value)
		if err == nil {
			break
		}
	}

	if err != nil {
		c.log.Error("message handling exhausted retries",
			logger.String("topic", msg.Topic),
			logger.Int("partition", msg.Partition),
			logger.Int("offset", int(msg.Offset)),
			logger.Error(err))
		if c.dlq != nil {
			if dlqErr := c.dlq.Publish(ctx, c.cfg.DLQTopic, msg.Key, msg.Value); dlqErr != nil {
				c.log.Error("dlq publish failed", logger.Error(dlqErr))
				return // keep the offset uncommitted, redeliver later
			}
		}
	}

	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	for attempt := 0; attempt < 3; attempt++ {
		if err := c.reader.CommitMessages(ctx, msg); err == nil {
			return
		} else if attempt == 2 {
			c.log.Error("commit failed",
				logger.String("topic", msg.Topic),
				logger.Int("offset", int(msg.Offset)),
				logger.Error(err))
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 4))
	return d + jitter
}
