package logger

import (
	"sync"
	"time"
)

// JobLogRecord is one retained operational log line. Scheduled jobs
// (daily predictions, weekly retraining) use these as their training log,
// so failures are inspectable without log scraping.
type JobLogRecord struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// JobLogCollector keeps the most recent records in a fixed-size ring.
type JobLogCollector struct {
	mu   sync.RWMutex
	ring []JobLogRecord
	next int
	full bool
}

func NewJobLogCollector(capacity int) *JobLogCollector {
	if capacity <= 0 {
		capacity = 256
	}
	return &JobLogCollector{ring: make([]JobLogRecord, capacity)}
}

func (c *JobLogCollector) Add(level, message string, fields map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring[c.next] = JobLogRecord{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Timestamp: time.Now(),
	}
	c.next++
	if c.next == len(c.ring) {
		c.next = 0
		c.full = true
	}
}

// Recent returns up to n records, newest first.
func (c *JobLogCollector) Recent(n int) []JobLogRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	size := c.next
	if c.full {
		size = len(c.ring)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]JobLogRecord, 0, n)
	for i := 0; i < n; i++ {
		idx := c.next - 1 - i
		if idx < 0 {
			idx += len(c.ring)
		}
		out = append(out, c.ring[idx])
	}
	return out
}
