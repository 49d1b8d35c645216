package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"EpiWatch/internal/domain/models"
	"EpiWatch/internal/domain/repository"
	pkgkafka "EpiWatch/pkg/kafka"
)

const caseSchema = `
CREATE TABLE IF NOT EXISTS ` + caseTable + ` (
    id          String,
    disease     LowCardinality(String),
    location    LowCardinality(String),
    age         UInt8,
    gender      LowCardinality(String),
    reported_at DateTime,
    source      LowCardinality(String)
) ENGINE = MergeTree
ORDER BY (disease, location, reported_at)
TTL reported_at + INTERVAL 2 YEAR
`

// ClickHouseCaseStorage implements CaseStorage for ClickHouse.
type ClickHouseCaseStorage struct {
	db *sql.DB
}

// NewClickHouseCaseStorage creates ClickHouse case storage.
func NewClickHouseCaseStorage(db *sql.DB) repository.CaseStorage {
	return &ClickHouseCaseStorage{db: db}
}

func (s *ClickHouseCaseStorage) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE DATABASE IF NOT EXISTS epiwatch`); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, caseSchema); err != nil {
		return fmt.Errorf("create case table: %w", err)
	}
	return nil
}

func (s *ClickHouseCaseStorage) Store(ctx context.Context, c *models.CaseRecord) error {
	const q = `INSERT INTO ` + caseTable + ` (id, disease, location, age, gender, reported_at, source) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, c.ID, c.Disease, c.Location, clampAge(c.Age), c.Gender, c.ReportedAt, c.Source)
	return err
}

func clampAge(age int) uint8 {
	if age < 0 {
		return 0
	}
	if age > 255 {
		return 255
	}
	return uint8(age)
}

func (s *ClickHouseCaseStorage) StoreBatch(ctx context.Context, cases []*models.CaseRecord) error {
	if len(cases) == 0 {
		return nil
	}
	// Multi-row VALUES insert, chunked to keep statements bounded.
	const chunkSize = 2000
	for start := 0; start < len(cases); start += chunkSize {
		end := start + chunkSize
		if end > len(cases) {
			end = len(cases)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, c := range cases[start:end] {
			if c == nil || c.Disease == "" || c.Location == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, c.ID, c.Disease, c.Location, clampAge(c.Age), c.Gender, c.ReportedAt, c.Source)
		}
		if len(values) == 0 {
			continue
		}
		q := `INSERT INTO ` + caseTable + ` (id, disease, location, age, gender, reported_at, source) VALUES ` + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseCaseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseCaseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaCasePublisher implements CasePublisher for Kafka.
type KafkaCasePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaCasePublisher creates a Kafka case publisher.
func NewKafkaCasePublisher(producer *pkgkafka.Producer, topic string) repository.CasePublisher {
	return &KafkaCasePublisher{producer: producer, topic: topic}
}

func pairKey(disease, location string) []byte {
	return []byte(disease + "|" + location)
}

func (p *KafkaCasePublisher) Publish(ctx context.Context, c *models.CaseRecord) error {
	return p.producer.Publish(ctx, p.topic, pairKey(c.Disease, c.Location), models.CaseEvent{
		Disease:    c.Disease,
		Location:   c.Location,
		Age:        c.Age,
		Gender:     c.Gender,
		ReportedAt: c.ReportedAt,
		Source:     c.Source,
	})
}

func (p *KafkaCasePublisher) PublishBatch(ctx context.Context, cases []*models.CaseRecord) error {
	if len(cases) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(cases))
	for i, c := range cases {
		msgs[i] = pkgkafka.Message{
			Key: pairKey(c.Disease, c.Location),
			Value: models.CaseEvent{
				Disease:    c.Disease,
				Location:   c.Location,
				Age:        c.Age,
				Gender:     c.Gender,
				ReportedAt: c.ReportedAt,
				Source:     c.Source,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaCasePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
