package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"EpiWatch/internal/domain/models"
	pkgch "EpiWatch/pkg/clickhouse"
	applogger "EpiWatch/pkg/logger"
)

const caseTable = "epiwatch.case_records"

// CHCaseStore implements CaseStore backed by ClickHouse.
type CHCaseStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCaseStore(ch *pkgch.Client) *CHCaseStore {
	return &CHCaseStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCaseStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCaseStore) DailyCounts(ctx context.Context, disease, location string, from, to time.Time) ([]models.DayCount, error) {
	start := time.Now()
	const q = `
        SELECT toDate(reported_at) AS day, count() AS cases
        FROM ` + caseTable + `
        WHERE disease = ? AND location = ? AND reported_at >= ? AND reported_at <= ?
        GROUP BY day
        ORDER BY day ASC
    `
	rows, err := s.db.QueryContext(ctx, q, disease, location, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse daily_counts query error",
				applogger.String("disease", disease),
				applogger.String("location", location),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	defer rows.Close()

	out := make([]models.DayCount, 0, 128)
	for rows.Next() {
		var dc models.DayCount
		var cases uint64
		if err := rows.Scan(&dc.Date, &cases); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		dc.Count = int(cases)
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse daily_counts ok",
			applogger.String("disease", disease),
			applogger.String("location", location),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCaseStore) ActivePairs(ctx context.Context, from, to time.Time, minCases int) ([]models.PairActivity, error) {
	const q = `
        SELECT disease, location, count() AS cases
        FROM ` + caseTable + `
        WHERE reported_at >= ? AND reported_at <= ?
        GROUP BY disease, location
        HAVING cases >= ?
        ORDER BY cases DESC
    `
	rows, err := s.db.QueryContext(ctx, q, from, to, minCases)
	if err != nil {
		return nil, fmt.Errorf("active pairs: %w", err)
	}
	defer rows.Close()

	var out []models.PairActivity
	for rows.Next() {
		var pa models.PairActivity
		var cases uint64
		if err := rows.Scan(&pa.Disease, &pa.Location, &cases); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pa.CaseCount = int(cases)
		out = append(out, pa)
	}
	return out, rows.Err()
}

func (s *CHCaseStore) DiseaseCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	const q = `
        SELECT disease, count() AS cases
        FROM ` + caseTable + `
        WHERE reported_at >= ? AND reported_at < ?
        GROUP BY disease
    `
	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("disease counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var disease string
		var cases uint64
		if err := rows.Scan(&disease, &cases); err != nil {
			return nil, fmt.Errorf("scan disease count: %w", err)
		}
		out[disease] = int(cases)
	}
	return out, rows.Err()
}

func (s *CHCaseStore) Locations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT location FROM `+caseTable+` ORDER BY location`)
}

func (s *CHCaseStore) DiseasesAt(ctx context.Context, location string) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT disease FROM `+caseTable+` WHERE location = ? ORDER BY disease`, location)
}

func (s *CHCaseStore) distinct(ctx context.Context, q string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *CHCaseStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
