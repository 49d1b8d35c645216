package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"EpiWatch/internal/domain/models"
	pkgch "EpiWatch/pkg/clickhouse"
)

const alertTable = "epiwatch.outbreak_alerts"

// ClickHouse has no in-place UPDATE, so alerts live in a
// ReplacingMergeTree keyed by id. Marking an alert as acted on inserts
// a superseding row with a higher version; reads use FINAL.
const alertSchema = `
CREATE TABLE IF NOT EXISTS ` + alertTable + ` (
    id              String,
    disease         LowCardinality(String),
    location        LowCardinality(String),
    risk_level      LowCardinality(String),
    predicted_cases Int32,
    confidence      LowCardinality(String),
    prediction_data String,
    timestamp       DateTime,
    action_taken    UInt8,
    action_notes    String,
    version         UInt64
) ENGINE = ReplacingMergeTree(version)
ORDER BY (id)
`

// CHAlertStore implements AlertStore backed by ClickHouse.
type CHAlertStore struct {
	db *sql.DB
}

func NewCHAlertStore(ch *pkgch.Client) *CHAlertStore {
	return &CHAlertStore{db: ch.DB()}
}

func (s *CHAlertStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE DATABASE IF NOT EXISTS epiwatch`); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, alertSchema); err != nil {
		return fmt.Errorf("create alert table: %w", err)
	}
	return nil
}

const alertColumns = "id, disease, location, risk_level, predicted_cases, confidence, prediction_data, timestamp, action_taken, action_notes, version"

// InsertBatch writes all alerts of a prediction pass in one statement,
// so the pass lands atomically.
func (s *CHAlertStore) InsertBatch(ctx context.Context, alerts []*models.OutbreakAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	version := uint64(time.Now().UnixNano())
	values := make([]string, 0, len(alerts))
	args := make([]interface{}, 0, len(alerts)*11)
	for _, a := range alerts {
		if a == nil || a.ID == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			a.ID,
			a.Disease,
			a.Location,
			a.RiskLevel,
			int32(a.PredictedCases),
			a.Confidence,
			string(a.PredictionData),
			a.Timestamp,
			boolToUInt8(a.ActionTaken),
			a.ActionNotes,
			version,
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", alertTable, alertColumns, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert alerts: %w", err)
	}
	return nil
}

// MarkAction loads the alert's current state and inserts a superseding
// row with action_taken set.
func (s *CHAlertStore) MarkAction(ctx context.Context, id string, notes string) error {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE id = ?", alertColumns, alertTable)
	row := s.db.QueryRowContext(ctx, q, id)

	a, err := scanAlert(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("alert %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("load alert: %w", err)
	}

	iq := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", alertTable, alertColumns)
	_, err = s.db.ExecContext(ctx, iq,
		a.ID,
		a.Disease,
		a.Location,
		a.RiskLevel,
		int32(a.PredictedCases),
		a.Confidence,
		string(a.PredictionData),
		a.Timestamp,
		uint8(1),
		notes,
		uint64(time.Now().UnixNano()),
	)
	if err != nil {
		return fmt.Errorf("mark action: %w", err)
	}
	return nil
}

func (s *CHAlertStore) History(ctx context.Context, disease, location string, limit int) ([]*models.OutbreakAlert, error) {
	q := fmt.Sprintf(`
        SELECT %s FROM %s FINAL
        WHERE disease = ? AND location = ?
        ORDER BY timestamp DESC
        LIMIT ?`, alertColumns, alertTable)
	return s.queryAlerts(ctx, q, disease, location, limit)
}

func (s *CHAlertStore) RecentCritical(ctx context.Context, since time.Time) ([]*models.OutbreakAlert, error) {
	q := fmt.Sprintf(`
        SELECT %s FROM %s FINAL
        WHERE risk_level = ? AND action_taken = 0 AND timestamp >= ?
        ORDER BY timestamp DESC`, alertColumns, alertTable)
	return s.queryAlerts(ctx, q, models.RiskCritical, since)
}

func (s *CHAlertStore) queryAlerts(ctx context.Context, q string, args ...interface{}) ([]*models.OutbreakAlert, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []*models.OutbreakAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(r rowScanner) (*models.OutbreakAlert, error) {
	var a models.OutbreakAlert
	var predicted int32
	var payload string
	var taken uint8
	var version uint64
	err := r.Scan(
		&a.ID,
		&a.Disease,
		&a.Location,
		&a.RiskLevel,
		&predicted,
		&a.Confidence,
		&payload,
		&a.Timestamp,
		&taken,
		&a.ActionNotes,
		&version,
	)
	if err != nil {
		return nil, err
	}
	a.PredictedCases = int(predicted)
	a.PredictionData = []byte(payload)
	a.ActionTaken = taken != 0
	return &a, nil
}

func (s *CHAlertStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHAlertStore) Close() error {
	return nil // Managed by pkg
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
