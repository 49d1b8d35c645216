package repository

import (
	"context"
	"time"

	"EpiWatch/internal/domain/models"
)

// CaseStore provides read access to aggregated case counts.
type CaseStore interface {
	// DailyCounts returns per-day case counts for a pair in [from, to].
	// Days without cases are absent; callers zero-fill.
	DailyCounts(ctx context.Context, disease, location string, from, to time.Time) ([]models.DayCount, error)

	// ActivePairs enumerates (disease, location) pairs whose total case
	// count within the window is at least minCases.
	ActivePairs(ctx context.Context, from, to time.Time, minCases int) ([]models.PairActivity, error)

	// DiseaseCounts returns total cases per disease in [from, to),
	// used for trending comparisons between windows.
	DiseaseCounts(ctx context.Context, from, to time.Time) (map[string]int, error)

	// Locations returns all distinct locations with any case activity.
	Locations(ctx context.Context) ([]string, error)

	// DiseasesAt returns distinct diseases reported at a location.
	DiseasesAt(ctx context.Context, location string) ([]string, error)

	Health(ctx context.Context) error
}

// CaseStorage persists incoming case events.
type CaseStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, c *models.CaseRecord) error
	StoreBatch(ctx context.Context, cases []*models.CaseRecord) error
	Health(ctx context.Context) error
	Close() error
}

// CasePublisher pushes case events onto the ingestion backend.
type CasePublisher interface {
	Publish(ctx context.Context, c *models.CaseRecord) error
	PublishBatch(ctx context.Context, cases []*models.CaseRecord) error
	Close() error
}

// AlertStore persists outbreak alerts.
type AlertStore interface {
	Init(ctx context.Context) error

	// InsertBatch writes the whole prediction pass in one commit.
	InsertBatch(ctx context.Context, alerts []*models.OutbreakAlert) error

	// MarkAction flags an alert as acted on. The stored prediction
	// payload is left untouched.
	MarkAction(ctx context.Context, id string, notes string) error

	// History returns the most recent alerts for a pair, newest first.
	History(ctx context.Context, disease, location string, limit int) ([]*models.OutbreakAlert, error)

	// RecentCritical returns CRITICAL alerts within the window that have
	// not been acted on yet.
	RecentCritical(ctx context.Context, since time.Time) ([]*models.OutbreakAlert, error)

	Health(ctx context.Context) error
	Close() error
}

// ModelStore persists trained model bundles keyed by (disease, location).
type ModelStore interface {
	// Save stores an encoded model bundle.
	Save(ctx context.Context, disease, location string, blob []byte) error

	// Load fetches a saved bundle. A missing model is (nil, false, nil).
	Load(ctx context.Context, disease, location string) ([]byte, bool, error)

	Delete(ctx context.Context, disease, location string) error
}

// CaseStream is a live feed of case events (websocket source).
type CaseStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.CaseRecord, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Notifier dispatches outbreak notifications.
type Notifier interface {
	Notify(ctx context.Context, n *models.OutbreakNotification) error
	Close() error
}

// Metrics records operational metrics for the prediction pipeline.
type Metrics interface {
	RecordPrediction(riskLevel string)
	RecordTraining(outcome string)
	RecordCaseEvent(backend string)
	RecordError(kind string)
	RecordForecast(disease, location string, cases float64)
	RecordLatency(op string, seconds float64)
}
