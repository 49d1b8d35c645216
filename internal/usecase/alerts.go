package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
	"EpiWatch/internal/service/notify"
	"EpiWatch/pkg/logger"
	"EpiWatch/pkg/queue"
)

// AlertManager persists outbreak alerts and queues notifications for
// HIGH and CRITICAL predictions.
type AlertManager struct {
	alerts drepo.AlertStore
	queue  queue.QueueService
	log    *logger.Logger
}

// NewAlertManager creates an alert manager.
func NewAlertManager(alerts drepo.AlertStore, q queue.QueueService, log *logger.Logger) *AlertManager {
	return &AlertManager{alerts: alerts, queue: q, log: log}
}

// NewAlert builds the persisted form of a prediction result.
func NewAlert(result *models.PredictionResult, at time.Time) (*models.OutbreakAlert, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal prediction payload: %w", err)
	}
	return &models.OutbreakAlert{
		ID:             fmt.Sprintf("%s|%s|%d", result.Disease, result.Location, at.UnixNano()),
		Disease:        result.Disease,
		Location:       result.Location,
		RiskLevel:      result.RiskLevel,
		PredictedCases: result.PredictedCases7d,
		Confidence:     result.Confidence,
		PredictionData: payload,
		Timestamp:      at.UTC(),
	}, nil
}

// Save persists a single alert.
func (m *AlertManager) Save(ctx context.Context, alert *models.OutbreakAlert) error {
	return m.alerts.InsertBatch(ctx, []*models.OutbreakAlert{alert})
}

// SaveBatch commits a whole prediction pass at once.
func (m *AlertManager) SaveBatch(ctx context.Context, alerts []*models.OutbreakAlert) error {
	return m.alerts.InsertBatch(ctx, alerts)
}

// MarkAction flags an alert as acted on.
func (m *AlertManager) MarkAction(ctx context.Context, id, notes string) error {
	return m.alerts.MarkAction(ctx, id, notes)
}

// History returns the recent prediction history view for a pair.
func (m *AlertManager) History(ctx context.Context, disease, location string, limit int) ([]models.HistoryEntry, error) {
	alerts, err := m.alerts.History(ctx, disease, location, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.HistoryEntry, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, models.HistoryEntry{
			Date:           a.Timestamp.Format("2006-01-02"),
			RiskLevel:      a.RiskLevel,
			PredictedCases: a.PredictedCases,
			Confidence:     a.Confidence,
		})
	}
	return out, nil
}

// EnqueueNotification queues dispatch for a HIGH/CRITICAL prediction.
// Failures are logged, never propagated: a broken notification channel
// must not fail the prediction itself.
func (m *AlertManager) EnqueueNotification(ctx context.Context, result *models.PredictionResult) {
	if !models.IsHighRisk(result.RiskLevel) {
		return
	}

	n := &models.OutbreakNotification{
		Disease:        result.Disease,
		Location:       result.Location,
		RiskLevel:      result.RiskLevel,
		PredictedCases: result.PredictedCases7d,
		CreatedAt:      time.Now().UTC(),
	}
	n.Message = notify.BuildMessage(n)

	if err := m.queue.PublishMessage(ctx, notify.MessageType, n); err != nil {
		m.log.Error("notification enqueue failed",
			logger.String("disease", result.Disease),
			logger.String("location", result.Location),
			logger.String("risk_level", result.RiskLevel),
			logger.Error(err))
	}
}
