package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"EpiWatch/internal/domain/models"
	"EpiWatch/internal/service/notify"
)

func sampleResult(risk string) *models.PredictionResult {
	return &models.PredictionResult{
		Disease:          "Cholera",
		Location:         "Kisumu",
		PredictionDate:   "2026-08-30",
		PredictedCases7d: 42,
		RiskLevel:        risk,
		Confidence:       models.ConfidenceMedium,
		Trend:            models.TrendIncreasing,
	}
}

func TestNewAlertCarriesPayload(t *testing.T) {
	at := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	alert, err := NewAlert(sampleResult(models.RiskHigh), at)
	if err != nil {
		t.Fatalf("new alert: %v", err)
	}

	want := fmt.Sprintf("Cholera|Kisumu|%d", at.UnixNano())
	if alert.ID != want {
		t.Fatalf("expected id %s, got %s", want, alert.ID)
	}
	if alert.RiskLevel != models.RiskHigh || alert.PredictedCases != 42 {
		t.Fatalf("alert fields not copied: %+v", alert)
	}

	var stored models.PredictionResult
	if err := json.Unmarshal(alert.PredictionData, &stored); err != nil {
		t.Fatalf("stored payload unreadable: %v", err)
	}
	if stored.Disease != "Cholera" || stored.PredictedCases7d != 42 {
		t.Fatalf("stored payload mismatch: %+v", stored)
	}
}

func TestMarkAction(t *testing.T) {
	store := &fakeAlertStore{}
	m := NewAlertManager(store, &fakeQueue{}, testLogger(t))

	alert, err := NewAlert(sampleResult(models.RiskCritical), time.Now())
	if err != nil {
		t.Fatalf("new alert: %v", err)
	}
	if err := m.Save(context.Background(), alert); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.MarkAction(context.Background(), alert.ID, "teams dispatched"); err != nil {
		t.Fatalf("mark action: %v", err)
	}
	if !store.alerts[0].ActionTaken || store.alerts[0].ActionNotes != "teams dispatched" {
		t.Fatalf("action not recorded: %+v", store.alerts[0])
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := &fakeAlertStore{}
	m := NewAlertManager(store, &fakeQueue{}, testLogger(t))

	for i := 0; i < 3; i++ {
		at := time.Date(2026, 8, 28+i, 6, 0, 0, 0, time.UTC)
		alert, err := NewAlert(sampleResult(models.RiskMedium), at)
		if err != nil {
			t.Fatalf("new alert: %v", err)
		}
		if err := m.Save(context.Background(), alert); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	history, err := m.History(context.Background(), "Cholera", "Kisumu", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Date != "2026-08-30" || history[1].Date != "2026-08-29" {
		t.Fatalf("expected newest first, got %+v", history)
	}
	if history[0].PredictedCases != 42 || history[0].RiskLevel != models.RiskMedium {
		t.Fatalf("history entry mismatch: %+v", history[0])
	}
}

func TestEnqueueNotificationFiltersByRisk(t *testing.T) {
	q := &fakeQueue{}
	m := NewAlertManager(&fakeAlertStore{}, q, testLogger(t))

	m.EnqueueNotification(context.Background(), sampleResult(models.RiskLow))
	m.EnqueueNotification(context.Background(), sampleResult(models.RiskMedium))
	if q.count() != 0 {
		t.Fatalf("low and medium risk should not notify, got %d messages", q.count())
	}

	m.EnqueueNotification(context.Background(), sampleResult(models.RiskHigh))
	m.EnqueueNotification(context.Background(), sampleResult(models.RiskCritical))
	if q.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", q.count())
	}
	if q.messages[0].Type != notify.MessageType {
		t.Fatalf("unexpected message type %s", q.messages[0].Type)
	}
	n, ok := q.messages[0].Payload.(*models.OutbreakNotification)
	if !ok {
		t.Fatalf("unexpected payload %T", q.messages[0].Payload)
	}
	if n.Disease != "Cholera" || n.Message == "" {
		t.Fatalf("notification not filled: %+v", n)
	}
}

func TestEnqueueNotificationSwallowsQueueFailure(t *testing.T) {
	q := &fakeQueue{err: fmt.Errorf("redis down")}
	m := NewAlertManager(&fakeAlertStore{}, q, testLogger(t))

	// must not panic or propagate
	m.EnqueueNotification(context.Background(), sampleResult(models.RiskCritical))
}
