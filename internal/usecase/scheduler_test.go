package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"EpiWatch/internal/domain/models"
	"EpiWatch/internal/service/notify"
	"EpiWatch/pkg/config"
)

func testScheduleConfig() config.Schedule {
	return config.Schedule{
		Enabled:         true,
		DailyHour:       6,
		WeeklyDay:       0, // Sunday
		WeeklyHour:      2,
		MinCasesPredict: 10,
		MinCasesTrain:   30,
	}
}

func newTestScheduler(t *testing.T, store *fakeCaseStore, alertStore *fakeAlertStore, q *fakeQueue) *Scheduler {
	t.Helper()
	log := testLogger(t)
	cfg := testPredictorConfig()
	predictor := newTestPredictor(t, store, newFakeModelStore(), cfg)
	manager := NewAlertManager(alertStore, q, log)
	return NewScheduler(store, predictor, manager, alertStore, q, log, testScheduleConfig(), cfg)
}

func TestNextDaily(t *testing.T) {
	s := newTestScheduler(t, newFakeCaseStore(), &fakeAlertStore{}, &fakeQueue{})

	before := time.Date(2026, 8, 30, 5, 30, 0, 0, time.UTC)
	next := s.nextDaily(before)
	if next != time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC) {
		t.Fatalf("expected same-day 06:00, got %v", next)
	}

	after := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	next = s.nextDaily(after)
	if next != time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC) {
		t.Fatalf("expected next-day 06:00, got %v", next)
	}
}

func TestNextWeekly(t *testing.T) {
	s := newTestScheduler(t, newFakeCaseStore(), &fakeAlertStore{}, &fakeQueue{})

	// 2026-08-26 is a Wednesday; the next Sunday 02:00 is the 30th.
	wednesday := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	next := s.nextWeekly(wednesday)
	if next != time.Date(2026, 8, 30, 2, 0, 0, 0, time.UTC) {
		t.Fatalf("expected Sunday 02:00, got %v", next)
	}

	// Already past Sunday 02:00: roll a full week.
	sunday := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	next = s.nextWeekly(sunday)
	if next != time.Date(2026, 9, 6, 2, 0, 0, 0, time.UTC) {
		t.Fatalf("expected next Sunday 02:00, got %v", next)
	}
}

func TestNextHour(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 42, 13, 0, time.UTC)
	if got := nextHour(now); got != time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC) {
		t.Fatalf("expected top of next hour, got %v", got)
	}
}

func TestRunDailyPredictions(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	store.setSeries("Dengue", "Mombasa", flatSeries(91, 8))
	store.setSeries("Cholera", "Kisumu", flatSeries(5, 2)) // too little history
	store.pairs = []models.PairActivity{
		{Disease: "Malaria", Location: "Nairobi", CaseCount: 455},
		{Disease: "Dengue", Location: "Mombasa", CaseCount: 728},
		{Disease: "Cholera", Location: "Kisumu", CaseCount: 10},
	}
	alertStore := &fakeAlertStore{}
	q := &fakeQueue{}

	s := newTestScheduler(t, store, alertStore, q)
	s.RunDailyPredictions(context.Background())

	if len(alertStore.alerts) != 2 {
		t.Fatalf("expected 2 alerts committed, got %d", len(alertStore.alerts))
	}
	if alertStore.batches != 1 {
		t.Fatalf("pass should commit in one batch, got %d", alertStore.batches)
	}

	// Flat LOW-risk pairs queue no outbreak notifications, only the summary.
	if q.count() != 1 {
		t.Fatalf("expected only the summary message, got %d", q.count())
	}
	n, ok := q.messages[0].Payload.(*models.OutbreakNotification)
	if !ok || n.RiskLevel != "SUMMARY" {
		t.Fatalf("expected summary payload, got %+v", q.messages[0].Payload)
	}
	if !strings.Contains(n.Message, "Total Predictions: 2") {
		t.Fatalf("summary should count the committed pass, got %q", n.Message)
	}
}

func TestRunRetraining(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	store.setSeries("Cholera", "Kisumu", flatSeries(5, 2))
	store.pairs = []models.PairActivity{
		{Disease: "Malaria", Location: "Nairobi", CaseCount: 455},
		{Disease: "Cholera", Location: "Kisumu", CaseCount: 10},
	}
	alertStore := &fakeAlertStore{}
	q := &fakeQueue{}
	log := testLogger(t)

	cfg := testPredictorConfig()
	modelStore := newFakeModelStore()
	predictor := NewPredictor(store, modelStore, NewRiskAssessor(config.DefaultRiskThresholds()), nopMetrics{}, log, cfg)
	manager := NewAlertManager(alertStore, q, log)
	s := NewScheduler(store, predictor, manager, alertStore, q, log, testScheduleConfig(), cfg)

	s.RunRetraining(context.Background())

	if _, ok, _ := modelStore.Load(context.Background(), "Malaria", "Nairobi"); !ok {
		t.Fatalf("expected Malaria model persisted")
	}
	if _, ok, _ := modelStore.Load(context.Background(), "Cholera", "Kisumu"); ok {
		t.Fatalf("sparse pair should not produce a model")
	}
}

func TestRunCriticalCheckRedispatches(t *testing.T) {
	payload := sampleResult(models.RiskCritical)
	alert, err := NewAlert(payload, time.Now())
	if err != nil {
		t.Fatalf("new alert: %v", err)
	}
	alertStore := &fakeAlertStore{critical: []*models.OutbreakAlert{alert}}
	q := &fakeQueue{}

	s := newTestScheduler(t, newFakeCaseStore(), alertStore, q)
	s.RunCriticalCheck(context.Background())

	if q.count() != 1 {
		t.Fatalf("expected one re-dispatched notification, got %d", q.count())
	}
	if q.messages[0].Type != notify.MessageType {
		t.Fatalf("unexpected message type %s", q.messages[0].Type)
	}
	n := q.messages[0].Payload.(*models.OutbreakNotification)
	if n.Disease != "Cholera" || n.RiskLevel != models.RiskCritical {
		t.Fatalf("re-dispatch lost alert identity: %+v", n)
	}
}

func TestRunCriticalCheckNoAlerts(t *testing.T) {
	q := &fakeQueue{}
	s := newTestScheduler(t, newFakeCaseStore(), &fakeAlertStore{}, q)
	s.RunCriticalCheck(context.Background())
	if q.count() != 0 {
		t.Fatalf("expected no messages, got %d", q.count())
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := newTestScheduler(t, newFakeCaseStore(), &fakeAlertStore{}, &fakeQueue{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
}
