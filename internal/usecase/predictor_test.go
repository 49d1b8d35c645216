package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"EpiWatch/internal/domain/models"
	"EpiWatch/pkg/config"
)

func testPredictorConfig() config.Predictor {
	return config.Predictor{
		LookbackDays:    90,
		HorizonDays:     7,
		MinHistoryDays:  30,
		MinTrainingRows: 20,
	}
}

func newTestPredictor(t *testing.T, store *fakeCaseStore, modelStore *fakeModelStore, cfg config.Predictor) *Predictor {
	t.Helper()
	risk := NewRiskAssessor(config.DefaultRiskThresholds())
	return NewPredictor(store, modelStore, risk, nopMetrics{}, testLogger(t), cfg)
}

func TestPredictFlatSeries(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	p := newTestPredictor(t, store, newFakeModelStore(), testPredictorConfig())

	result, err := p.Predict(context.Background(), "Malaria", "Nairobi", 7)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if result.PredictedCases7d != 5 {
		t.Fatalf("flat series should forecast 5, got %d", result.PredictedCases7d)
	}
	if result.RiskLevel != models.RiskLow {
		t.Fatalf("expected LOW risk, got %s", result.RiskLevel)
	}
	if result.Confidence != models.ConfidenceHigh {
		t.Fatalf("expected HIGH confidence, got %s", result.Confidence)
	}
	if result.Trend != models.TrendDecreasing {
		t.Fatalf("flat series should not be increasing, got %s", result.Trend)
	}
	if result.CurrentCases14d != 70 {
		t.Fatalf("expected 70 cases in last 14 days, got %d", result.CurrentCases14d)
	}
	if result.AverageDailyCases != 5 {
		t.Fatalf("expected average 5, got %v", result.AverageDailyCases)
	}
	if result.AlertThreshold != 5 {
		t.Fatalf("expected alert threshold 5, got %d", result.AlertThreshold)
	}
	if len(result.DailyPredictions) != 7 {
		t.Fatalf("expected 7 daily predictions, got %d", len(result.DailyPredictions))
	}
	for i, d := range result.DailyPredictions {
		if d.Day != i+1 {
			t.Fatalf("daily prediction %d has day %d", i, d.Day)
		}
		if d.PredictedCases != 5 {
			t.Fatalf("flat extrapolation should stay at 5, got %d", d.PredictedCases)
		}
	}
	if len(result.Recommendations) == 0 {
		t.Fatalf("expected recommendations")
	}
	if result.PredictionDate != time.Now().Format("2006-01-02") {
		t.Fatalf("unexpected prediction date %s", result.PredictionDate)
	}
}

func TestPredictRisingSeries(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Dengue", "Mombasa", risingSeries(91))
	p := newTestPredictor(t, store, newFakeModelStore(), testPredictorConfig())

	result, err := p.Predict(context.Background(), "Dengue", "Mombasa", 7)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if result.Trend != models.TrendIncreasing {
		t.Fatalf("expected increasing trend, got %s", result.Trend)
	}
	if result.TrendValue <= 0 {
		t.Fatalf("expected positive trend value, got %v", result.TrendValue)
	}
	if result.PredictedCases7d <= 0 {
		t.Fatalf("expected positive forecast, got %d", result.PredictedCases7d)
	}
	last := 0
	for i, d := range result.DailyPredictions {
		if i > 0 && d.PredictedCases < last {
			t.Fatalf("rising trend should extrapolate upward, got %v", result.DailyPredictions)
		}
		last = d.PredictedCases
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	store := newFakeCaseStore()
	series := flatSeries(91, 0)
	for i := 0; i < 10; i++ {
		series[len(series)-1-i] = 3
	}
	store.setSeries("Measles", "Kisumu", series)
	p := newTestPredictor(t, store, newFakeModelStore(), testPredictorConfig())

	_, err := p.Predict(context.Background(), "Measles", "Kisumu", 7)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := p.Train(context.Background(), "Measles", "Kisumu"); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData from Train, got %v", err)
	}
}

func TestTrainPersistsModel(t *testing.T) {
	store := newFakeCaseStore()
	modelStore := newFakeModelStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	p := newTestPredictor(t, store, modelStore, testPredictorConfig())

	if _, err := p.Train(context.Background(), "Malaria", "Nairobi"); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, ok, _ := modelStore.Load(context.Background(), "Malaria", "Nairobi"); !ok {
		t.Fatalf("expected persisted model bundle")
	}
}

func TestPredictWarmStartSkipsTraining(t *testing.T) {
	store := newFakeCaseStore()
	modelStore := newFakeModelStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))

	cfg := testPredictorConfig()
	cfg.WarmStart = true

	first := newTestPredictor(t, store, modelStore, cfg)
	if _, err := first.Train(context.Background(), "Malaria", "Nairobi"); err != nil {
		t.Fatalf("train: %v", err)
	}
	saves := modelStore.saves

	// A fresh predictor sharing the model store should load the saved
	// bundle instead of retraining.
	second := newTestPredictor(t, store, modelStore, cfg)
	if _, err := second.Predict(context.Background(), "Malaria", "Nairobi", 7); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if modelStore.saves != saves {
		t.Fatalf("warm start should not retrain, saves went %d -> %d", saves, modelStore.saves)
	}
}

func TestPredictDefaultsHorizon(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	p := newTestPredictor(t, store, newFakeModelStore(), testPredictorConfig())

	result, err := p.Predict(context.Background(), "Malaria", "Nairobi", 0)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(result.DailyPredictions) != 7 {
		t.Fatalf("expected default 7-day breakdown, got %d", len(result.DailyPredictions))
	}
}
