package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
	"EpiWatch/internal/services/features"
	"EpiWatch/internal/services/forecast"
	"EpiWatch/pkg/config"
	"EpiWatch/pkg/logger"
	"EpiWatch/pkg/util"
)

// Prediction failures surfaced to callers as structured errors.
var (
	ErrInsufficientData    = errors.New("insufficient historical data")
	ErrInsufficientSamples = errors.New("not enough samples to train")
	ErrTrainingFailed      = errors.New("could not train model")
)

// Predictor runs the full pipeline for one (disease, location) pair:
// series building, feature engineering, training or loading the
// ensemble, risk scoring and the daily breakdown.
type Predictor struct {
	cases   drepo.CaseStore
	store   drepo.ModelStore
	risk    *RiskAssessor
	metrics drepo.Metrics
	log     *logger.Logger
	cfg     config.Predictor

	mu     sync.Mutex
	models map[models.Pair]*forecast.Model
}

// NewPredictor creates a predictor.
func NewPredictor(
	cases drepo.CaseStore,
	store drepo.ModelStore,
	risk *RiskAssessor,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg config.Predictor,
) *Predictor {
	return &Predictor{
		cases:   cases,
		store:   store,
		risk:    risk,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
		models:  make(map[models.Pair]*forecast.Model),
	}
}

// buildSeries fetches and zero-fills the lookback window for a pair.
func (p *Predictor) buildSeries(ctx context.Context, disease, location string) (*models.DailySeries, error) {
	now := time.Now().UTC()
	to := util.Day(now)
	from := to.AddDate(0, 0, -p.cfg.LookbackDays)

	counts, err := p.cases.DailyCounts(ctx, disease, location, from, now)
	if err != nil {
		return nil, fmt.Errorf("fetch daily counts: %w", err)
	}

	series := features.BuildSeries(disease, location, counts, from, to)
	if err := features.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("series invariant: %w", err)
	}
	return series, nil
}

// Train fits a fresh model for the pair and persists it.
func (p *Predictor) Train(ctx context.Context, disease, location string) (*forecast.Model, error) {
	start := time.Now()

	series, err := p.buildSeries(ctx, disease, location)
	if err != nil {
		p.metrics.RecordTraining("error")
		return nil, err
	}
	if series.ActiveDays() < p.cfg.MinHistoryDays {
		p.metrics.RecordTraining("insufficient_data")
		return nil, fmt.Errorf("%w: %s in %s has %d active days, need %d",
			ErrInsufficientData, disease, location, series.ActiveDays(), p.cfg.MinHistoryDays)
	}

	frame := features.Engineer(series)
	X, y := frame.TrainingMatrix(p.cfg.HorizonDays)
	if len(X) < p.cfg.MinTrainingRows {
		p.metrics.RecordTraining("insufficient_samples")
		return nil, fmt.Errorf("%w: %s in %s has %d rows, need %d",
			ErrInsufficientSamples, disease, location, len(X), p.cfg.MinTrainingRows)
	}

	model, err := forecast.Fit(X, y, features.FeatureColumns, forecast.SeedFor(disease, location))
	if err != nil {
		p.metrics.RecordTraining("error")
		return nil, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	if blob, encErr := model.Encode(); encErr != nil {
		p.log.Warn("model encode failed, keeping in-memory only",
			logger.String("disease", disease),
			logger.String("location", location),
			logger.Error(encErr))
	} else if saveErr := p.store.Save(ctx, disease, location, blob); saveErr != nil {
		p.log.Warn("model save failed, keeping in-memory only",
			logger.String("disease", disease),
			logger.String("location", location),
			logger.Error(saveErr))
	}

	pair := models.Pair{Disease: disease, Location: location}
	p.mu.Lock()
	p.models[pair] = model
	p.mu.Unlock()

	p.metrics.RecordTraining("ok")
	p.metrics.RecordLatency("train", time.Since(start).Seconds())
	p.log.Info("model trained",
		logger.String("disease", disease),
		logger.String("location", location),
		logger.Int("samples", len(X)),
		logger.Duration("duration_ms", time.Since(start)))
	return model, nil
}

// model returns a usable model for the pair: the in-memory cache first,
// then the persisted bundle when warm start is enabled, then a fresh
// training run.
func (p *Predictor) model(ctx context.Context, disease, location string) (*forecast.Model, error) {
	pair := models.Pair{Disease: disease, Location: location}

	p.mu.Lock()
	m := p.models[pair]
	p.mu.Unlock()
	if m != nil {
		return m, nil
	}

	if p.cfg.WarmStart {
		blob, ok, err := p.store.Load(ctx, disease, location)
		if err != nil {
			p.log.Warn("model load failed, retraining",
				logger.String("disease", disease),
				logger.String("location", location),
				logger.Error(err))
		} else if ok {
			m, err = forecast.Decode(blob, features.FeatureColumns)
			if err != nil {
				p.log.Warn("stored model rejected, retraining",
					logger.String("disease", disease),
					logger.String("location", location),
					logger.Error(err))
			} else {
				p.mu.Lock()
				p.models[pair] = m
				p.mu.Unlock()
				return m, nil
			}
		}
	}

	return p.Train(ctx, disease, location)
}

// Predict runs one outbreak prediction.
func (p *Predictor) Predict(ctx context.Context, disease, location string, daysAhead int) (*models.PredictionResult, error) {
	start := time.Now()
	if daysAhead <= 0 {
		daysAhead = p.cfg.HorizonDays
	}

	series, err := p.buildSeries(ctx, disease, location)
	if err != nil {
		p.metrics.RecordError("predict")
		return nil, err
	}
	if series.ActiveDays() < p.cfg.MinHistoryDays {
		return nil, fmt.Errorf("%w: %s in %s has %d active days, need %d",
			ErrInsufficientData, disease, location, series.ActiveDays(), p.cfg.MinHistoryDays)
	}

	model, err := p.model(ctx, disease, location)
	if err != nil {
		return nil, err
	}

	frame := features.Engineer(series)
	raw, err := model.Predict(frame.LatestRow())
	if err != nil {
		p.metrics.RecordError("predict")
		return nil, fmt.Errorf("ensemble predict: %w", err)
	}
	predicted := int(raw)
	if predicted < 0 {
		predicted = 0
	}

	recentMean, recentStd := frame.RecentMeanStd(14)
	recentTrend := frame.RecentTrend(7)
	isIncreasing := recentTrend > 0

	riskLevel := p.risk.Assess(float64(predicted), recentMean, recentStd, isIncreasing)
	confidence := p.risk.Confidence(series.Len(), recentStd)

	trend := models.TrendDecreasing
	if isIncreasing {
		trend = models.TrendIncreasing
	}

	now := time.Now()
	result := &models.PredictionResult{
		Disease:           disease,
		Location:          location,
		PredictionDate:    now.Format("2006-01-02"),
		PredictedCases7d:  predicted,
		CurrentCases14d:   int(frame.RecentSum(14)),
		AverageDailyCases: round2(recentMean),
		RiskLevel:         riskLevel,
		Confidence:        confidence,
		Trend:             trend,
		TrendValue:        round2(recentTrend),
		DailyPredictions:  dailyBreakdown(now, frame.LatestCases(), recentTrend, daysAhead),
		AlertThreshold:    int(recentMean + 2*recentStd),
		Recommendations:   Recommendations(riskLevel, disease),
	}

	p.metrics.RecordPrediction(riskLevel)
	p.metrics.RecordForecast(disease, location, float64(predicted))
	p.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return result, nil
}

// dailyBreakdown extrapolates the last observed count linearly along
// the recent trend. It feeds the visualization only; the risk decision
// uses the ensemble forecast.
func dailyBreakdown(now time.Time, lastCases, trend float64, daysAhead int) []models.DailyForecast {
	out := make([]models.DailyForecast, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		predicted := int(lastCases + trend*float64(i))
		if predicted < 0 {
			predicted = 0
		}
		out = append(out, models.DailyForecast{
			Day:            i,
			Date:           now.AddDate(0, 0, i).Format("2006-01-02"),
			PredictedCases: predicted,
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
