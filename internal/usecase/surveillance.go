package usecase

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
	"EpiWatch/internal/service/cache"
	"EpiWatch/pkg/config"
	"EpiWatch/pkg/logger"
)

// Surveillance serves the read-side views: batch predictions across all
// active pairs, trending diseases and outbreak hotspots. Expensive
// views go through the bytes cache.
type Surveillance struct {
	cases     drepo.CaseStore
	predictor *Predictor
	cache     cache.BytesCache
	log       *logger.Logger
	cfg       config.Predictor
	risk      config.RiskThresholds
	minCases  int
	cacheTTL  time.Duration
}

// NewSurveillance creates the surveillance read service.
func NewSurveillance(
	cases drepo.CaseStore,
	predictor *Predictor,
	c cache.BytesCache,
	log *logger.Logger,
	cfg config.Predictor,
	risk config.RiskThresholds,
	minCases int,
) *Surveillance {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Surveillance{
		cases:     cases,
		predictor: predictor,
		cache:     c,
		log:       log,
		cfg:       cfg,
		risk:      risk,
		minCases:  minCases,
		cacheTTL:  ttl,
	}
}

// AllPredictions predicts every active pair, skipping failures, sorted
// most severe first.
func (s *Surveillance) AllPredictions(ctx context.Context) ([]*models.PredictionResult, error) {
	const key = "epiwatch:view:all_predictions"
	var cached []*models.PredictionResult
	if s.fromCache(key, &cached) {
		return cached, nil
	}

	now := time.Now().UTC()
	pairs, err := s.cases.ActivePairs(ctx, now.AddDate(0, 0, -s.cfg.LookbackDays), now, s.minCases)
	if err != nil {
		return nil, err
	}

	results := make([]*models.PredictionResult, 0, len(pairs))
	for _, pair := range pairs {
		result, err := s.predictor.Predict(ctx, pair.Disease, pair.Location, s.cfg.HorizonDays)
		if err != nil {
			s.log.Warn("pair prediction skipped",
				logger.String("disease", pair.Disease),
				logger.String("location", pair.Location),
				logger.Error(err))
			continue
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return riskRank(results[i].RiskLevel) < riskRank(results[j].RiskLevel)
	})

	s.toCache(key, results)
	return results, nil
}

// Trending compares per-disease case volume between the two 15-day
// halves of the last 30 days and reports diseases whose volume grew
// beyond the configured percentage.
func (s *Surveillance) Trending(ctx context.Context) ([]models.TrendingDisease, error) {
	const key = "epiwatch:view:trending"
	var cached []models.TrendingDisease
	if s.fromCache(key, &cached) {
		return cached, nil
	}

	now := time.Now().UTC()
	fifteenAgo := now.AddDate(0, 0, -15)
	thirtyAgo := now.AddDate(0, 0, -30)

	first, err := s.cases.DiseaseCounts(ctx, thirtyAgo, fifteenAgo)
	if err != nil {
		return nil, err
	}
	second, err := s.cases.DiseaseCounts(ctx, fifteenAgo, now.Add(time.Second))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(first)+len(second))
	for d := range first {
		seen[d] = struct{}{}
	}
	for d := range second {
		seen[d] = struct{}{}
	}

	trending := make([]models.TrendingDisease, 0)
	for disease := range seen {
		firstCases := first[disease]
		secondCases := second[disease]

		var change float64
		if firstCases > 0 {
			change = (float64(secondCases-firstCases) / float64(firstCases)) * 100
		} else if secondCases > 0 {
			change = 100
		}

		if change > s.risk.TrendingPct {
			trending = append(trending, models.TrendingDisease{
				Disease:           disease,
				FirstPeriodCases:  firstCases,
				SecondPeriodCases: secondCases,
				PercentChange:     math.Round(change*10) / 10,
				Status:            models.TrendIncreasing,
			})
		}
	}

	sort.Slice(trending, func(i, j int) bool {
		return trending[i].PercentChange > trending[j].PercentChange
	})

	s.toCache(key, trending)
	return trending, nil
}

// Hotspots aggregates per-location risk scores across every disease
// seen there. Locations appear only when at least one disease scores
// HIGH or CRITICAL.
func (s *Surveillance) Hotspots(ctx context.Context) ([]models.Hotspot, error) {
	const key = "epiwatch:view:hotspots"
	var cached []models.Hotspot
	if s.fromCache(key, &cached) {
		return cached, nil
	}

	locations, err := s.cases.Locations(ctx)
	if err != nil {
		return nil, err
	}

	hotspots := make([]models.Hotspot, 0)
	for _, location := range locations {
		diseases, err := s.cases.DiseasesAt(ctx, location)
		if err != nil {
			s.log.Warn("hotspot disease listing failed",
				logger.String("location", location),
				logger.Error(err))
			continue
		}

		highRisk := 0
		totalScore := 0
		var risks []models.HotspotDisease

		for _, disease := range diseases {
			result, err := s.predictor.Predict(ctx, disease, location, s.cfg.HorizonDays)
			if err != nil {
				continue
			}
			totalScore += models.RiskScore[result.RiskLevel]
			if models.IsHighRisk(result.RiskLevel) {
				highRisk++
			}
			risks = append(risks, models.HotspotDisease{
				Disease:        disease,
				RiskLevel:      result.RiskLevel,
				PredictedCases: result.PredictedCases7d,
			})
		}

		if highRisk > 0 {
			hotspots = append(hotspots, models.Hotspot{
				Location:         location,
				HighRiskDiseases: highRisk,
				TotalDiseases:    len(diseases),
				RiskScore:        totalScore,
				Diseases:         risks,
			})
		}
	}

	sort.Slice(hotspots, func(i, j int) bool {
		return hotspots[i].RiskScore > hotspots[j].RiskScore
	})

	s.toCache(key, hotspots)
	return hotspots, nil
}

func riskRank(level string) int {
	if rank, ok := models.RiskOrder[level]; ok {
		return rank
	}
	return len(models.RiskOrder)
}

func (s *Surveillance) fromCache(key string, v interface{}) bool {
	if s.cache == nil {
		return false
	}
	b, ok, err := s.cache.GetBytes(key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

func (s *Surveillance) toCache(key string, v interface{}) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.cache.SetBytes(key, b, s.cacheTTL)
}
