package usecase

import (
	"context"
	"testing"

	"EpiWatch/internal/domain/models"
	"EpiWatch/internal/service/cache"
	"EpiWatch/pkg/config"
)

func newTestSurveillance(t *testing.T, store *fakeCaseStore) *Surveillance {
	t.Helper()
	cfg := testPredictorConfig()
	p := newTestPredictor(t, store, newFakeModelStore(), cfg)
	return NewSurveillance(store, p, cache.NewTTLCache(), testLogger(t), cfg, config.DefaultRiskThresholds(), 10)
}

func TestAllPredictionsSkipsFailingPairs(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	store.setSeries("Dengue", "Mombasa", flatSeries(91, 8))
	// Cholera has too little history and must be skipped, not fail the view.
	store.setSeries("Cholera", "Kisumu", flatSeries(5, 2))
	store.pairs = []models.PairActivity{
		{Disease: "Malaria", Location: "Nairobi", CaseCount: 455},
		{Disease: "Cholera", Location: "Kisumu", CaseCount: 10},
		{Disease: "Dengue", Location: "Mombasa", CaseCount: 728},
	}

	s := newTestSurveillance(t, store)
	results, err := s.AllPredictions(context.Background())
	if err != nil {
		t.Fatalf("all predictions: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Disease == "Cholera" {
			t.Fatalf("failing pair should be skipped")
		}
	}
}

func TestRiskRankOrdersCriticalFirst(t *testing.T) {
	order := []string{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow, "UNKNOWN"}
	for i := 1; i < len(order); i++ {
		if riskRank(order[i-1]) >= riskRank(order[i]) {
			t.Fatalf("%s should rank before %s", order[i-1], order[i])
		}
	}
}

func TestTrendingFlagsGrowingDiseases(t *testing.T) {
	store := newFakeCaseStore()
	store.first = map[string]int{"Dengue": 10, "Malaria": 100, "Cholera": 20}
	store.second = map[string]int{"Dengue": 25, "Malaria": 110, "Measles": 5}

	s := newTestSurveillance(t, store)
	trending, err := s.Trending(context.Background())
	if err != nil {
		t.Fatalf("trending: %v", err)
	}

	if len(trending) != 2 {
		t.Fatalf("expected 2 trending diseases, got %+v", trending)
	}
	if trending[0].Disease != "Dengue" || trending[0].PercentChange != 150 {
		t.Fatalf("expected Dengue +150%% first, got %+v", trending[0])
	}
	if trending[1].Disease != "Measles" || trending[1].PercentChange != 100 {
		t.Fatalf("expected Measles +100%% second, got %+v", trending[1])
	}
	for _, tr := range trending {
		if tr.Status != models.TrendIncreasing {
			t.Fatalf("trending status should be increasing, got %s", tr.Status)
		}
	}
}

func TestTrendingExcludesModestGrowth(t *testing.T) {
	store := newFakeCaseStore()
	store.first = map[string]int{"Malaria": 100}
	store.second = map[string]int{"Malaria": 115} // +15%, below the 20% bar

	s := newTestSurveillance(t, store)
	trending, err := s.Trending(context.Background())
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(trending) != 0 {
		t.Fatalf("expected no trending diseases, got %+v", trending)
	}
}

func TestHotspotsOmitsLowRiskLocations(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	store.locations = []string{"Nairobi"}
	store.diseases = map[string][]string{"Nairobi": {"Malaria"}}

	s := newTestSurveillance(t, store)
	hotspots, err := s.Hotspots(context.Background())
	if err != nil {
		t.Fatalf("hotspots: %v", err)
	}
	if len(hotspots) != 0 {
		t.Fatalf("stable location should not be a hotspot, got %+v", hotspots)
	}
}

func TestAllPredictionsServedFromCache(t *testing.T) {
	store := newFakeCaseStore()
	store.setSeries("Malaria", "Nairobi", flatSeries(91, 5))
	store.pairs = []models.PairActivity{
		{Disease: "Malaria", Location: "Nairobi", CaseCount: 455},
	}

	s := newTestSurveillance(t, store)
	first, err := s.AllPredictions(context.Background())
	if err != nil {
		t.Fatalf("all predictions: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 result, got %d", len(first))
	}

	// A pair added after the first call must not show up until the
	// cached view expires.
	store.setSeries("Dengue", "Mombasa", flatSeries(91, 8))
	store.pairs = append(store.pairs, models.PairActivity{Disease: "Dengue", Location: "Mombasa", CaseCount: 728})

	second, err := s.AllPredictions(context.Background())
	if err != nil {
		t.Fatalf("all predictions: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected cached view with 1 result, got %d", len(second))
	}
}
