package usecase

import (
	"strings"
	"testing"

	"EpiWatch/internal/domain/models"
	"EpiWatch/pkg/config"
)

func TestAssessLevels(t *testing.T) {
	r := NewRiskAssessor(config.DefaultRiskThresholds())

	cases := []struct {
		name       string
		predicted  float64
		mean       float64
		std        float64
		increasing bool
		want       string
	}{
		{"two sigma above", 30, 10, 5, false, models.RiskCritical},
		{"high z alone", 25, 10, 5, false, models.RiskCritical},
		{"one sigma above", 16, 10, 5, false, models.RiskHigh},
		{"moderate z while increasing", 17, 10, 5, true, models.RiskHigh},
		{"just above mean", 11, 10, 5, false, models.RiskMedium},
		{"small z while increasing", 13, 10, 5, true, models.RiskMedium},
		{"below mean", 8, 10, 5, false, models.RiskLow},
		{"at mean", 10, 10, 5, false, models.RiskLow},
	}
	for _, tc := range cases {
		if got := r.Assess(tc.predicted, tc.mean, tc.std, tc.increasing); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestAssessFlatBaseline(t *testing.T) {
	r := NewRiskAssessor(config.DefaultRiskThresholds())

	// std 0 collapses every sigma band onto the mean, so any forecast
	// above it is CRITICAL and anything at or below it is LOW
	if got := r.Assess(11, 10, 0, true); got != models.RiskCritical {
		t.Fatalf("expected CRITICAL for above mean with flat baseline, got %s", got)
	}
	if got := r.Assess(10, 10, 0, true); got != models.RiskLow {
		t.Fatalf("expected LOW at mean with flat baseline, got %s", got)
	}
}

func TestConfidenceBands(t *testing.T) {
	r := NewRiskAssessor(config.DefaultRiskThresholds())

	if got := r.Confidence(10, 1); got != models.ConfidenceLow {
		t.Fatalf("expected LOW for sparse history, got %s", got)
	}
	if got := r.Confidence(45, 1); got != models.ConfidenceMedium {
		t.Fatalf("expected MEDIUM for moderate history, got %s", got)
	}
	if got := r.Confidence(90, 15); got != models.ConfidenceMedium {
		t.Fatalf("expected MEDIUM for volatile recent counts, got %s", got)
	}
	if got := r.Confidence(90, 2); got != models.ConfidenceHigh {
		t.Fatalf("expected HIGH for long stable history, got %s", got)
	}
}

func TestRecommendationsPerLevel(t *testing.T) {
	levels := []string{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow}
	for _, level := range levels {
		recs := Recommendations(level, "Cholera")
		if len(recs) == 0 {
			t.Fatalf("%s: expected recommendations", level)
		}
		if !strings.Contains(recs[0], "Cholera") {
			t.Fatalf("%s: lead recommendation should name the disease, got %q", level, recs[0])
		}
	}
	if Recommendations("UNKNOWN", "Cholera") != nil {
		t.Fatalf("unknown level should have no recommendations")
	}
}
