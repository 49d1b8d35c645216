package usecase

import (
	"fmt"

	"EpiWatch/internal/domain/models"
	"EpiWatch/pkg/config"
)

// RiskAssessor maps a forecast against its recent statistical baseline
// to a risk level and a confidence label. Thresholds come from config
// so they can be recalibrated per deployment.
type RiskAssessor struct {
	th config.RiskThresholds
}

// NewRiskAssessor creates an assessor with the given thresholds.
func NewRiskAssessor(th config.RiskThresholds) *RiskAssessor {
	return &RiskAssessor{th: th}
}

// Assess classifies a predicted case count. A flat baseline (std 0)
// pins the z-score to zero, so classification falls through to the
// plain mean comparisons.
func (r *RiskAssessor) Assess(predicted, mean, std float64, isIncreasing bool) string {
	z := 0.0
	if std > 0 {
		z = (predicted - mean) / std
	}

	switch {
	case predicted > mean+r.th.CriticalSigma*std || z > r.th.CriticalZ:
		return models.RiskCritical
	case predicted > mean+r.th.HighSigma*std || (z > r.th.HighZ && isIncreasing):
		return models.RiskHigh
	case predicted > mean || (z > r.th.MediumZ && isIncreasing):
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Confidence labels how much data volume and stability back a forecast.
func (r *RiskAssessor) Confidence(dataPoints int, recentStd float64) string {
	switch {
	case dataPoints < r.th.ConfidenceLowPoints:
		return models.ConfidenceLow
	case dataPoints < r.th.ConfidenceMediumPoints || recentStd > r.th.StabilityStd:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}

// Recommendations returns the fixed action list for a risk level. The
// wording is operator-facing copy and must stay stable.
func Recommendations(riskLevel, disease string) []string {
	switch riskLevel {
	case models.RiskCritical:
		return []string{
			fmt.Sprintf("⚠️ Immediate action required - %s outbreak likely", disease),
			"Mobilize emergency response teams",
			"Increase public awareness campaigns",
			"Stock up on medications and medical supplies",
			"Set up additional screening centers",
			"Coordinate with neighboring health facilities",
		}
	case models.RiskHigh:
		return []string{
			fmt.Sprintf("🔴 High risk of %s outbreak detected", disease),
			"Enhance surveillance systems",
			"Prepare medical supplies and staff",
			"Issue public health advisories",
			"Increase community sensitization",
			"Monitor situation daily",
		}
	case models.RiskMedium:
		return []string{
			fmt.Sprintf("🟡 Moderate risk - Monitor %s cases closely", disease),
			"Continue routine surveillance",
			"Ensure adequate medical supplies",
			"Brief healthcare workers on symptoms",
			"Maintain readiness for potential increase",
		}
	case models.RiskLow:
		return []string{
			fmt.Sprintf("🟢 Low risk - %s cases stable", disease),
			"Continue standard monitoring",
			"Maintain preventive measures",
			"Keep public informed",
		}
	default:
		return nil
	}
}
