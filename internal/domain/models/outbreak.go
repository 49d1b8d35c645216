package models

import "time"

// Risk levels, ordered from least to most severe.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// Confidence labels for a forecast.
const (
	ConfidenceLow    = "LOW"
	ConfidenceMedium = "MEDIUM"
	ConfidenceHigh   = "HIGH"
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// RiskOrder sorts CRITICAL first. Unknown levels sort last.
var RiskOrder = map[string]int{
	RiskCritical: 0,
	RiskHigh:     1,
	RiskMedium:   2,
	RiskLow:      3,
}

// RiskScore weights risk levels for hotspot aggregation.
var RiskScore = map[string]int{
	RiskCritical: 4,
	RiskHigh:     3,
	RiskMedium:   2,
	RiskLow:      1,
}

// IsHighRisk reports whether a level warrants notification dispatch.
func IsHighRisk(level string) bool {
	return level == RiskHigh || level == RiskCritical
}

// DailyForecast is one day of the linear visualization breakdown.
type DailyForecast struct {
	Day            int    `json:"day"`
	Date           string `json:"date"`
	PredictedCases int    `json:"predicted_cases"`
}

// PredictionResult is the full outcome of one outbreak prediction.
// Field names follow the alert payload stored with each OutbreakAlert.
type PredictionResult struct {
	Disease           string          `json:"disease"`
	Location          string          `json:"location"`
	PredictionDate    string          `json:"prediction_date"`
	PredictedCases7d  int             `json:"predicted_cases_7d"`
	CurrentCases14d   int             `json:"current_cases_14d"`
	AverageDailyCases float64         `json:"average_daily_cases"`
	RiskLevel         string          `json:"risk_level"`
	Confidence        string          `json:"confidence"`
	Trend             string          `json:"trend"`
	TrendValue        float64         `json:"trend_value"`
	DailyPredictions  []DailyForecast `json:"daily_predictions"`
	AlertThreshold    int             `json:"alert_threshold"`
	Recommendations   []string        `json:"recommendations"`
}

// OutbreakAlert is the persisted record of a prediction.
// Mutated only to mark action_taken; never deleted.
type OutbreakAlert struct {
	ID             string    `json:"id"`
	Disease        string    `json:"disease"`
	Location       string    `json:"location"`
	RiskLevel      string    `json:"risk_level"`
	PredictedCases int       `json:"predicted_cases"`
	Confidence     string    `json:"confidence"`
	PredictionData []byte    `json:"prediction_data"`
	Timestamp      time.Time `json:"timestamp"`
	ActionTaken    bool      `json:"action_taken"`
	ActionNotes    string    `json:"action_notes"`
}

// HistoryEntry is one row of the per-pair prediction history view.
type HistoryEntry struct {
	Date           string `json:"date"`
	RiskLevel      string `json:"risk_level"`
	PredictedCases int    `json:"predicted_cases"`
	Confidence     string `json:"confidence"`
}

// TrendingDisease marks a disease whose recent case volume grew more
// than the configured percentage between two 15-day halves.
type TrendingDisease struct {
	Disease           string  `json:"disease"`
	FirstPeriodCases  int     `json:"first_period_cases"`
	SecondPeriodCases int     `json:"second_period_cases"`
	PercentChange     float64 `json:"percent_change"`
	Status            string  `json:"status"`
}

// HotspotDisease is one disease's contribution to a hotspot.
type HotspotDisease struct {
	Disease        string `json:"disease"`
	RiskLevel      string `json:"risk_level"`
	PredictedCases int    `json:"predicted_cases"`
}

// Hotspot is a location with at least one HIGH or CRITICAL disease.
type Hotspot struct {
	Location         string           `json:"location"`
	HighRiskDiseases int              `json:"high_risk_diseases"`
	TotalDiseases    int              `json:"total_diseases"`
	RiskScore        int              `json:"risk_score"`
	Diseases         []HotspotDisease `json:"diseases"`
}

// OutbreakNotification is dispatched for HIGH/CRITICAL predictions.
type OutbreakNotification struct {
	Disease        string    `json:"disease"`
	Location       string    `json:"location"`
	RiskLevel      string    `json:"risk_level"`
	PredictedCases int       `json:"predicted_cases"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}
