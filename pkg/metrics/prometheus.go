package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions    *prometheus.CounterVec
	trainingRuns   *prometheus.CounterVec
	casesIngested  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	predictedCases *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epiwatch_predictions_total",
				Help: "Total number of outbreak predictions by risk level",
			},
			[]string{"risk_level"},
		),
		trainingRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epiwatch_training_runs_total",
				Help: "Total number of model training runs",
			},
			[]string{"outcome"},
		),
		casesIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epiwatch_case_events_total",
				Help: "Total number of case events routed to a backend",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epiwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		predictedCases: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epiwatch_predicted_cases_7d",
				Help: "Last 7-day case forecast per disease and location",
			},
			[]string{"disease", "location"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epiwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records a completed prediction with its risk level.
func (r *Recorder) RecordPrediction(riskLevel string) {
	r.predictions.WithLabelValues(riskLevel).Inc()
}

// RecordTraining records a training run outcome ("ok" or "failed").
func (r *Recorder) RecordTraining(outcome string) {
	r.trainingRuns.WithLabelValues(outcome).Inc()
}

// RecordCaseEvent records a case event routed to a backend.
func (r *Recorder) RecordCaseEvent(backend string) {
	r.casesIngested.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordForecast records the last forecast for a pair.
func (r *Recorder) RecordForecast(disease, location string, cases float64) {
	r.predictedCases.WithLabelValues(disease, location).Set(cases)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
