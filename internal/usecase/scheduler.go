package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
	"EpiWatch/internal/service/notify"
	"EpiWatch/pkg/config"
	"EpiWatch/pkg/logger"
	"EpiWatch/pkg/queue"
)

// Scheduler drives the recurring jobs: daily predictions, weekly
// retraining and the hourly sweep for unaddressed CRITICAL alerts.
// Jobs also have manual entry points for operational tooling.
type Scheduler struct {
	cases     drepo.CaseStore
	predictor *Predictor
	alerts    *AlertManager
	alertRepo drepo.AlertStore
	queue     queue.QueueService
	log       *logger.Logger
	cfg       config.Schedule
	predCfg   config.Predictor

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates the job scheduler.
func NewScheduler(
	cases drepo.CaseStore,
	predictor *Predictor,
	alerts *AlertManager,
	alertRepo drepo.AlertStore,
	q queue.QueueService,
	log *logger.Logger,
	cfg config.Schedule,
	predCfg config.Predictor,
) *Scheduler {
	return &Scheduler{
		cases:     cases,
		predictor: predictor,
		alerts:    alerts,
		alertRepo: alertRepo,
		queue:     q,
		log:       log,
		cfg:       cfg,
		predCfg:   predCfg,
		stop:      make(chan struct{}),
	}
}

// Start launches the three job loops. A missed tick (process down at
// the fire time) runs at the next scheduled time, not immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("scheduler disabled")
		return
	}

	s.runLoop(ctx, "daily_predictions", s.nextDaily, s.RunDailyPredictions)
	s.runLoop(ctx, "weekly_retraining", s.nextWeekly, s.RunRetraining)
	s.runLoop(ctx, "hourly_critical_check", nextHour, s.RunCriticalCheck)
	s.log.Info("outbreak scheduler started",
		logger.Int("daily_hour", s.cfg.DailyHour),
		logger.Int("weekly_day", s.cfg.WeeklyDay),
		logger.Int("weekly_hour", s.cfg.WeeklyHour))
}

// Stop terminates the job loops. Running jobs finish their pass.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, name string, next func(time.Time) time.Time, job func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			wait := time.Until(next(time.Now()))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-s.stop:
				timer.Stop()
				return
			case <-timer.C:
				s.log.Info("scheduled job firing", logger.String("job", name))
				job(ctx)
			}
		}
	}()
}

func (s *Scheduler) nextDaily(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.DailyHour, s.cfg.DailyMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) nextWeekly(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.WeeklyHour, s.cfg.WeeklyMinute, 0, 0, now.Location())
	daysAhead := (s.cfg.WeeklyDay - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func nextHour(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// RunDailyPredictions predicts every pair with enough case volume,
// queues notifications for HIGH/CRITICAL results and commits all alerts
// of the pass in one batch. Per-pair failures are logged and skipped.
func (s *Scheduler) RunDailyPredictions(ctx context.Context) {
	start := time.Now()
	s.log.Info("starting daily outbreak predictions")

	now := time.Now().UTC()
	pairs, err := s.cases.ActivePairs(ctx, now.AddDate(0, 0, -s.predCfg.LookbackDays), now, s.cfg.MinCasesPredict)
	if err != nil {
		s.log.Error("daily predictions aborted, pair enumeration failed", logger.Error(err))
		return
	}
	s.log.Info("found disease-location combinations", logger.Int("pairs", len(pairs)))

	var (
		alerts        []*models.OutbreakAlert
		criticalCount int
		highCount     int
		failures      int
	)

	for _, pair := range pairs {
		result, err := s.predictor.Predict(ctx, pair.Disease, pair.Location, s.predCfg.HorizonDays)
		if err != nil {
			failures++
			s.log.Error("daily prediction failed",
				logger.String("disease", pair.Disease),
				logger.String("location", pair.Location),
				logger.Error(err))
			continue
		}

		alert, err := NewAlert(result, time.Now())
		if err != nil {
			failures++
			s.log.Error("alert build failed",
				logger.String("disease", pair.Disease),
				logger.String("location", pair.Location),
				logger.Error(err))
			continue
		}
		alerts = append(alerts, alert)

		switch result.RiskLevel {
		case models.RiskCritical:
			criticalCount++
		case models.RiskHigh:
			highCount++
		}
		s.alerts.EnqueueNotification(ctx, result)

		s.log.Info("pair predicted",
			logger.String("disease", pair.Disease),
			logger.String("location", pair.Location),
			logger.String("risk_level", result.RiskLevel))
	}

	if err := s.alerts.SaveBatch(ctx, alerts); err != nil {
		s.log.Error("alert batch commit failed",
			logger.Int("alerts", len(alerts)),
			logger.Error(err))
		return
	}

	s.log.Info("daily predictions complete",
		logger.Int("predictions", len(alerts)),
		logger.Int("critical", criticalCount),
		logger.Int("high_risk", highCount),
		logger.Int("failures", failures),
		logger.Duration("duration_ms", time.Since(start)))
	s.sendDailySummary(ctx, len(alerts), criticalCount, highCount)
}

// RunRetraining retrains every pair with enough volume for training.
// Each model is trained and persisted independently.
func (s *Scheduler) RunRetraining(ctx context.Context) {
	start := time.Now()
	s.log.Info("starting weekly model retraining")

	now := time.Now().UTC()
	pairs, err := s.cases.ActivePairs(ctx, now.AddDate(0, 0, -s.predCfg.LookbackDays), now, s.cfg.MinCasesTrain)
	if err != nil {
		s.log.Error("retraining aborted, pair enumeration failed", logger.Error(err))
		return
	}

	trained := 0
	for _, pair := range pairs {
		if _, err := s.predictor.Train(ctx, pair.Disease, pair.Location); err != nil {
			s.log.Error("retraining failed",
				logger.String("disease", pair.Disease),
				logger.String("location", pair.Location),
				logger.Error(err))
			continue
		}
		trained++
	}

	s.log.Info("weekly retraining complete",
		logger.Int("pairs", len(pairs)),
		logger.Int("models_trained", trained),
		logger.Duration("duration_ms", time.Since(start)))
}

// RunCriticalCheck re-dispatches notifications for CRITICAL alerts from
// the last hour that nobody has acted on.
func (s *Scheduler) RunCriticalCheck(ctx context.Context) {
	alerts, err := s.alertRepo.RecentCritical(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		s.log.Error("critical alert check failed", logger.Error(err))
		return
	}
	if len(alerts) == 0 {
		return
	}

	s.log.Warn("unaddressed critical alerts found", logger.Int("count", len(alerts)))
	for _, alert := range alerts {
		s.log.Warn("unaddressed critical alert",
			logger.String("disease", alert.Disease),
			logger.String("location", alert.Location))

		var result models.PredictionResult
		if err := json.Unmarshal(alert.PredictionData, &result); err != nil {
			s.log.Error("stored prediction payload unreadable",
				logger.String("id", alert.ID),
				logger.Error(err))
			continue
		}
		s.alerts.EnqueueNotification(ctx, &result)
	}
}

// sendDailySummary pushes the pass summary onto the notification queue
// for administrator channels.
func (s *Scheduler) sendDailySummary(ctx context.Context, total, critical, high int) {
	summary := &models.OutbreakNotification{
		RiskLevel: "SUMMARY",
		CreatedAt: time.Now().UTC(),
	}
	summary.Message = dailySummaryMessage(time.Now(), total, critical, high)

	if err := s.queue.PublishMessage(ctx, notify.MessageType, summary); err != nil {
		s.log.Error("daily summary enqueue failed", logger.Error(err))
	}
}

func dailySummaryMessage(now time.Time, total, critical, high int) string {
	return fmt.Sprintf(
		"DAILY OUTBREAK PREDICTION SUMMARY\nDate: %s\n\nTotal Predictions: %d\nCritical Alerts: %d\nHigh Risk Alerts: %d",
		now.Format("2006-01-02"), total, critical, high)
}
