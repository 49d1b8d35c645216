package notify

import (
	"context"
	"fmt"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
	"EpiWatch/pkg/logger"
	"EpiWatch/pkg/queue"
)

// MessageType identifies outbreak notification jobs on the queue.
const MessageType = "outbreak_notification"

// Job drains queued outbreak notifications and hands them to the
// notifier. Queuing decouples the prediction pass from dispatch, so a
// slow or failing channel never stalls a batch run.
type Job struct {
	notifier drepo.Notifier
	log      *logger.Logger
}

// NewJob creates a notification dispatch job.
func NewJob(notifier drepo.Notifier, log *logger.Logger) *Job {
	return &Job{notifier: notifier, log: log}
}

func (j *Job) Name() string { return "outbreak-notification-dispatch" }

func (j *Job) Type() string { return MessageType }

func (j *Job) Handle(ctx context.Context, payload interface{}) error {
	n, err := queue.ParsePayload[models.OutbreakNotification](payload)
	if err != nil {
		return fmt.Errorf("parse notification: %w", err)
	}

	if err := j.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("dispatch notification: %w", err)
	}

	j.log.Info("outbreak notification dispatched",
		logger.String("disease", n.Disease),
		logger.String("location", n.Location),
		logger.String("risk_level", n.RiskLevel),
		logger.Int("predicted_cases", n.PredictedCases))
	return nil
}

// BuildMessage renders the operator-facing alert text.
func BuildMessage(n *models.OutbreakNotification) string {
	return fmt.Sprintf(
		"OUTBREAK ALERT\n\nDisease: %s\nLocation: %s\nRisk Level: %s\nPredicted Cases (7 days): %d",
		n.Disease, n.Location, n.RiskLevel, n.PredictedCases)
}
