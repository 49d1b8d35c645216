package api

import (
	"errors"
	"time"

	models "EpiWatch/internal/domain/models"
	"EpiWatch/internal/repository"
	"EpiWatch/internal/usecase"
	xhttp "EpiWatch/pkg/http"
	xlogger "EpiWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OutbreakEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type OutbreakEchoHandler struct {
	logger       *xlogger.Logger
	predictor    *usecase.Predictor
	surveillance *usecase.Surveillance
	alerts       *usecase.AlertManager
	scheduler    *usecase.Scheduler
	jobLogs      *xlogger.JobLogCollector
}

func NewOutbreakEchoHandler(
	logger *xlogger.Logger,
	predictor *usecase.Predictor,
	surveillance *usecase.Surveillance,
	alerts *usecase.AlertManager,
	scheduler *usecase.Scheduler,
	jobLogs *xlogger.JobLogCollector,
) *OutbreakEchoHandler {
	return &OutbreakEchoHandler{
		logger:       logger,
		predictor:    predictor,
		surveillance: surveillance,
		alerts:       alerts,
		scheduler:    scheduler,
		jobLogs:      jobLogs,
	}
}

func (h *OutbreakEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/outbreak")
	g.POST("/predict", h.Predict)
	g.GET("/all-predictions", h.AllPredictions)
	g.GET("/history/:disease/:location", h.History)
	g.GET("/trending", h.Trending)
	g.GET("/hotspots", h.Hotspots)
	g.PATCH("/alerts/:id/action", h.MarkAlertAction)
	g.POST("/jobs/daily", h.TriggerDaily)
	g.POST("/jobs/retrain", h.TriggerRetrain)
	g.GET("/logs", h.Logs)
}

func (h *OutbreakEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	result, err := h.predictor.Predict(ctx, req.Disease, req.Location, req.DaysAhead)
	if err != nil {
		return h.predictionError(c, err)
	}

	alert, err := usecase.NewAlert(result, time.Now())
	if err != nil {
		h.logger.Error("alert build error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not persist prediction"))
	}
	if err := h.alerts.Save(ctx, alert); err != nil {
		h.logger.Error("alert save error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not persist prediction"))
	}

	h.alerts.EnqueueNotification(ctx, result)
	return xhttp.SuccessResponse(c, result)
}

func (h *OutbreakEchoHandler) AllPredictions(c echo.Context) error {
	results, err := h.surveillance.AllPredictions(c.Request().Context())
	if err != nil {
		h.logger.Error("all-predictions usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"predictions": results,
		"total":       len(results),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

func (h *OutbreakEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	history, err := h.alerts.History(c.Request().Context(), req.Disease, req.Location, 30)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"disease":  req.Disease,
		"location": req.Location,
		"history":  history,
	})
}

func (h *OutbreakEchoHandler) Trending(c echo.Context) error {
	trending, err := h.surveillance.Trending(c.Request().Context())
	if err != nil {
		h.logger.Error("trending usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"trending_diseases": trending,
		"period":            "Last 30 days",
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}

func (h *OutbreakEchoHandler) Hotspots(c echo.Context) error {
	hotspots, err := h.surveillance.Hotspots(c.Request().Context())
	if err != nil {
		h.logger.Error("hotspots usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"hotspots":       hotspots,
		"total_hotspots": len(hotspots),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

func (h *OutbreakEchoHandler) MarkAlertAction(c echo.Context) error {
	req := &models.AlertActionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.alerts.MarkAction(c.Request().Context(), req.ID, req.Notes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("alert not found"))
		}
		h.logger.Error("alert action error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"id":           req.ID,
		"action_taken": true,
	})
}

// TriggerDaily runs the daily prediction pass on demand.
func (h *OutbreakEchoHandler) TriggerDaily(c echo.Context) error {
	h.scheduler.RunDailyPredictions(c.Request().Context())
	return xhttp.SuccessResponse(c, map[string]interface{}{"job": "daily_predictions", "triggered": true})
}

// TriggerRetrain runs the weekly retraining pass on demand.
func (h *OutbreakEchoHandler) TriggerRetrain(c echo.Context) error {
	h.scheduler.RunRetraining(c.Request().Context())
	return xhttp.SuccessResponse(c, map[string]interface{}{"job": "weekly_retraining", "triggered": true})
}

// Logs exposes recent warning/error records from the batch jobs.
func (h *OutbreakEchoHandler) Logs(c echo.Context) error {
	req := &models.LogsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"logs": h.jobLogs.Recent(req.Limit),
	})
}

// predictionError maps pipeline failures onto structured responses so
// prediction endpoints never surface a bare 500 for expected cases.
func (h *OutbreakEchoHandler) predictionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInsufficientData):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError("insufficient historical data").WithError(err))
	case errors.Is(err, usecase.ErrInsufficientSamples):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError("not enough samples to train").WithError(err))
	case errors.Is(err, usecase.ErrTrainingFailed):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError("could not train model").WithError(err))
	default:
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}
