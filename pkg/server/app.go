package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"EpiWatch/internal/handler/api"
	"EpiWatch/internal/usecase"
	pkgch "EpiWatch/pkg/clickhouse"
	"EpiWatch/pkg/config"
	pkghttp "EpiWatch/pkg/http"
	pkgkafka "EpiWatch/pkg/kafka"
	"EpiWatch/pkg/logger"
	"EpiWatch/pkg/queue"
)

// App owns the process lifecycle: it starts the work queue, the case
// feed collector, the Kafka consumer, the scheduler and the HTTP
// server, then tears them down in reverse order on SIGINT/SIGTERM.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	handler   *api.OutbreakEchoHandler
	collector *usecase.CaseCollector
	consumer  *pkgkafka.Consumer
	scheduler *usecase.Scheduler
	queue     *queue.RedisQueue
	ch        *pkgch.Client
	redis     *redis.Client
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	handler *api.OutbreakEchoHandler,
	collector *usecase.CaseCollector,
	consumer *pkgkafka.Consumer,
	scheduler *usecase.Scheduler,
	q *queue.RedisQueue,
	ch *pkgch.Client,
	rdb *redis.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		collector: collector,
		consumer:  consumer,
		scheduler: scheduler,
		queue:     q,
		ch:        ch,
		redis:     rdb,
	}
}

// Run blocks until the process receives a shutdown signal or a
// component fails to start.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.queue.Start(); err != nil {
		return err
	}

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			// The feed reconnects on its own once up; a failed first
			// connect should not keep the API from serving.
			a.log.Error("case feed start failed", logger.Error(err))
		} else {
			a.log.Info("case feed collector started")
		}
	}

	if a.consumer != nil {
		a.consumer.Start(ctx)
		a.log.Info("kafka cases consumer started")
	}

	if a.cfg.Schedule.Enabled {
		a.scheduler.Start(ctx)
		a.log.Info("outbreak scheduler started")
	}

	srvOpts := []pkghttp.ServerOption{
		pkghttp.WithPort(a.cfg.Server.Port),
		pkghttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		pkghttp.WithLogger(a.log),
	}
	if a.cfg.Metrics.Enabled {
		srvOpts = append(srvOpts, pkghttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	srv := pkghttp.NewServer(a.handler, srvOpts...)
	a.log.Info("http server starting", logger.Int("port", a.cfg.Server.Port))
	if err := srv.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	a.log.Info("shutdown signal received", logger.String("signal", sig.String()))

	cancel()
	return a.shutdown(srv)
}

func (a *App) shutdown(srv *pkghttp.Server) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.scheduler.Stop()

	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.log.Warn("case feed close", logger.Error(err))
		}
		if err := a.collector.Processor().Close(); err != nil {
			a.log.Warn("case processor close", logger.Error(err))
		}
	}

	if err := srv.Stop(ctx); err != nil {
		a.log.Warn("http server stop", logger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(); err != nil {
			a.log.Warn("kafka consumer stop", logger.Error(err))
		}
	}

	if err := a.queue.Stop(ctx); err != nil {
		a.log.Warn("queue stop", logger.Error(err))
	}

	if err := a.ch.Close(); err != nil {
		a.log.Warn("clickhouse close", logger.Error(err))
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn("redis close", logger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
