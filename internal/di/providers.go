package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"EpiWatch/internal/domain/repository"
	"EpiWatch/internal/handler/api"
	internalrepo "EpiWatch/internal/repository"
	"EpiWatch/internal/service/cache"
	"EpiWatch/internal/service/casefeed"
	"EpiWatch/internal/service/notify"
	"EpiWatch/internal/usecase"
	pkgch "EpiWatch/pkg/clickhouse"
	"EpiWatch/pkg/config"
	pkgkafka "EpiWatch/pkg/kafka"
	applogger "EpiWatch/pkg/logger"
	"EpiWatch/pkg/metrics"
	"EpiWatch/pkg/queue"
	"EpiWatch/pkg/server"
)

// ProvideJobLogCollector creates a ring buffer for batch-job log records.
func ProvideJobLogCollector() *applogger.JobLogCollector {
	return applogger.NewJobLogCollector(1000)
}

// ProvideLogger creates the application logger with the job-log
// collector attached, so warnings and errors from batch jobs stay
// queryable through the API.
func ProvideLogger(cfg *config.Config, collector *applogger.JobLogCollector) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AttachCollector(collector)
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the shared Redis client.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideKafkaProducer creates the shared Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithProducerTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCaseStore creates the read-side case aggregation store.
func ProvideCaseStore(chClient *pkgch.Client, l *applogger.Logger) repository.CaseStore {
	store := internalrepo.NewCHCaseStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideCaseStorage creates ClickHouse case storage and ensures its table.
func ProvideCaseStorage(chClient *pkgch.Client) (repository.CaseStorage, error) {
	storage := internalrepo.NewClickHouseCaseStorage(chClient.DB())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.Init(ctx); err != nil {
		return nil, fmt.Errorf("case schema: %w", err)
	}
	return storage, nil
}

// ProvideCasePublisher creates the Kafka case publisher.
func ProvideCasePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.CasePublisher {
	return internalrepo.NewKafkaCasePublisher(producer, cfg.Kafka.CasesTopic)
}

// ProvideAlertStore creates the alert store and ensures its table.
func ProvideAlertStore(chClient *pkgch.Client) (repository.AlertStore, error) {
	store := internalrepo.NewCHAlertStore(chClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("alert schema: %w", err)
	}
	return store, nil
}

// ProvideModelStore creates the Redis-backed model store. Models do not
// expire; the weekly retraining overwrites them.
func ProvideModelStore(client *redis.Client, l *applogger.Logger) repository.ModelStore {
	return internalrepo.NewRedisModelStore(client, l, 0)
}

// ProvideNotifier creates the Kafka notifier.
func ProvideNotifier(producer *pkgkafka.Producer, cfg *config.Config) repository.Notifier {
	return internalrepo.NewKafkaNotifier(producer, cfg.Kafka.NotificationTopic)
}

// ProvideBytesCache creates the view cache backed by Redis.
func ProvideBytesCache(client *redis.Client) cache.BytesCache {
	return cache.NewRedisCache(client)
}

// ProvideNotifyQueue creates the Redis work queue with the notification
// dispatch job registered.
func ProvideNotifyQueue(
	l *applogger.Logger,
	client *redis.Client,
	notifier repository.Notifier,
) *queue.RedisQueue {
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    2,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, queue.ModeProducerConsumer)
	q.RegisterJob(notify.NewJob(notifier, l))
	return q
}

// ProvideRiskAssessor creates the risk assessor from configured thresholds.
func ProvideRiskAssessor(cfg *config.Config) *usecase.RiskAssessor {
	return usecase.NewRiskAssessor(cfg.Risk)
}

// ProvidePredictor creates the prediction pipeline.
func ProvidePredictor(
	cases repository.CaseStore,
	models repository.ModelStore,
	risk *usecase.RiskAssessor,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Predictor {
	return usecase.NewPredictor(cases, models, risk, m, l, cfg.Predictor)
}

// ProvideAlertManager creates the alert manager.
func ProvideAlertManager(
	alerts repository.AlertStore,
	q *queue.RedisQueue,
	l *applogger.Logger,
) *usecase.AlertManager {
	return usecase.NewAlertManager(alerts, q, l)
}

// ProvideSurveillance creates the surveillance read service.
func ProvideSurveillance(
	cases repository.CaseStore,
	predictor *usecase.Predictor,
	c cache.BytesCache,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Surveillance {
	return usecase.NewSurveillance(cases, predictor, c, l, cfg.Predictor, cfg.Risk, cfg.Schedule.MinCasesPredict)
}

// ProvideScheduler creates the recurring job scheduler.
func ProvideScheduler(
	cases repository.CaseStore,
	predictor *usecase.Predictor,
	alerts *usecase.AlertManager,
	alertRepo repository.AlertStore,
	q *queue.RedisQueue,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Scheduler {
	return usecase.NewScheduler(cases, predictor, alerts, alertRepo, q, l, cfg.Schedule, cfg.Predictor)
}

// ProvideCaseFeedStream creates the surveillance feed WebSocket stream.
// Returns nil when the feed is disabled.
func ProvideCaseFeedStream(cfg *config.Config, l *applogger.Logger) repository.CaseStream {
	if !cfg.CaseFeed.Enabled {
		return nil
	}
	return casefeed.New(
		cfg.CaseFeed.APIKey,
		cfg.CaseFeed.WebSocketURL,
		cfg.CaseFeed.Regions,
		cfg.CaseFeed.ReconnectDelay,
		cfg.CaseFeed.PingInterval,
		l,
	)
}

// ProvideCaseProcessor creates the case routing processor.
func ProvideCaseProcessor(
	pub repository.CasePublisher,
	store repository.CaseStorage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.CaseProcessor {
	return usecase.NewCaseProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideCaseCollector creates the feed collector. Nil when no feed.
func ProvideCaseCollector(
	stream repository.CaseStream,
	processor *usecase.CaseProcessor,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.CaseCollector {
	if stream == nil {
		return nil
	}
	return usecase.NewCaseCollector(stream, processor, m, cfg.Backend.BatchSize, cfg.Backend.BatchTimeout)
}

// ProvideKafkaCasesHandler registers the handler for the cases topic.
func ProvideKafkaCasesHandler(store repository.CaseStorage, m repository.Metrics, cfg *config.Config) *usecase.KafkaCasesHandler {
	return usecase.NewKafkaCasesHandler(cfg.Kafka.CasesTopic, store, m)
}

// ProvideKafkaConsumer creates the cases consumer. Nil unless the
// ingest backend routes through Kafka.
func ProvideKafkaConsumer(kh *usecase.KafkaCasesHandler, l *applogger.Logger, cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(kh, l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideHTTPHandler creates the outbreak API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	predictor *usecase.Predictor,
	surveillance *usecase.Surveillance,
	alerts *usecase.AlertManager,
	scheduler *usecase.Scheduler,
	jobLogs *applogger.JobLogCollector,
) *api.OutbreakEchoHandler {
	return api.NewOutbreakEchoHandler(l, predictor, surveillance, alerts, scheduler, jobLogs)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.OutbreakEchoHandler,
	collector *usecase.CaseCollector,
	consumer *pkgkafka.Consumer,
	scheduler *usecase.Scheduler,
	q *queue.RedisQueue,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *server.App {
	return server.New(cfg, l, handler, collector, consumer, scheduler, q, chClient, rdb)
}
