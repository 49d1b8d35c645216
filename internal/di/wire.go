//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"EpiWatch/pkg/config"
	"EpiWatch/pkg/server"
)

// InitializeApp wires the full application graph.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideJobLogCollector,
		ProvideLogger,
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideMetrics,
		ProvideCaseStore,
		ProvideCaseStorage,
		ProvideCasePublisher,
		ProvideAlertStore,
		ProvideModelStore,
		ProvideNotifier,
		ProvideBytesCache,
		ProvideNotifyQueue,
		ProvideRiskAssessor,
		ProvidePredictor,
		ProvideAlertManager,
		ProvideSurveillance,
		ProvideScheduler,
		ProvideCaseFeedStream,
		ProvideCaseProcessor,
		ProvideCaseCollector,
		ProvideKafkaCasesHandler,
		ProvideKafkaConsumer,
		ProvideHTTPHandler,
		ProvideApp,
	)
	return nil, nil
}
