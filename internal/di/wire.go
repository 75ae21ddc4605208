//go:build wireinject
// +build wireinject

package di

import (
	"StratLab/pkg/config"
	"StratLab/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config, mode server.Mode) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideWatchMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCache,
		ProvideEventPublisher,

		// Repositories
		ProvideTaskStore,
		ProvideTableLoader,

		// Use cases
		ProvideFactorModel,
		ProvideDataProbe,
		ProvideAnalysisJob,
		ProvideQueue,
		ProvideAnalysisService,
		ProvideUploads,

		// HTTP
		ProvideLimiter,
		ProvideAnalysisHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
