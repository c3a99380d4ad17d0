//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinDash/pkg/config"
	"FinDash/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideRelay,

		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideBackendMetrics,

		// Repositories
		ProvideEventPublisher,
		ProvideBackend,

		// View and use cases
		ProvideStore,
		ProvideRenderer,
		ProvideDashboard,
		ProvideBridge,

		// Transport
		ProvideLimiter,
		ProvideDashboardHandler,
		ProvideHub,
		ProvideHTTPServer,

		// Application server
		ProvideClosers,
		ProvideApp,
	)
	return &server.App{}, nil
}
