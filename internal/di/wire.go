//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/th3rrry/minees/internal/config"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideLocation,
		ProvideMetrics,

		// Journal and caches
		ProvideRecorder,
		ProvideJournal,
		ProvideHistoryCache,

		// Signal pipeline
		ProvideSources,
		ProvideStore,
		ProvideGenerator,
		ProvideMarketBoard,

		// Delivery
		ProvideHub,
		ProvideTelegram,
		ProvideFanout,
		ProvideScheduler,
		ProvideCommands,

		// HTTP
		ProvideHandler,
		ProvideServer,

		ProvideApp,
	)
	return nil, nil, nil
}
