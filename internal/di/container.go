// Package di provides dependency injection configuration for the driftwatch command.
package di

import (
	"github.com/samber/do/v2"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/di/providers"
	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/internal/render"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSession)

	// Output layer
	do.Provide(injector, providers.ProvideRenderer)

	// Workers
	do.Provide(injector, providers.ProvideWatchRunner)

	return injector
}

// Bootstrap initializes all services; callers fetch them from the injector.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.Session](injector)
	_ = do.MustInvoke[*render.Renderer](injector)
	_ = do.MustInvoke[*providers.WatchRunnerHandle](injector)

	return nil
}
