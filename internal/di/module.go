package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/kilopos/internal/adapter/catalog"
	"github.com/polkiloo/kilopos/internal/adapter/notify"
	"github.com/polkiloo/kilopos/internal/app"
	"github.com/polkiloo/kilopos/internal/config"
	"github.com/polkiloo/kilopos/internal/logger"
	"github.com/polkiloo/kilopos/internal/pkg/auth"
	"github.com/polkiloo/kilopos/internal/server/http/handlers"
	"github.com/polkiloo/kilopos/internal/server/http/router"
	"github.com/polkiloo/kilopos/internal/storage/postgres"
	"github.com/polkiloo/kilopos/internal/usecase"
)

// Module composes the full service graph. Extra options are appended last so
// tests can replace any component.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		catalog.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(
			func(client catalog.Client) app.PriceProvider { return client },
			func(facade *app.PosFacade) handlers.PosFacade { return facade },
			func(storage *postgres.Storage) handlers.HealthChecker { return storage },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
