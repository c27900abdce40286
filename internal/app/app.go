package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/kilopos/internal/adapter/notify"
	"github.com/polkiloo/kilopos/internal/config"
	"github.com/polkiloo/kilopos/internal/usecase"
	"github.com/polkiloo/kilopos/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newPosFacade,
		newHTTPServer,
		newLeaseReaper,
		newEventRelay,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Operators *usecase.OperatorUseCase
	Ledger    *usecase.LedgerUseCase
	Lock      *usecase.LockUseCase
	Payments  *usecase.PaymentUseCase
	Drawer    *usecase.DrawerUseCase
	Sales     *usecase.SalesUseCase
	Events    *usecase.EventUseCase
	Prices    PriceProvider
}

func newPosFacade(p facadeParams) *PosFacade {
	return NewPosFacade(Services{
		Operators: p.Operators,
		Ledger:    p.Ledger,
		Lock:      p.Lock,
		Payments:  p.Payments,
		Drawer:    p.Drawer,
		Sales:     p.Sales,
		Events:    p.Events,
	}, p.Prices)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade    *PosFacade
	Publisher notify.Publisher
	Config    *config.Config
	Logger    *slog.Logger
}

func newLeaseReaper(p workerParams) *worker.LeaseReaper {
	return worker.NewLeaseReaper(p.Facade, p.Config.LeaseSweepInterval, p.Config.LeaseSweepBatch, p.Logger)
}

func newEventRelay(p workerParams) *worker.EventRelay {
	return worker.NewEventRelay(
		p.Facade,
		p.Publisher,
		p.Config.EventPollInterval,
		p.Config.EventBatchSize,
		p.Config.RelayWorkers,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Reaper     *worker.LeaseReaper
	Relay      *worker.EventRelay
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting kilopos", slog.String("addr", p.Server.Addr))
			// Workers outlive the start context.
			p.Reaper.Start(context.WithoutCancel(ctx))
			p.Relay.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			p.Reaper.Stop()
			p.Relay.Stop()

			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("kilopos stopped")
			return nil
		},
	})
}
