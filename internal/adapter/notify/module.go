package notify

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/kilopos/internal/config"
)

// Module provides the change event publisher.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

var dialAMQP = func(url, exchange string) (Publisher, error) {
	p, err := DialAMQP(url, exchange)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newPublisher(p publisherParams) (Publisher, error) {
	if p.Config.AMQPURL == "" {
		p.Logger.Info("AMQP_URL not set, change events go to the log")
		return NewLogPublisher(p.Logger), nil
	}
	return dialAMQP(p.Config.AMQPURL, p.Config.EventExchange)
}

func registerLifecycle(lc fx.Lifecycle, publisher Publisher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
}
