package config

import (
	"log/slog"

	"go.uber.org/fx"
)

// Module exposes configuration loader for fx graphs and logs the effective
// settings once the logger is available.
var Module = fx.Options(
	fx.Provide(Load),
	fx.Invoke(logEffective),
)

// logEffective reports settings without secrets or credentials.
func logEffective(cfg *Config, logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.String("run_address", cfg.RunAddress),
		slog.Bool("catalog_configured", cfg.CatalogAddress != ""),
		slog.Bool("amqp_configured", cfg.AMQPURL != ""),
		slog.String("event_exchange", cfg.EventExchange),
		slog.Duration("lease_ttl", cfg.LeaseTTL),
		slog.Int("relay_workers", cfg.RelayWorkers),
		slog.String("report_timezone", cfg.ReportTimezone),
	)
}
