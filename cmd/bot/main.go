package main

import (
	"context"

	"go.uber.org/fx"

	"reversion_bot/internal/modules/binance_client"
	"reversion_bot/internal/modules/binance_websocket"
	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/modules/health"
	"reversion_bot/internal/modules/instruments"
	"reversion_bot/internal/modules/journal"
	telegram "reversion_bot/internal/modules/telegram_bot"
	"reversion_bot/internal/runner"
	"reversion_bot/internal/strategy"
	"reversion_bot/pkg/logger"
	"reversion_bot/pkg/tracing"
)

const serviceName = "reversion_bot"

func main() {
	app := fx.New(
		config.Module(),
		fx.Module("observability", fx.Invoke(setupObservability)),
		health.Module(),
		binance_client.Module(),
		instruments.Module(),
		binance_websocket.Module(),
		telegram.Module(),
		journal.Module(),
		strategy.Module(),
		runner.Module(),
	)
	app.Run()
}

func setupObservability(lc fx.Lifecycle, cfg *config.Config) error {
	logger.SetServiceName(serviceName)
	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}

	closeTracer, err := tracing.Init(tracing.Config{
		Enabled:    cfg.Tracing.Enabled,
		Service:    serviceName,
		Host:       cfg.Tracing.Host,
		Port:       cfg.Tracing.Port,
		SampleRate: cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			closeTracer()
			logger.Sync()
			return nil
		},
	})
	return nil
}
